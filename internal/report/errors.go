package report

import "errors"

var (
	// ErrTemplateNotFound is returned when the export template is missing
	ErrTemplateNotFound = errors.New("export template not found")

	// ErrSheetNotFound is returned when the configured sheet is not in the template
	ErrSheetNotFound = errors.New("export sheet not found in template")
)
