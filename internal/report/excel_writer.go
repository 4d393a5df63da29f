package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/pkg/utils"
)

// ExcelConfig describes where rows go in the export template
type ExcelConfig struct {
	TemplatePath string
	SheetName    string // empty selects the first sheet
	StartRow     int    // 1-based
	DateFormat   string
	Location     *time.Location
}

// ExcelWriter fills the export template with rows
type ExcelWriter struct {
	cfg    ExcelConfig
	logger *zap.Logger
}

// NewExcelWriter creates an ExcelWriter. The template is opened on every
// Write so it can be replaced without a restart.
func NewExcelWriter(cfg ExcelConfig, logger *zap.Logger) *ExcelWriter {
	if cfg.StartRow < 1 {
		cfg.StartRow = 2
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = "02-01-2006"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &ExcelWriter{cfg: cfg, logger: logger}
}

// Write fills a copy of the template and returns the workbook bytes
func (w *ExcelWriter) Write(rows []ExportRow) ([]byte, error) {
	if _, err := os.Stat(w.cfg.TemplatePath); errors.Is(err, fs.ErrNotExist) {
		w.logger.Error("Export template missing", zap.String("path", w.cfg.TemplatePath))
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, w.cfg.TemplatePath)
	}

	file, err := excelize.OpenFile(w.cfg.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer file.Close()

	sheet := w.cfg.SheetName
	if sheet == "" {
		sheet = file.GetSheetName(0)
	}
	if idx, err := file.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	for i, row := range rows {
		if err := w.writeRow(file, sheet, w.cfg.StartRow+i, row); err != nil {
			return nil, err
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	w.logger.Info("Voucher export rendered",
		zap.String("sheet", sheet),
		zap.Int("rows", len(rows)),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (w *ExcelWriter) writeRow(file *excelize.File, sheet string, rowNum int, row ExportRow) error {
	latest := ""
	if !row.LatestDate.IsZero() {
		latest = row.LatestDate.In(w.cfg.Location).Format(w.cfg.DateFormat)
	}

	// the amount cell is written separately from its decimal text
	values := make([]interface{}, 0, 8+len(row.Cylinders))
	values = append(values, nil, row.Name, utils.FormatRut(row.Rut))
	for _, count := range row.Cylinders {
		values = append(values, count)
	}
	values = append(values, row.Phone, row.Email, row.Reference, latest, row.Bank)

	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("invalid start cell for row %d: %w", rowNum, err)
	}
	if err := file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	// numeric text keeps the amount exact in a number cell
	if err := file.SetCellDefault(sheet, cell, row.Amount.String()); err != nil {
		return fmt.Errorf("failed to write amount in row %d: %w", rowNum, err)
	}
	return nil
}
