package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	rutPattern   = regexp.MustCompile(`^(\d{1,8})-?([\dkK])$`)
)

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// SanitizeOptional sanitizes a free-text field, mapping blank input to nil
func SanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := SanitizeString(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// ValidateKilos checks a requested cylinder size
func ValidateKilos(kilos int) error {
	if kilos <= 0 {
		return fmt.Errorf("kilos must be positive: %d", kilos)
	}
	return nil
}

// FormatRut renders a Chilean national ID as 12.345.678-9. Values that do not
// parse as a RUT are returned unchanged.
func FormatRut(rut string) string {
	compact := strings.NewReplacer(".", "", " ", "").Replace(strings.TrimSpace(rut))
	m := rutPattern.FindStringSubmatch(compact)
	if m == nil {
		return rut
	}

	body, dv := m[1], strings.ToUpper(m[2])
	var b strings.Builder
	for i, r := range body {
		if i > 0 && (len(body)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String() + "-" + dv
}
