package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

// RequestVoucherRequest is the body of POST /vouchers/request
type RequestVoucherRequest struct {
	Kilos int     `json:"kilos" binding:"required,gt=0"`
	Bank  *string `json:"bank"`
}

// ApproveVoucherRequest is the body of PATCH /vouchers/:id/approve
type ApproveVoucherRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
	Notes  *string          `json:"notes"`
}

// RejectVoucherRequest is the body of PATCH /vouchers/:id/reject
type RejectVoucherRequest struct {
	Notes *string `json:"notes"`
}

// ManualVoucherRequest is the body of POST /vouchers/manual
type ManualVoucherRequest struct {
	UserID string           `json:"user_id" binding:"required"`
	Kilos  int              `json:"kilos" binding:"required,gt=0"`
	Bank   *string          `json:"bank"`
	Amount *decimal.Decimal `json:"amount" binding:"required"`
	Notes  *string          `json:"notes"`
}

// CreatePaymentRequest is the body of POST /monthly-payments
type CreatePaymentRequest struct {
	UserID      string           `json:"user_id" binding:"required"`
	Year        int              `json:"year" binding:"required"`
	Month       int              `json:"month" binding:"required,min=1,max=12"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Description *string          `json:"description"`
	PaymentDate *Date            `json:"payment_date"`
}

// UpdatePaymentRequest is the body of PATCH /monthly-payments/:id. Omitted
// fields are left unchanged.
type UpdatePaymentRequest struct {
	Year        *int             `json:"year"`
	Month       *int             `json:"month"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	PaymentDate *Date            `json:"payment_date"`
}

// Patch converts the request to a PaymentPatch
func (r UpdatePaymentRequest) Patch() entity.PaymentPatch {
	return entity.PaymentPatch{
		Year:        r.Year,
		Month:       r.Month,
		Amount:      r.Amount,
		Description: r.Description,
		PaymentDate: r.PaymentDate.TimePtr(),
	}
}

// AmountResponse wraps a single money value
type AmountResponse struct {
	UserID string          `json:"user_id"`
	Year   int             `json:"year,omitempty"`
	Month  int             `json:"month,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// Date accepts either a calendar date (2006-01-02) or an RFC 3339 timestamp
type Date struct {
	time.Time
}

// UnmarshalJSON parses both accepted layouts
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// TimePtr returns nil for a nil Date
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
