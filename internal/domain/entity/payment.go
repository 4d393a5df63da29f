package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plausible calendar range for ledger entries
const (
	MinPaymentYear = 2000
	MaxPaymentYear = 2100
)

// MonthlyPayment is a single ledger entry; at most one per user per month
type MonthlyPayment struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty"`
	PaymentDate time.Time       `json:"payment_date"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	User *UserSummary `json:"user,omitempty"`
}

// PaymentPatch carries the optional fields of a partial payment update.
// A nil field is left unchanged.
type PaymentPatch struct {
	Year        *int
	Month       *int
	Amount      *decimal.Decimal
	Description *string
	PaymentDate *time.Time
}

// IsEmpty reports whether the patch changes nothing
func (p PaymentPatch) IsEmpty() bool {
	return p.Year == nil && p.Month == nil && p.Amount == nil &&
		p.Description == nil && p.PaymentDate == nil
}

// Apply merges the defined fields of the patch into payment
func (p PaymentPatch) Apply(payment *MonthlyPayment) {
	if p.Year != nil {
		payment.Year = *p.Year
	}
	if p.Month != nil {
		payment.Month = *p.Month
	}
	if p.Amount != nil {
		payment.Amount = *p.Amount
	}
	if p.Description != nil {
		desc := *p.Description
		payment.Description = &desc
	}
	if p.PaymentDate != nil {
		payment.PaymentDate = *p.PaymentDate
	}
}

// ValidatePayment checks the ledger field ranges
func ValidatePayment(p *MonthlyPayment) error {
	if p.UserID == "" {
		return NewValidationError("user_id", "is required")
	}
	if p.Year < MinPaymentYear || p.Year > MaxPaymentYear {
		return NewValidationError("year", "must be between 2000 and 2100")
	}
	if p.Month < 1 || p.Month > 12 {
		return NewValidationError("month", "must be between 1 and 12")
	}
	if p.Amount.IsNegative() {
		return NewValidationError("amount", "must not be negative")
	}
	return nil
}
