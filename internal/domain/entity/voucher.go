package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherStatus is the lifecycle status of a gas voucher
type VoucherStatus string

// String returns the string representation of the status
func (s VoucherStatus) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known voucher statuses
func (s VoucherStatus) IsValid() bool {
	switch s {
	case VoucherStatusPending, VoucherStatusApproved, VoucherStatusRejected, VoucherStatusDelivered:
		return true
	default:
		return false
	}
}

// UserSummary is the public part of a user record joined onto vouchers and
// payments. Users are managed elsewhere; this service only reads them.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Rut   string `json:"rut,omitempty"`
}

// Voucher represents a request for gas cylinders tracked through approval
type Voucher struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	Kilos         int              `json:"kilos"`
	Bank          *string          `json:"bank,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Status        VoucherStatus    `json:"status"`
	RequestDate   time.Time        `json:"request_date"`
	ApprovalDate  *time.Time       `json:"approval_date,omitempty"`
	DeliveredDate *time.Time       `json:"delivered_date,omitempty"`
	ApprovedBy    *string          `json:"approved_by,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	// User is populated on reads
	User *UserSummary `json:"user,omitempty"`
}

// HasAmount reports whether an amount has been assigned
func (v *Voucher) HasAmount() bool {
	return v.Amount != nil
}

// ReferenceDate returns the approval date, or the request date when the
// voucher was never approved.
func (v *Voucher) ReferenceDate() time.Time {
	if v.ApprovalDate != nil {
		return *v.ApprovalDate
	}
	return v.RequestDate
}
