package port

import (
	"context"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

// VoucherRepository defines persistence operations for Voucher.
// Reads return the voucher with its owner's summary joined; a missing row is
// reported as entity.ErrNotFound.
type VoucherRepository interface {
	// Create inserts a voucher; an empty ID is filled with a new UUID
	Create(ctx context.Context, voucher *entity.Voucher) error

	// GetByID retrieves a voucher by ID
	GetByID(ctx context.Context, id string) (*entity.Voucher, error)

	// Update persists the mutable lifecycle fields of a voucher
	Update(ctx context.Context, voucher *entity.Voucher) error

	// ListByUser returns a user's vouchers, newest request first
	ListByUser(ctx context.Context, userID string) ([]*entity.Voucher, error)

	// ListByStatus returns vouchers in one status, oldest request first
	ListByStatus(ctx context.Context, status entity.VoucherStatus) ([]*entity.Voucher, error)

	// ListAll returns every voucher, newest request first
	ListAll(ctx context.Context) ([]*entity.Voucher, error)
}

// PaymentRepository defines persistence operations for MonthlyPayment.
// Writes colliding on (user, year, month) fail with entity.ErrConflict.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.MonthlyPayment) error
	GetByID(ctx context.Context, id string) (*entity.MonthlyPayment, error)

	// GetByUserMonth returns the entry for one month, or entity.ErrNotFound
	GetByUserMonth(ctx context.Context, userID string, year, month int) (*entity.MonthlyPayment, error)

	// ListByUser returns entries ordered by year desc, month desc
	ListByUser(ctx context.Context, userID string) ([]*entity.MonthlyPayment, error)

	// ListByUserAndYear returns one year's entries ordered by month asc
	ListByUserAndYear(ctx context.Context, userID string, year int) ([]*entity.MonthlyPayment, error)

	Update(ctx context.Context, payment *entity.MonthlyPayment) error
	Delete(ctx context.Context, id string) error
}

// UserRepository stores the user profiles carried by access tokens. Vouchers
// and payments join them when present.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.UserSummary, error)

	// Upsert inserts or refreshes a profile
	Upsert(ctx context.Context, user *entity.UserSummary) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
