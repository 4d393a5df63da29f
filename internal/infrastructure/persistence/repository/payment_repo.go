package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/internal/application/port"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
	"github.com/garyjia/gas-voucher/internal/infrastructure/persistence/sqlite"
)

const paymentSelect = `
	SELECT p.id, p.user_id, p.year, p.month, p.amount, p.description,
		p.payment_date, p.created_by, p.created_at, p.updated_at,
		u.id, u.name, u.email, u.phone, u.rut
	FROM monthly_payments p
	LEFT JOIN users u ON u.id = p.user_id
`

// PaymentRepository implements port.PaymentRepository
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new monthly payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) port.PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a ledger entry; a second entry for the same month conflicts
func (r *PaymentRepository) Create(ctx context.Context, p *entity.MonthlyPayment) error {
	query := `
		INSERT INTO monthly_payments (
			id, user_id, year, month, amount, description,
			payment_date, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.Year,
		p.Month,
		p.Amount.String(),
		nullString(p.Description),
		p.PaymentDate.UTC(),
		p.CreatedBy,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create monthly payment",
			zap.String("user_id", p.UserID),
			zap.Int("year", p.Year),
			zap.Int("month", p.Month),
			zap.Error(err))
		return convertErr(err, "failed to create payment for %s %d-%02d", p.UserID, p.Year, p.Month)
	}
	return nil
}

// GetByID retrieves a ledger entry by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*entity.MonthlyPayment, error) {
	p, err := scanPayment(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, paymentSelect+` WHERE p.id = ?`, id))
	if err != nil {
		return nil, convertErr(err, "failed to get payment %s", id)
	}
	return p, nil
}

// GetByUserMonth retrieves the entry for one user and month
func (r *PaymentRepository) GetByUserMonth(ctx context.Context, userID string, year, month int) (*entity.MonthlyPayment, error) {
	query := paymentSelect + ` WHERE p.user_id = ? AND p.year = ? AND p.month = ?`

	p, err := scanPayment(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, userID, year, month))
	if err != nil {
		return nil, convertErr(err, "failed to get payment for %s %d-%02d", userID, year, month)
	}
	return p, nil
}

// ListByUser returns entries newest period first
func (r *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]*entity.MonthlyPayment, error) {
	query := paymentSelect + `
		WHERE p.user_id = ?
		ORDER BY p.year DESC, p.month DESC
	`
	return r.list(ctx, query, userID)
}

// ListByUserAndYear returns one year's entries by month
func (r *PaymentRepository) ListByUserAndYear(ctx context.Context, userID string, year int) ([]*entity.MonthlyPayment, error) {
	query := paymentSelect + `
		WHERE p.user_id = ? AND p.year = ?
		ORDER BY p.month ASC
	`
	return r.list(ctx, query, userID, year)
}

// Update rewrites the editable fields of an entry
func (r *PaymentRepository) Update(ctx context.Context, p *entity.MonthlyPayment) error {
	query := `
		UPDATE monthly_payments
		SET year = ?, month = ?, amount = ?, description = ?, payment_date = ?, updated_at = ?
		WHERE id = ?
	`

	p.UpdatedAt = time.Now().UTC()
	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		p.Year,
		p.Month,
		p.Amount.String(),
		nullString(p.Description),
		p.PaymentDate.UTC(),
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update monthly payment", zap.String("payment_id", p.ID), zap.Error(err))
		return convertErr(err, "failed to update payment %s", p.ID)
	}
	return expectAffected(result, "payment "+p.ID)
}

// Delete removes an entry
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM monthly_payments WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete monthly payment", zap.String("payment_id", id), zap.Error(err))
		return convertErr(err, "failed to delete payment %s", id)
	}
	return expectAffected(result, "payment "+id)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.MonthlyPayment, error) {
	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query monthly payments", zap.Error(err))
		return nil, convertErr(err, "failed to list payments")
	}
	defer rows.Close()

	payments := make([]*entity.MonthlyPayment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

func scanPayment(row rowScanner) (*entity.MonthlyPayment, error) {
	var (
		p           entity.MonthlyPayment
		description sql.NullString
		user        joinedUser
	)

	dest := []interface{}{
		&p.ID,
		&p.UserID,
		&p.Year,
		&p.Month,
		&p.Amount,
		&description,
		&p.PaymentDate,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	if err := row.Scan(append(dest, user.targets()...)...); err != nil {
		return nil, err
	}

	p.Description = stringPtr(description)
	p.User = user.summary()
	return &p, nil
}
