package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/internal/application/port"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
	"github.com/garyjia/gas-voucher/internal/infrastructure/persistence/sqlite"
)

const voucherColumns = `
	v.id, v.user_id, v.kilos, v.bank, v.amount, v.status,
	v.request_date, v.approval_date, v.delivered_date, v.approved_by, v.notes,
	v.created_at, v.updated_at,
	u.id, u.name, u.email, u.phone, u.rut
`

const voucherFrom = `
	FROM vouchers v
	LEFT JOIN users u ON u.id = v.user_id
`

// VoucherRepository implements port.VoucherRepository
type VoucherRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *sql.DB, logger *zap.Logger) port.VoucherRepository {
	return &VoucherRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a voucher record
func (r *VoucherRepository) Create(ctx context.Context, v *entity.Voucher) error {
	query := `
		INSERT INTO vouchers (
			id, user_id, kilos, bank, amount, status,
			request_date, approval_date, delivered_date, approved_by, notes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	_, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		v.ID,
		v.UserID,
		v.Kilos,
		nullString(v.Bank),
		nullAmount(v.Amount),
		v.Status,
		v.RequestDate.UTC(),
		nullTime(v.ApprovalDate),
		nullTime(v.DeliveredDate),
		nullString(v.ApprovedBy),
		nullString(v.Notes),
		v.CreatedAt.UTC(),
		v.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create voucher", zap.String("user_id", v.UserID), zap.Error(err))
		return convertErr(err, "failed to create voucher")
	}
	return nil
}

// GetByID retrieves a voucher with its owner's summary
func (r *VoucherRepository) GetByID(ctx context.Context, id string) (*entity.Voucher, error) {
	query := `SELECT ` + voucherColumns + voucherFrom + ` WHERE v.id = ?`

	v, err := scanVoucher(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, convertErr(err, "failed to get voucher %s", id)
	}
	return v, nil
}

// Update persists the lifecycle fields; owner and kilos are never rewritten
func (r *VoucherRepository) Update(ctx context.Context, v *entity.Voucher) error {
	query := `
		UPDATE vouchers
		SET bank = ?, amount = ?, status = ?,
			approval_date = ?, delivered_date = ?, approved_by = ?, notes = ?,
			updated_at = ?
		WHERE id = ?
	`

	v.UpdatedAt = time.Now().UTC()
	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		nullString(v.Bank),
		nullAmount(v.Amount),
		v.Status,
		nullTime(v.ApprovalDate),
		nullTime(v.DeliveredDate),
		nullString(v.ApprovedBy),
		nullString(v.Notes),
		v.UpdatedAt,
		v.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update voucher", zap.String("voucher_id", v.ID), zap.Error(err))
		return convertErr(err, "failed to update voucher %s", v.ID)
	}
	return expectAffected(result, "voucher "+v.ID)
}

// ListByUser returns a user's vouchers, newest request first
func (r *VoucherRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Voucher, error) {
	query := `SELECT ` + voucherColumns + voucherFrom + `
		WHERE v.user_id = ?
		ORDER BY v.request_date DESC, v.id
	`
	return r.list(ctx, query, userID)
}

// ListByStatus returns vouchers in one status, oldest request first
func (r *VoucherRepository) ListByStatus(ctx context.Context, status entity.VoucherStatus) ([]*entity.Voucher, error) {
	query := `SELECT ` + voucherColumns + voucherFrom + `
		WHERE v.status = ?
		ORDER BY v.request_date ASC, v.id
	`
	return r.list(ctx, query, status)
}

// ListAll returns every voucher, newest request first
func (r *VoucherRepository) ListAll(ctx context.Context) ([]*entity.Voucher, error) {
	query := `SELECT ` + voucherColumns + voucherFrom + `
		ORDER BY v.request_date DESC, v.id
	`
	return r.list(ctx, query)
}

func (r *VoucherRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Voucher, error) {
	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query vouchers", zap.Error(err))
		return nil, convertErr(err, "failed to list vouchers")
	}
	defer rows.Close()

	vouchers := make([]*entity.Voucher, 0)
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vouchers: %w", err)
	}
	return vouchers, nil
}

func scanVoucher(row rowScanner) (*entity.Voucher, error) {
	var (
		v             entity.Voucher
		bank          sql.NullString
		amount        decimal.NullDecimal
		approvalDate  sql.NullTime
		deliveredDate sql.NullTime
		approvedBy    sql.NullString
		notes         sql.NullString
		user          joinedUser
	)

	dest := []interface{}{
		&v.ID,
		&v.UserID,
		&v.Kilos,
		&bank,
		&amount,
		&v.Status,
		&v.RequestDate,
		&approvalDate,
		&deliveredDate,
		&approvedBy,
		&notes,
		&v.CreatedAt,
		&v.UpdatedAt,
	}
	if err := row.Scan(append(dest, user.targets()...)...); err != nil {
		return nil, err
	}

	v.Bank = stringPtr(bank)
	if amount.Valid {
		a := amount.Decimal
		v.Amount = &a
	}
	v.ApprovalDate = timePtr(approvalDate)
	v.DeliveredDate = timePtr(deliveredDate)
	v.ApprovedBy = stringPtr(approvedBy)
	v.Notes = stringPtr(notes)
	v.User = user.summary()
	return &v, nil
}

// nullAmount stores amounts as exact decimal strings
func nullAmount(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
