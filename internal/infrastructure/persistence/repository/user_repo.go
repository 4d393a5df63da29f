package repository

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/internal/application/port"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
	"github.com/garyjia/gas-voucher/internal/infrastructure/persistence/sqlite"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a user summary by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.UserSummary, error) {
	query := `SELECT id, name, email, phone, rut FROM users WHERE id = ?`

	var u entity.UserSummary
	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Rut,
	)
	if err != nil {
		return nil, convertErr(err, "failed to get user %s", id)
	}
	return &u, nil
}

// Upsert stores a user profile. Empty phone or rut values keep what is
// already stored.
func (r *UserRepository) Upsert(ctx context.Context, u *entity.UserSummary) error {
	query := `
		INSERT INTO users (id, name, email, phone, rut, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = COALESCE(NULLIF(excluded.phone, ''), users.phone),
			rut = COALESCE(NULLIF(excluded.rut, ''), users.rut),
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.Phone, u.Rut, now, now,
	)
	if err != nil {
		r.logger.Error("Failed to upsert user", zap.String("user_id", u.ID), zap.Error(err))
		return convertErr(err, "failed to upsert user")
	}
	return nil
}
