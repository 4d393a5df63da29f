package repository

import (
	"database/sql"
	"time"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Times are stored in UTC so lexical order matches chronological order
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// joinedUser holds the nullable columns of a LEFT JOIN on users
type joinedUser struct {
	id, name, email, phone, rut sql.NullString
}

func (j *joinedUser) targets() []interface{} {
	return []interface{}{&j.id, &j.name, &j.email, &j.phone, &j.rut}
}

func (j *joinedUser) summary() *entity.UserSummary {
	if !j.id.Valid {
		return nil
	}
	return &entity.UserSummary{
		ID:    j.id.String,
		Name:  j.name.String,
		Email: j.email.String,
		Phone: j.phone.String,
		Rut:   j.rut.String,
	}
}
