package helper

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	PgUniqueViolation     = "23505"
	PgForeignKeyViolation = "23503"
	PgCheckViolation      = "23514"
)

// PgCode ambil SQLSTATE dari pgx maupun lib/pq, "" kalau bukan error postgres.
func PgCode(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation: 23505 atau gorm.ErrDuplicatedKey (TranslateError aktif).
func IsUniqueViolation(err error) bool {
	return PgCode(err) == PgUniqueViolation || errors.Is(err, gorm.ErrDuplicatedKey)
}

func IsForeignKeyViolation(err error) bool {
	return PgCode(err) == PgForeignKeyViolation || errors.Is(err, gorm.ErrForeignKeyViolated)
}
