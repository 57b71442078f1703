package repository

import (
	"errors"

	"gorm.io/gorm"

	helper "khatmaku_backend/internals/helpers"
)

// Error dari storage boundary. Service membungkus ulang dengan konteks operasi.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("concurrent update conflict")
	ErrPersistenceConflict = errors.New("persistence conflict")
	ErrPersistenceFailure  = errors.New("persistence failure")
)

// classify memetakan error GORM/driver ke sentinel storage.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case helper.IsUniqueViolation(err):
		return errors.Join(ErrPersistenceConflict, err)
	default:
		return errors.Join(ErrPersistenceFailure, err)
	}
}
