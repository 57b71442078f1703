package service

import (
	"errors"

	"khatmaku_backend/internals/features/khatma/khatmas/repository"
)

// Taksonomi error khatma. Cek dengan errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyClaimed  = errors.New("juz already claimed")
	ErrInvalidState    = errors.New("invalid juz state")
	ErrInvalidBoard    = errors.New("invalid khatma board")

	ErrNotFound            = repository.ErrNotFound
	ErrConflict            = repository.ErrConflict
	ErrPersistenceConflict = repository.ErrPersistenceConflict
	ErrPersistenceFailure  = repository.ErrPersistenceFailure
)

// ShouldRefresh: error yang artinya board di klien sudah basi.
func ShouldRefresh(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyClaimed)
}
