package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project already exists")
	ErrSampleNotFound  = errors.New("sample not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoFile          = errors.New("no file provided")
	ErrUnsupportedType = errors.New("file type not allowed")
	ErrQuotaExceeded   = errors.New("project size limit exceeded")
)

// StorageError wraps an underlying durable-storage failure (disk full,
// permission denied). Callers treat these as retryable infrastructure
// conditions, distinct from the validation sentinels above.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageFailure reports whether err is (or wraps) a StorageError.
func IsStorageFailure(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
