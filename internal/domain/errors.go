package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthenticated   = errors.New("authentication required")
	ErrNotFound          = errors.New("not found")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrDanglingReference = errors.New("cart references a product that no longer exists")
	ErrStorage           = errors.New("storage failure")
	ErrForbidden         = errors.New("operation not permitted for this user")
	ErrConflict          = errors.New("resource already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
)

type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type DanglingReferenceError struct {
	ProductIDs []int64
}

func (e *DanglingReferenceError) Error() string {
	ids := make([]string, 0, len(e.ProductIDs))
	for _, id := range e.ProductIDs {
		ids = append(ids, fmt.Sprint(id))
	}
	return fmt.Sprintf("%v: products [%s]", ErrDanglingReference, strings.Join(ids, ", "))
}

func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

// StorageError wraps a persistence failure. The transaction it happened in
// has been rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorage, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
