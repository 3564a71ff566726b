package service

import (
	"errors"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/domain"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/repository"
)

var IllegalTransitionError = errors.New("illegal transition of checkout state")

var domainErrors = []error{
	domain.ErrUnauthenticated,
	domain.ErrNotFound,
	domain.ErrEmptyCart,
	domain.ErrDanglingReference,
	domain.ErrStorage,
	domain.ErrForbidden,
	domain.ErrConflict,
	domain.ErrInvalidArgument,
}

// classify turns a repository failure into a domain error. Domain errors pass
// through untouched and anything unrecognised becomes a StorageError.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return domain.ErrUnauthenticated
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return &domain.StorageError{Op: op, Err: err}
}

func notFound(err, sentinel error, resource string, id int64) error {
	if errors.Is(err, sentinel) {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return err
}
