package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned by every backend when a lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write violates a unique index
// (enrollment number, email).
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
