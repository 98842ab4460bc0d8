package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no task has the requested identifier.
var ErrNotFound = errors.New("task not found")

// PersistenceError wraps an unexpected store failure for operation Op.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
