package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrConflict         = errors.New("conflict")
	ErrNotLeaseHolder   = errors.New("requester does not hold the annotation lease")
	ErrIdentityRequired = errors.New("identity required")
	ErrTooLarge         = errors.New("payload too large")
	ErrUnauthorized     = errors.New("unauthorized")
)

// StoreError wraps a record-store or blob-store failure. Op names the step
// that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "store error"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, fmt.Sprintf(format, args...))
}
