package access

import (
	"errors"
	"fmt"
)

// StoreError reports a failure while consulting the role or resource stores.
// It is deliberately distinct from a deny decision: callers must never treat
// "could not determine access" as "access denied".
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("access engine: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying store failure.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err originated from a backing-store failure.
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
