package database

import (
	"errors"
	"fmt"
)

// ErrUnavailable is matched by every error the store adapter returns.
// Callers use it to tell "could not check" apart from "does not exist".
var ErrUnavailable = errors.New("kv store unavailable")

// StoreError describes a failed round trip to the key-value store.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("redis %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("redis %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports ErrUnavailable for any store error.
func (e *StoreError) Is(target error) bool {
	return target == ErrUnavailable
}

func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Key: key, Err: err}
}
