package repository

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when a write would violate a uniqueness index.
var ErrConflict = errors.New("conflict")

// ErrDecode is matched by every *DecodeError.
var ErrDecode = errors.New("decode stored record")

// DecodeError reports a stored record that could not be decoded.
type DecodeError struct {
	Key   string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Key != "" && e.Field != "":
		return fmt.Sprintf("decode %s field %q: %v", e.Key, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("decode field %q: %v", e.Field, e.Err)
	case e.Key != "":
		return fmt.Sprintf("decode %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// withKey attaches the store key to a decode error.
func withKey(err error, key string) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Key == "" {
		cp := *de
		cp.Key = key
		return &cp
	}
	return err
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
