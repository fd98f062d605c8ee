// Package service implements the calendar business rules on top of the repositories.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gytkk/todo/internal/database"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/repository"
)

// fail translates a repository error into the API error clients see. The
// original error stays in the chain for logging.
func fail(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case apierrors.IsAPIError(err):
		return err
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%s: %w: %w", op, apierrors.NewConflictError(conflictMessage(err)), err)
	case errors.Is(err, database.ErrUnavailable):
		return fmt.Errorf("%s: %w: %w", op, apierrors.ErrServiceUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func conflictMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), repository.ErrConflict.Error()+": ")
	if msg == "" || msg == err.Error() {
		return apierrors.ErrConflict.Message
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
