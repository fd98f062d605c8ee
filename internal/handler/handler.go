// Package handler provides the HTTP handlers of the calendar API.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gytkk/todo/internal/middleware"
	"github.com/gytkk/todo/internal/models"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/pkg/response"
)

const dateLayout = "2006-01-02"

// decode reads a JSON body into dst and validates its struct tags. On
// failure the error response has already been written.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return false
	}
	if err := models.Validate(dst); err != nil {
		if fields := models.FieldErrors(err); fields != nil {
			response.ValidationErrors(w, fields)
		} else {
			response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		}
		return false
	}
	return true
}

// userID returns the authenticated user, writing a 401 when there is none.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := middleware.GetUserID(r.Context())
	if id == "" {
		response.Error(w, apierrors.ErrUnauthorized)
		return "", false
	}
	return id, true
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(dateLayout, s)
}

// dateParam parses an optional date query parameter. ok is false when the
// value was present but malformed and an error has been written.
func dateParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := parseDate(raw)
	if err != nil {
		response.Error(w, apierrors.NewValidationError(name, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"))
		return nil, false
	}
	return &t, true
}
