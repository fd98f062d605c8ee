// Package models defines the domain entities persisted by the repositories.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Entity is any record a repository can persist under its own id.
type Entity interface {
	EntityID() string
}

// Base carries the identity and timestamps shared by every entity.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityID returns the entity id.
func (b Base) EntityID() string {
	return b.ID
}

// Touch advances UpdatedAt.
func (b *Base) Touch() {
	b.UpdatedAt = Now()
}

// NewBase returns a Base with a fresh id and both timestamps set to now.
func NewBase() Base {
	now := Now()
	return Base{ID: NewID(), CreatedAt: now, UpdatedAt: now}
}

// NewID generates a new entity id.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current time in UTC without a monotonic clock reading, so
// values survive a store round trip unchanged.
func Now() time.Time {
	return time.Now().UTC().Round(0)
}
