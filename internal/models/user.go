package models

import "time"

// User represents a user account. Email is globally unique.
type User struct {
	Base
	Email         string  `json:"email"`
	Name          *string `json:"name"`
	PasswordHash  string  `json:"password_hash"`
	EmailVerified bool    `json:"email_verified"`
	IsActive      bool    `json:"is_active"`
}

// NewUser creates an active, unverified user.
func NewUser(email, name, passwordHash string) *User {
	return &User{
		Base:         NewBase(),
		Email:        email,
		Name:         &name,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
}

// DisplayName returns the user's name or an empty string.
func (u *User) DisplayName() string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          *string   `json:"name"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Profile returns the public view of u.
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// UserUpdate holds the profile fields a user may change.
type UserUpdate struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

// Apply copies the set fields of up onto u.
func (up UserUpdate) Apply(u *User) {
	if up.Name != nil {
		name := *up.Name
		u.Name = &name
	}
}
