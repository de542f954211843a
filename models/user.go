package models

import (
	"strings"
	"time"
)

// User represents a service account created from a provider identity. Subject
// is the provider-assigned identifier and is unique per user; Email can be
// empty when the provider account carries none.
type User struct {
	ID          string    `json:"id" db:"id"`
	Subject     string    `json:"subject" db:"subject"`
	Email       string    `json:"email" db:"email"`
	Provider    string    `json:"provider" db:"provider"`
	DisplayName string    `json:"display_name" db:"display_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	LastLoginAt time.Time `json:"last_login_at" db:"last_login_at"`
}

// UserProfileForm represents the user-editable part of a profile
type UserProfileForm struct {
	DisplayName string `json:"display_name"`
}

// Validate validates the profile form data
func (f *UserProfileForm) Validate() []string {
	var errors []string

	name := strings.TrimSpace(f.DisplayName)
	if name == "" {
		errors = append(errors, "Display name is required")
	}
	if len(name) > 100 {
		errors = append(errors, "Display name must be less than 100 characters")
	}

	return errors
}
