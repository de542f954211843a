package repositories

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a requested row does not exist. Callers branch
// on it with errors.Is to tell "absent" apart from a database failure.
var ErrNotFound = errors.New("not found")

// Repositories struct holds all repository interfaces
type Repositories struct {
	Users   UserRepository
	SignIns SignInEventRepository
}

// NewRepositories creates and initializes all repositories
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Users:   NewUserRepository(db),
		SignIns: NewSignInEventRepository(db),
	}
}
