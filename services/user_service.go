package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stackmesh/user-service/authenticator"
	"github.com/stackmesh/user-service/models"
	"github.com/stackmesh/user-service/repositories"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	defaultSignInLimit = 20
	maxSignInLimit     = 100
)

// UserService interface defines user account business logic. Lookups for
// unknown users propagate repositories.ErrNotFound.
type UserService interface {
	RecordLogin(ctx context.Context, identity *authenticator.Identity, provider, ipAddress, userAgent string) (*models.User, error)
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
	UpdateProfile(ctx context.Context, subject string, form *models.UserProfileForm) (*models.User, error)
	RecentSignIns(ctx context.Context, subject string, limit int) ([]models.SignInEvent, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, int, error)
}

// userService implements UserService interface
type userService struct {
	userRepo   repositories.UserRepository
	signInRepo repositories.SignInEventRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, signInRepo repositories.SignInEventRepository) UserService {
	return &userService{
		userRepo:   userRepo,
		signInRepo: signInRepo,
	}
}

// RecordLogin upserts the user row for a provider identity and records the
// sign-in event. First login creates the account; later logins refresh the
// stored email and last-login timestamp but never touch the user's chosen
// display name.
func (s *userService) RecordLogin(ctx context.Context, identity *authenticator.Identity, provider, ipAddress, userAgent string) (*models.User, error) {
	if identity == nil || identity.Subject == "" {
		return nil, fmt.Errorf("identity has no subject")
	}

	user, err := s.userRepo.GetBySubject(ctx, identity.Subject)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		user = &models.User{
			ID:          uuid.NewString(),
			Subject:     identity.Subject,
			Email:       identity.Email,
			Provider:    provider,
			DisplayName: initialDisplayName(identity),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up user: %w", err)
	default:
		user.Email = identity.Email
		user.LastLoginAt = time.Now().UTC()
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to refresh user: %w", err)
		}
	}

	event := &models.SignInEvent{
		UserID:    user.ID,
		Provider:  provider,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.signInRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record sign-in event: %w", err)
	}

	return user, nil
}

// GetBySubject retrieves a user by the provider-assigned subject
func (s *userService) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject is empty")
	}
	return s.userRepo.GetBySubject(ctx, subject)
}

// UpdateProfile updates the user-editable profile fields
func (s *userService) UpdateProfile(ctx context.Context, subject string, form *models.UserProfileForm) (*models.User, error) {
	if errors := form.Validate(); len(errors) > 0 {
		return nil, fmt.Errorf("validation failed: %s", strings.Join(errors, ", "))
	}

	user, err := s.userRepo.GetBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	user.DisplayName = strings.TrimSpace(form.DisplayName)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// RecentSignIns retrieves a user's latest sign-in events, newest first
func (s *userService) RecentSignIns(ctx context.Context, subject string, limit int) ([]models.SignInEvent, error) {
	if limit <= 0 {
		limit = defaultSignInLimit
	}
	if limit > maxSignInLimit {
		limit = maxSignInLimit
	}

	user, err := s.userRepo.GetBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	events, err := s.signInRepo.ListByUser(ctx, user.ID, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.SignInEvent{}
	}
	return events, nil
}

// ListUsers retrieves a page of users plus the total count
func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if users == nil {
		users = []models.User{}
	}

	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// initialDisplayName derives a first display name from the provider claims:
// name claim, then email, then the raw subject.
func initialDisplayName(identity *authenticator.Identity) string {
	if name, ok := identity.RawClaims["name"].(string); ok && name != "" {
		return name
	}
	if identity.Email != "" {
		return identity.Email
	}
	return identity.Subject
}
