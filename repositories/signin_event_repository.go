package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stackmesh/user-service/models"
)

// SignInEventRepository handles sign-in event persistence
type SignInEventRepository interface {
	Create(ctx context.Context, event *models.SignInEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.SignInEvent, error)
}

// signInEventRepository implements SignInEventRepository interface
type signInEventRepository struct {
	db *sql.DB
}

// NewSignInEventRepository creates a new sign-in event repository
func NewSignInEventRepository(db *sql.DB) SignInEventRepository {
	return &signInEventRepository{db: db}
}

// Create inserts a new sign-in event
func (r *signInEventRepository) Create(ctx context.Context, event *models.SignInEvent) error {
	query := `
		INSERT INTO signin_events (user_id, provider, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		event.UserID,
		event.Provider,
		event.IPAddress,
		event.UserAgent,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sign-in event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ID: %w", err)
	}

	event.ID = id
	return nil
}

// ListByUser retrieves a user's sign-in events, newest first
func (r *signInEventRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.SignInEvent, error) {
	query := `
		SELECT id, user_id, provider, ip_address, user_agent, created_at
		FROM signin_events
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sign-in events: %w", err)
	}
	defer rows.Close()

	var events []models.SignInEvent
	for rows.Next() {
		var event models.SignInEvent
		err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.Provider,
			&event.IPAddress,
			&event.UserAgent,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sign-in event: %w", err)
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sign-in events: %w", err)
	}

	return events, nil
}
