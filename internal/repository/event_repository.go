package repository

import (
	"context"
	"database/sql"
	"fmt"

	appErrors "github.com/adosevents/notify-backend/internal/errors"
	"github.com/adosevents/notify-backend/internal/model"
)

// EventRepositoryInterface defines the event lookups used by the service.
type EventRepositoryInterface interface {
	GetBySlug(ctx context.Context, slug string) (*model.Event, error)
}

type EventRepository struct {
	DB *sql.DB
}

// GetBySlug fetches an event by its unique slug.
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	query := `
        SELECT id, name, slug, created_at
        FROM events
        WHERE slug = $1
    `
	var e model.Event
	err := r.DB.QueryRowContext(ctx, query, slug).Scan(&e.ID, &e.Name, &e.Slug, &e.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewEventNotFound(slug)
		}
		return nil, fmt.Errorf("error getting event by slug: %w", err)
	}
	return &e, nil
}

var _ EventRepositoryInterface = (*EventRepository)(nil)
