package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adosevents/notify-backend/internal/model"
	"github.com/adosevents/notify-backend/internal/notification"
)

// AttendanceRepositoryInterface defines the attendance reads and the single
// write (the sent-at marker) used by the dispatch service.
type AttendanceRepositoryInterface interface {
	// ListEligible returns every approved attendance row for the event joined
	// with its profile, including the kind's sent-at column. It does not filter
	// out already-sent or identity-less rows; that gating belongs to the
	// dispatch loop so the projection stays auditable.
	ListEligible(ctx context.Context, eventID string, kind notification.Kind) ([]model.Attendee, error)
	// MarkSent records the kind's sent-at timestamp for one attendance row.
	// The update is conditional on the column still being null, so a marker is
	// never overwritten once set.
	MarkSent(ctx context.Context, attendanceID string, kind notification.Kind, at time.Time) error
}

type AttendanceRepository struct {
	DB *sql.DB
}

func (r *AttendanceRepository) ListEligible(ctx context.Context, eventID string, kind notification.Kind) ([]model.Attendee, error) {
	// kind.Column comes from the closed notification.Kind registry, never from
	// request input.
	query := fmt.Sprintf(`
        SELECT a.id, a.user_id, a.%s,
               p.discord_id, p.discord_username, p.email
        FROM attendance a
        JOIN profiles p ON p.user_id = a.user_id
        WHERE a.event_id = $1 AND a.status = 'approved'
        ORDER BY a.id
    `, kind.Column)

	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("error listing approved attendees: %w", err)
	}
	defer rows.Close()

	attendees := []model.Attendee{}
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.AttendanceID, &a.UserID, &a.SentAt, &a.Profile.DiscordID, &a.Profile.DiscordUsername, &a.Profile.Email); err != nil {
			return nil, fmt.Errorf("error scanning attendee row: %w", err)
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendee rows: %w", err)
	}
	return attendees, nil
}

func (r *AttendanceRepository) MarkSent(ctx context.Context, attendanceID string, kind notification.Kind, at time.Time) error {
	query := fmt.Sprintf(`UPDATE attendance SET %s = $1 WHERE id = $2 AND %s IS NULL`, kind.Column, kind.Column)
	_, err := r.DB.ExecContext(ctx, query, at, attendanceID)
	if err != nil {
		return fmt.Errorf("error marking attendance %s as sent: %w", attendanceID, err)
	}
	return nil
}

var _ AttendanceRepositoryInterface = (*AttendanceRepository)(nil)
