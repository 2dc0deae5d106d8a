// internal/model/attendee.go
package model

import "database/sql"

// Attendee is the read-only projection the dispatch loop iterates: one
// approved attendance row joined with its Profile, plus the sent-at marker for
// the notification kind the query was scoped to.
type Attendee struct {
	AttendanceID string       `db:"id" json:"attendance_id"`
	UserID       string       `db:"user_id" json:"user_id"`
	SentAt       sql.NullTime `db:"sent_at" json:"sent_at,omitempty"`
	Profile      Profile      `json:"profile"`
}
