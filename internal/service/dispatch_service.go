// internal/service/dispatch_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adosevents/notify-backend/internal/discord"
	"github.com/adosevents/notify-backend/internal/model"
	"github.com/adosevents/notify-backend/internal/notification"
	"github.com/adosevents/notify-backend/internal/queue"
	"github.com/adosevents/notify-backend/internal/repository"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"

	reasonNoDiscordID = "no_discord_id"
)

// DispatchOutcome is the per-attendee result of one dispatch run.
type DispatchOutcome struct {
	AttendanceID string `json:"attendance_id"`
	DiscordID    string `json:"discord_id,omitempty"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	Email        string `json:"email,omitempty"`
	Error        string `json:"error,omitempty"`
}

// OutcomeEvent is the audit payload published per outcome.
type OutcomeEvent struct {
	EventSlug string `json:"event_slug"`
	Kind      string `json:"kind"`
	DispatchOutcome
	At time.Time `json:"at"`
}

// DispatchResult summarizes one dispatch run.
type DispatchResult struct {
	Event          string
	TotalAttendees int
	Sent           int
	Failed         int
	Skipped        int
	Results        []DispatchOutcome
	TestMode       bool
	SentTo         string
}

// DispatchService drives the notification pipeline: select recipients, gate on
// idempotency and identity, resolve a display name, personalize, deliver, and
// record delivery. Recipients are processed strictly sequentially with a fixed
// pause between sends.
type DispatchService struct {
	EventRepo      repository.EventRepositoryInterface
	AttendanceRepo repository.AttendanceRepositoryInterface
	Discord        discord.Client
	Publisher      queue.Publisher
	Log            *logrus.Logger
	SendDelay      time.Duration
}

// Dispatch runs one notification dispatch for the event identified by slug.
// When testDiscordID is set, exactly one message is sent to that recipient and
// nothing is persisted.
func (s *DispatchService) Dispatch(ctx context.Context, kind notification.Kind, eventSlug, testDiscordID string) (*DispatchResult, error) {
	event, err := s.EventRepo.GetBySlug(ctx, eventSlug)
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"event": event.Name, "slug": event.Slug, "kind": kind.Key}).Info("Found event")

	if testDiscordID != "" {
		return s.dispatchTest(ctx, kind, event, testDiscordID)
	}

	attendees, err := s.AttendanceRepo.ListEligible(ctx, event.ID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendees: %w", err)
	}

	result := &DispatchResult{
		Event:          event.Name,
		TotalAttendees: len(attendees),
		Results:        []DispatchOutcome{},
	}
	if len(attendees) == 0 {
		s.Log.WithField("slug", event.Slug).Info("No approved attendees found")
		return result, nil
	}
	s.Log.WithFields(logrus.Fields{"slug": event.Slug, "count": len(attendees)}).Info("Found approved attendees")

	for _, a := range attendees {
		outcome := s.processAttendee(ctx, kind, a)

		switch outcome.Status {
		case StatusSent:
			result.Sent++
		case StatusFailed:
			result.Failed++
		case StatusSkipped:
			result.Skipped++
		}
		result.Results = append(result.Results, outcome)
		s.publishOutcome(event.Slug, kind, outcome)

		// Pause between deliveries to respect Discord rate limits. Skips did
		// not touch the API, so they don't pay the delay.
		if outcome.Status != StatusSkipped {
			time.Sleep(s.SendDelay)
		}
	}

	return result, nil
}

// processAttendee runs the per-recipient pipeline and never returns an error:
// every failure is folded into the outcome so one bad recipient can't block
// the rest.
func (s *DispatchService) processAttendee(ctx context.Context, kind notification.Kind, a model.Attendee) DispatchOutcome {
	if a.SentAt.Valid {
		s.Log.WithFields(logrus.Fields{"attendance_id": a.AttendanceID, "kind": kind.Key}).Info("Skipping attendee - already sent")
		return DispatchOutcome{
			AttendanceID: a.AttendanceID,
			Status:       StatusSkipped,
			Reason:       kind.SkipReason,
		}
	}

	if !a.Profile.DiscordID.Valid || a.Profile.DiscordID.String == "" {
		s.Log.WithField("attendance_id", a.AttendanceID).Info("Skipping attendee - no Discord ID")
		return DispatchOutcome{
			AttendanceID: a.AttendanceID,
			Status:       StatusSkipped,
			Reason:       reasonNoDiscordID,
			Email:        a.Profile.Email,
		}
	}

	discordID := a.Profile.DiscordID.String
	personalized := s.personalizeFor(ctx, kind, discordID)

	if err := s.Discord.SendDM(ctx, discordID, personalized); err != nil {
		s.Log.WithFields(logrus.Fields{"attendance_id": a.AttendanceID, "discord_id": discordID}).Errorf("Failed to send notification: %v", err)
		return DispatchOutcome{
			AttendanceID: a.AttendanceID,
			DiscordID:    discordID,
			Status:       StatusFailed,
			Error:        err.Error(),
		}
	}
	s.Log.WithFields(logrus.Fields{"attendance_id": a.AttendanceID, "discord_id": discordID}).Info("Sent notification")

	// The message is already delivered, so a bookkeeping failure here does not
	// downgrade the outcome. The gap means the attendee may be re-sent on the
	// next run (at-least-once).
	if err := s.AttendanceRepo.MarkSent(ctx, a.AttendanceID, kind, time.Now()); err != nil {
		s.Log.WithField("attendance_id", a.AttendanceID).Warnf("Failed to update %s: %v", kind.Column, err)
	}

	return DispatchOutcome{
		AttendanceID: a.AttendanceID,
		DiscordID:    discordID,
		Status:       StatusSent,
	}
}

// dispatchTest sends a single message to the override recipient without
// touching attendance state.
func (s *DispatchService) dispatchTest(ctx context.Context, kind notification.Kind, event *model.Event, discordID string) (*DispatchResult, error) {
	s.Log.WithFields(logrus.Fields{"discord_id": discordID, "kind": kind.Key}).Info("TEST MODE: sending to single recipient")

	personalized := s.personalizeFor(ctx, kind, discordID)
	if err := s.Discord.SendDM(ctx, discordID, personalized); err != nil {
		return nil, err
	}

	return &DispatchResult{
		Event:    event.Name,
		TestMode: true,
		SentTo:   discordID,
	}, nil
}

// personalizeFor resolves the recipient's display name and renders the kind's
// template. Resolution failure falls back to the kind's generic name; the
// pipeline always proceeds.
func (s *DispatchService) personalizeFor(ctx context.Context, kind notification.Kind, discordID string) string {
	name, err := s.Discord.GetUser(ctx, discordID)
	if err != nil {
		s.Log.WithField("discord_id", discordID).Warnf("Discord user lookup failed, using fallback name: %v", err)
		name = kind.Fallback
	}
	return Personalize(kind.Template, kind.Salutation, name)
}

func (s *DispatchService) publishOutcome(eventSlug string, kind notification.Kind, outcome DispatchOutcome) {
	event := OutcomeEvent{
		EventSlug:       eventSlug,
		Kind:            kind.Key,
		DispatchOutcome: outcome,
		At:              time.Now().UTC(),
	}
	if err := s.Publisher.Publish(queue.OutcomesQueue, event); err != nil {
		s.Log.Warnf("Failed to publish dispatch outcome: %v", err)
	}
}
