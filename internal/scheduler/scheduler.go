package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/adosevents/notify-backend/internal/notification"
	"github.com/adosevents/notify-backend/internal/service"
)

// ReminderScheduler fires a bulk reminder dispatch for one event on a cron
// spec. Already-notified attendees are skipped by the dispatch idempotency
// gate, so repeated firings are harmless.
type ReminderScheduler struct {
	cronEngine *cron.Cron
	dispatch   *service.DispatchService
	log        *logrus.Logger
	cronSpec   string
	eventSlug  string
}

func New(dispatch *service.DispatchService, log *logrus.Logger, cronSpec, eventSlug string) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		dispatch:   dispatch,
		log:        log,
		cronSpec:   cronSpec,
		eventSlug:  eventSlug,
	}
}

func (s *ReminderScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.log.WithField("slug", s.eventSlug).Info("Cron job triggered for event reminder dispatch")

		kind, _ := notification.Lookup(notification.KeyEventReminder)

		// A run is never aborted mid-way; it processes every eligible attendee.
		result, err := s.dispatch.Dispatch(context.Background(), kind, s.eventSlug, "")
		if err != nil {
			s.log.Errorf("Scheduled reminder dispatch failed: %v", err)
			return
		}
		s.log.WithFields(logrus.Fields{
			"event":   result.Event,
			"sent":    result.Sent,
			"failed":  result.Failed,
			"skipped": result.Skipped,
		}).Info("Scheduled reminder dispatch completed")
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.log.WithFields(logrus.Fields{"spec": s.cronSpec, "slug": s.eventSlug}).Info("Reminder scheduler started")
	return nil
}

func (s *ReminderScheduler) Stop() {
	s.log.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.log.Info("Reminder scheduler stopped")
}
