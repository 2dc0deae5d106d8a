// internal/controller/notification_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	appErrors "github.com/adosevents/notify-backend/internal/errors"
	"github.com/adosevents/notify-backend/internal/notification"
	"github.com/adosevents/notify-backend/internal/service"
)

type NotificationController struct {
	DispatchService *service.DispatchService
	Log             *logrus.Logger
}

// SendNotification handles POST /notifications/{kind}. The body carries the
// event slug and, optionally, a test recipient override.
func (c *NotificationController) SendNotification(w http.ResponseWriter, r *http.Request) {
	kindKey := chi.URLParam(r, "kind")
	kind, ok := notification.Lookup(kindKey)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Unknown notification kind"})
		return
	}

	var body struct {
		EventSlug     string `json:"event_slug"`
		TestDiscordID string `json:"test_discord_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid body"})
		return
	}

	if body.EventSlug == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "event_slug is required"})
		return
	}

	result, err := c.DispatchService.Dispatch(r.Context(), kind, body.EventSlug, body.TestDiscordID)
	if err != nil {
		c.writeDispatchError(w, err, body.TestDiscordID != "")
		return
	}

	if result.TestMode {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Test message sent successfully",
			"sent_to": result.SentTo,
		})
		return
	}

	if result.TotalAttendees == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "No approved attendees found for this event",
			"count":   0,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"event":           result.Event,
		"total_attendees": result.TotalAttendees,
		"sent":            result.Sent,
		"failed":          result.Failed,
		"skipped":         result.Skipped,
		"results":         result.Results,
	})
}

func (c *NotificationController) writeDispatchError(w http.ResponseWriter, err error, testMode bool) {
	var notFound *appErrors.ErrEventNotFound
	if errors.As(err, &notFound) {
		c.Log.Errorf("Event not found: %v", err)
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Event not found"})
		return
	}

	if testMode && isDeliveryError(err) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to send Discord message",
			"details": err.Error(),
		})
		return
	}

	c.Log.Errorf("Dispatch failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
}

func isDeliveryError(err error) bool {
	var unavailable *appErrors.ErrDeliveryUnavailable
	var channel *appErrors.ErrChannelCreation
	var transmission *appErrors.ErrTransmission
	return errors.As(err, &unavailable) || errors.As(err, &channel) || errors.As(err, &transmission)
}

// Healthz reports liveness.
func (c *NotificationController) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
