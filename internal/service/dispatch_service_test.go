package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/adosevents/notify-backend/internal/errors"
	"github.com/adosevents/notify-backend/internal/model"
	"github.com/adosevents/notify-backend/internal/notification"
	"github.com/adosevents/notify-backend/internal/queue"
	"github.com/adosevents/notify-backend/internal/service"
)

// Mock event repository
type MockEventRepo struct {
	Event *model.Event
}

func (m *MockEventRepo) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	if m.Event == nil || m.Event.Slug != slug {
		return nil, appErrors.NewEventNotFound(slug)
	}
	return m.Event, nil
}

// Mock attendance repository backed by in-memory rows so MarkSent is visible
// to later runs.
type MockAttendanceRepo struct {
	Rows        []model.Attendee
	MarkSentErr error
	MarkedIDs   []string
}

func (m *MockAttendanceRepo) ListEligible(ctx context.Context, eventID string, kind notification.Kind) ([]model.Attendee, error) {
	out := make([]model.Attendee, len(m.Rows))
	copy(out, m.Rows)
	return out, nil
}

func (m *MockAttendanceRepo) MarkSent(ctx context.Context, attendanceID string, kind notification.Kind, at time.Time) error {
	m.MarkedIDs = append(m.MarkedIDs, attendanceID)
	if m.MarkSentErr != nil {
		return m.MarkSentErr
	}
	for i := range m.Rows {
		if m.Rows[i].AttendanceID == attendanceID {
			m.Rows[i].SentAt = sql.NullTime{Time: at, Valid: true}
		}
	}
	return nil
}

// Mock Discord client recording every call.
type MockDiscordClient struct {
	Names      map[string]string // discordID -> display name
	LookupErr  error
	SendErr    error
	LookupIDs  []string
	SentTo     []string
	SentBodies []string
}

func (m *MockDiscordClient) GetUser(ctx context.Context, discordID string) (string, error) {
	m.LookupIDs = append(m.LookupIDs, discordID)
	if m.LookupErr != nil {
		return "", m.LookupErr
	}
	return m.Names[discordID], nil
}

func (m *MockDiscordClient) SendDM(ctx context.Context, discordID, content string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.SentTo = append(m.SentTo, discordID)
	m.SentBodies = append(m.SentBodies, content)
	return nil
}

// Recording outcome publisher.
type MockPublisher struct {
	Published []service.OutcomeEvent
}

func (m *MockPublisher) Publish(queueName string, payload any) error {
	if queueName != queue.OutcomesQueue {
		return errors.New("unexpected queue " + queueName)
	}
	m.Published = append(m.Published, payload.(service.OutcomeEvent))
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func notificationKind(t *testing.T) notification.Kind {
	t.Helper()
	kind, ok := notification.Lookup(notification.KeyEventNotification)
	if !ok {
		t.Fatal("event-notification kind not registered")
	}
	return kind
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func adosEvent() *model.Event {
	return &model.Event{ID: "evt-1", Name: "ADOS LA", Slug: "ados-la"}
}

// Attendees for the canonical scenario: A has no Discord id, B is eligible,
// C was already notified.
func adosAttendees() []model.Attendee {
	return []model.Attendee{
		{AttendanceID: "att-a", UserID: "user-a", Profile: model.Profile{Email: "a@example.com"}},
		{AttendanceID: "att-b", UserID: "user-b", Profile: model.Profile{DiscordID: nullStr("disc-b"), Email: "b@example.com"}},
		{AttendanceID: "att-c", UserID: "user-c", Profile: model.Profile{DiscordID: nullStr("disc-c"), Email: "c@example.com"},
			SentAt: sql.NullTime{Time: time.Now(), Valid: true}},
	}
}

func newDispatchService(events *MockEventRepo, attendance *MockAttendanceRepo, client *MockDiscordClient, pub *MockPublisher) *service.DispatchService {
	return &service.DispatchService{
		EventRepo:      events,
		AttendanceRepo: attendance,
		Discord:        client,
		Publisher:      pub,
		Log:            quietLogger(),
		SendDelay:      0,
	}
}

func TestDispatchGatesAndCounts(t *testing.T) {
	attendance := &MockAttendanceRepo{Rows: adosAttendees()}
	client := &MockDiscordClient{Names: map[string]string{"disc-b": "Bobby"}}
	pub := &MockPublisher{}
	svc := newDispatchService(&MockEventRepo{Event: adosEvent()}, attendance, client, pub)

	result, err := svc.Dispatch(context.Background(), notificationKind(t), "ados-la", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalAttendees != 3 {
		t.Errorf("expected 3 attendees, got %d", result.TotalAttendees)
	}
	if result.Sent != 1 || result.Failed != 0 || result.Skipped != 2 {
		t.Errorf("expected counts 1/0/2, got %d/%d/%d", result.Sent, result.Failed, result.Skipped)
	}
	if result.Sent+result.Failed+result.Skipped != result.TotalAttendees {
		t.Errorf("counts do not sum to total")
	}

	byID := map[string]service.DispatchOutcome{}
	for _, o := range result.Results {
		byID[o.AttendanceID] = o
	}

	a := byID["att-a"]
	if a.Status != service.StatusSkipped || a.Reason != "no_discord_id" {
		t.Errorf("attendee A: expected skipped/no_discord_id, got %s/%s", a.Status, a.Reason)
	}
	if a.Email != "a@example.com" {
		t.Errorf("attendee A: expected email for operator follow-up, got %q", a.Email)
	}

	c := byID["att-c"]
	if c.Status != service.StatusSkipped || c.Reason != "notification_already_sent" {
		t.Errorf("attendee C: expected skipped/notification_already_sent, got %s/%s", c.Status, c.Reason)
	}

	b := byID["att-b"]
	if b.Status != service.StatusSent || b.DiscordID != "disc-b" {
		t.Errorf("attendee B: expected sent to disc-b, got %s/%s", b.Status, b.DiscordID)
	}

	// Skipped attendees never reach Discord.
	if len(client.LookupIDs) != 1 || client.LookupIDs[0] != "disc-b" {
		t.Errorf("expected exactly one user lookup for disc-b, got %v", client.LookupIDs)
	}
	if len(client.SentTo) != 1 || client.SentTo[0] != "disc-b" {
		t.Errorf("expected exactly one DM to disc-b, got %v", client.SentTo)
	}

	if !strings.HasPrefix(client.SentBodies[0], "Hi Bobby,") {
		t.Errorf("expected personalized greeting, got %q", client.SentBodies[0][:40])
	}

	if len(attendance.MarkedIDs) != 1 || attendance.MarkedIDs[0] != "att-b" {
		t.Errorf("expected sent-at marker only for att-b, got %v", attendance.MarkedIDs)
	}

	// One audit event per outcome, skips included.
	if len(pub.Published) != 3 {
		t.Errorf("expected 3 published outcomes, got %d", len(pub.Published))
	}
	for _, e := range pub.Published {
		if e.EventSlug != "ados-la" || e.Kind != notification.KeyEventNotification {
			t.Errorf("published outcome carries wrong envelope: %+v", e)
		}
	}
}

func TestDispatchIsIdempotentAcrossRuns(t *testing.T) {
	attendance := &MockAttendanceRepo{Rows: adosAttendees()}
	client := &MockDiscordClient{Names: map[string]string{"disc-b": "Bobby"}}
	svc := newDispatchService(&MockEventRepo{Event: adosEvent()}, attendance, client, &MockPublisher{})
	kind := notificationKind(t)

	first, err := svc.Dispatch(context.Background(), kind, "ados-la", "")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Sent != 1 {
		t.Fatalf("first run: expected 1 sent, got %d", first.Sent)
	}

	second, err := svc.Dispatch(context.Background(), kind, "ados-la", "")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Sent != 0 {
		t.Errorf("second run: expected 0 sent, got %d", second.Sent)
	}
	if second.Skipped != 3 {
		t.Errorf("second run: expected all 3 skipped, got %d", second.Skipped)
	}
	if len(client.SentTo) != 1 {
		t.Errorf("expected no additional DMs on second run, got %v", client.SentTo)
	}
}

func TestDispatchFallbackNameWhenLookupFails(t *testing.T) {
	attendance := &MockAttendanceRepo{Rows: []model.Attendee{
		{AttendanceID: "att-b", UserID: "user-b", Profile: model.Profile{DiscordID: nullStr("disc-b"), Email: "b@example.com"}},
	}}
	client := &MockDiscordClient{LookupErr: appErrors.NewIdentityUnavailable("lookup failed")}
	svc := newDispatchService(&MockEventRepo{Event: adosEvent()}, attendance, client, &MockPublisher{})

	result, err := svc.Dispatch(context.Background(), notificationKind(t), "ados-la", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Sent != 1 {
		t.Fatalf("expected delivery despite lookup failure, got %+v", result)
	}
	if !strings.HasPrefix(client.SentBodies[0], "Hi friend,") {
		t.Errorf("expected fallback greeting, got %q", client.SentBodies[0][:30])
	}
}

func TestDispatchDeliveryFailureIsRecordedNotFatal(t *testing.T) {
	attendance := &MockAttendanceRepo{Rows: []model.Attendee{
		{AttendanceID: "att-b", UserID: "user-b", Profile: model.Profile{DiscordID: nullStr("disc-b"), Email: "b@example.com"}},
	}}
	client := &MockDiscordClient{SendErr: appErrors.NewChannelCreation("403")}
	svc := newDispatchService(&MockEventRepo{Event: adosEvent()}, attendance, client, &MockPublisher{})

	result, err := svc.Dispatch(context.Background(), notificationKind(t), "ados-la", "")
	if err != nil {
		t.Fatalf("per-recipient failure must not abort the run: %v", err)
	}

	if result.Failed != 1 || result.Sent != 0 {
		t.Errorf("expected 1 failed, got %+v", result)
	}
	if result.Results[0].Error == "" {
		t.Error("failed outcome should carry the delivery error")
	}
	if len(attendance.MarkedIDs) != 0 {
		t.Errorf("no sent-at marker may be written on failure, got %v", attendance.MarkedIDs)
	}
}

func TestDispatchPersistenceFailureKeepsSentOutcome(t *testing.T) {
	attendance := &MockAttendanceRepo{
		Rows: []model.Attendee{
			{AttendanceID: "att-b", UserID: "user-b", Profile: model.Profile{DiscordID: nullStr("disc-b"), Email: "b@example.com"}},
		},
		MarkSentErr: errors.New("connection reset"),
	}
	client := &MockDiscordClient{Names: map[string]string{"disc-b": "Bobby"}}
	svc := newDispatchService(&MockEventRepo{Event: adosEvent()}, attendance, client, &MockPublisher{})

	result, err := svc.Dispatch(context.Background(), notificationKind(t), "ados-la", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sent != 1 || result.Failed != 0 {
		t.Errorf("delivered message must stay sent when bookkeeping fails, got %+v", result)
	}
}

func TestDispatchZeroAttendees(t *testing.T) {
	svc := newDispatchService(&MockEventRepo{Event: adosEvent()}, &MockAttendanceRepo{}, &MockDiscordClient{}, &MockPublisher{})

	result, err := svc.Dispatch(context.Background(), notificationKind(t), "ados-la", "")
	if err != nil {
		t.Fatalf("zero attendees is not an error: %v", err)
	}
	if result.TotalAttendees != 0 || result.Sent != 0 {
		t.Errorf("expected empty summary, got %+v", result)
	}
}

func TestDispatchEventNotFound(t *testing.T) {
	svc := newDispatchService(&MockEventRepo{}, &MockAttendanceRepo{}, &MockDiscordClient{}, &MockPublisher{})

	_, err := svc.Dispatch(context.Background(), notificationKind(t), "nope", "")
	var notFound *appErrors.ErrEventNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestDispatchTestModeDoesNotPersist(t *testing.T) {
	attendance := &MockAttendanceRepo{Rows: adosAttendees()}
	client := &MockDiscordClient{Names: map[string]string{"disc-test": "Tester"}}
	svc := newDispatchService(&MockEventRepo{Event: adosEvent()}, attendance, client, &MockPublisher{})

	result, err := svc.Dispatch(context.Background(), notificationKind(t), "ados-la", "disc-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.TestMode || result.SentTo != "disc-test" {
		t.Errorf("expected test-mode result for disc-test, got %+v", result)
	}
	if len(client.SentTo) != 1 || client.SentTo[0] != "disc-test" {
		t.Errorf("expected exactly one DM to the override recipient, got %v", client.SentTo)
	}
	if len(attendance.MarkedIDs) != 0 {
		t.Errorf("test mode must not write sent-at markers, got %v", attendance.MarkedIDs)
	}
}

func TestDispatchTestModeDeliveryFailureSurfaces(t *testing.T) {
	client := &MockDiscordClient{SendErr: appErrors.NewTransmission("boom")}
	attendance := &MockAttendanceRepo{Rows: adosAttendees()}
	svc := newDispatchService(&MockEventRepo{Event: adosEvent()}, attendance, client, &MockPublisher{})

	_, err := svc.Dispatch(context.Background(), notificationKind(t), "ados-la", "disc-test")
	var transmission *appErrors.ErrTransmission
	if !errors.As(err, &transmission) {
		t.Fatalf("expected ErrTransmission, got %v", err)
	}
	if len(attendance.MarkedIDs) != 0 {
		t.Errorf("test mode must not write sent-at markers, got %v", attendance.MarkedIDs)
	}
}
