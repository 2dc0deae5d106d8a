// internal/notification/kind.go
package notification

// Kind describes one class of attendee message. The dispatch loop is fully
// parameterized by a Kind: which attendance column gates and records delivery,
// which template is sent, and how the salutation is personalized.
type Kind struct {
	Key        string // URL key, e.g. "event-notification"
	Column     string // attendance sent-at column for this kind
	Template   string // full message text with the salutation line intact
	Salutation string // salutation line replaced during personalization
	Fallback   string // display name used when the Discord lookup fails
	SkipReason string // reason code reported for already-sent attendees
}

const (
	KeyEventNotification = "event-notification"
	KeyEventReminder     = "event-reminder"
)

var kinds = map[string]Kind{
	KeyEventNotification: {
		Key:        KeyEventNotification,
		Column:     "event_notification_sent_at",
		Template:   eventNotificationTemplate,
		Salutation: "Hi everyone,",
		Fallback:   "friend",
		SkipReason: "notification_already_sent",
	},
	KeyEventReminder: {
		Key:        KeyEventReminder,
		Column:     "event_reminder_sent_at",
		Template:   eventReminderTemplate,
		Salutation: "Hi there,",
		Fallback:   "there",
		SkipReason: "reminder_already_sent",
	},
}

// Lookup resolves a notification kind by its URL key.
func Lookup(key string) (Kind, bool) {
	k, ok := kinds[key]
	return k, ok
}

// All returns every registered kind.
func All() []Kind {
	return []Kind{kinds[KeyEventNotification], kinds[KeyEventReminder]}
}
