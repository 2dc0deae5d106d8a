// internal/errors/errors.go
package appErrors

import "fmt"

// ErrEventNotFound marks an event slug that resolved to zero rows.
type ErrEventNotFound struct {
	Slug string
}

func (e *ErrEventNotFound) Error() string {
	return fmt.Sprintf("event with slug %q not found", e.Slug)
}

func NewEventNotFound(slug string) error {
	return &ErrEventNotFound{Slug: slug}
}

// ErrIdentityUnavailable means a Discord user lookup could not produce a
// display name. Callers recover with a fallback name.
type ErrIdentityUnavailable struct {
	Reason string
}

func (e *ErrIdentityUnavailable) Error() string {
	return fmt.Sprintf("discord identity unavailable: %s", e.Reason)
}

func NewIdentityUnavailable(reason string) error {
	return &ErrIdentityUnavailable{Reason: reason}
}

// ErrDeliveryUnavailable means the DM client has no bot token configured and
// cannot attempt delivery at all.
type ErrDeliveryUnavailable struct{}

func (e *ErrDeliveryUnavailable) Error() string {
	return "discord delivery unavailable: no bot token configured"
}

func NewDeliveryUnavailable() error {
	return &ErrDeliveryUnavailable{}
}

// ErrChannelCreation means the DM channel could not be opened for a recipient.
// Body carries the upstream response for diagnostics.
type ErrChannelCreation struct {
	Body string
}

func (e *ErrChannelCreation) Error() string {
	return "failed to create DM channel"
}

func NewChannelCreation(body string) error {
	return &ErrChannelCreation{Body: body}
}

// ErrTransmission means the message could not be posted into an open channel.
type ErrTransmission struct {
	Body string
}

func (e *ErrTransmission) Error() string {
	return "failed to send message"
}

func NewTransmission(body string) error {
	return &ErrTransmission{Body: body}
}
