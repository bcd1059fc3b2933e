// Package notify dispatches WhatsApp notifications for appointment
// lifecycle events. Sends are fire-and-forget from the caller's point of
// view: each recipient is an independent unit of work, and failures land
// in the failed-delivery ledger instead of surfacing to the booking user.
package notify

import (
	"errors"

	"github.com/wolfman30/clinic-portal/internal/appointment"
)

// EventKind enumerates the notification-triggering lifecycle events.
type EventKind string

const (
	EventCreated     EventKind = "created"
	EventCancelled   EventKind = "cancelled"
	EventRejected    EventKind = "rejected"
	EventReminder24h EventKind = "reminder_24h"
	EventReminder1h  EventKind = "reminder_1h"
	EventCustom      EventKind = "custom"
)

// ActorRole identifies who triggered the event. Cancellations cross-notify
// based on it.
type ActorRole string

const (
	ActorPatient  ActorRole = "patient"
	ActorProvider ActorRole = "provider"
	ActorAdmin    ActorRole = "admin"
	ActorSystem   ActorRole = "system"
)

// Audience is a notification recipient side.
type Audience string

const (
	AudiencePatient  Audience = "patient"
	AudienceProvider Audience = "provider"
)

// Contact is the minimal recipient info the dispatcher needs.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Event is one lifecycle occurrence to notify about.
type Event struct {
	Kind        EventKind               `json:"kind"`
	Actor       ActorRole               `json:"actor"`
	Appointment appointment.Appointment `json:"appointment"`
	Patient     Contact                 `json:"patient"`
	Provider    Contact                 `json:"provider"`

	// CustomText carries the body for EventCustom; ignored otherwise.
	CustomText string `json:"custom_text,omitempty"`
	// CustomAudiences selects recipients for EventCustom; ignored otherwise.
	CustomAudiences []Audience `json:"custom_audiences,omitempty"`
}

var errUnknownEventKind = errors.New("notify: unknown event kind")

// Validate rejects events the dispatcher cannot route or render.
func (e Event) Validate() error {
	switch e.Kind {
	case EventCreated, EventCancelled, EventRejected, EventReminder24h, EventReminder1h:
		return nil
	case EventCustom:
		if e.CustomText == "" {
			return errors.New("notify: custom event requires text")
		}
		if len(e.CustomAudiences) == 0 {
			return errors.New("notify: custom event requires audiences")
		}
		return nil
	}
	return errUnknownEventKind
}

// Contact returns the contact for an audience side.
func (e Event) Contact(a Audience) Contact {
	if a == AudienceProvider {
		return e.Provider
	}
	return e.Patient
}
