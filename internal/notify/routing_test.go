package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreatedNotifiesBothRegardlessOfActor(t *testing.T) {
	for _, actor := range []ActorRole{ActorPatient, ActorProvider, ActorAdmin, ActorSystem} {
		got := Recipients(Event{Kind: EventCreated, Actor: actor})
		assert.ElementsMatch(t, []Audience{AudiencePatient, AudienceProvider}, got, "actor %s", actor)
	}
}

func TestCancellationCrossNotifies(t *testing.T) {
	assert.Equal(t, []Audience{AudienceProvider}, Recipients(Event{Kind: EventCancelled, Actor: ActorPatient}))
	assert.Equal(t, []Audience{AudiencePatient}, Recipients(Event{Kind: EventCancelled, Actor: ActorProvider}))
	assert.ElementsMatch(t, []Audience{AudiencePatient, AudienceProvider}, Recipients(Event{Kind: EventCancelled, Actor: ActorAdmin}))
}

func TestRejectionNotifiesPatientOnly(t *testing.T) {
	assert.Equal(t, []Audience{AudiencePatient}, Recipients(Event{Kind: EventRejected, Actor: ActorProvider}))
	assert.Equal(t, []Audience{AudiencePatient}, Recipients(Event{Kind: EventRejected, Actor: ActorAdmin}))
}

func TestRemindersGoToPatient(t *testing.T) {
	assert.Equal(t, []Audience{AudiencePatient}, Recipients(Event{Kind: EventReminder24h, Actor: ActorSystem}))
	assert.Equal(t, []Audience{AudiencePatient}, Recipients(Event{Kind: EventReminder1h, Actor: ActorSystem}))
}

func TestUnknownPairingsHaveNoRecipients(t *testing.T) {
	assert.Empty(t, Recipients(Event{Kind: EventRejected, Actor: ActorPatient}))
	assert.Empty(t, Recipients(Event{Kind: EventReminder24h, Actor: ActorPatient}))
	assert.Empty(t, Recipients(Event{Kind: EventKind("unknown"), Actor: ActorPatient}))
}

func TestCustomEventUsesExplicitAudiences(t *testing.T) {
	e := Event{Kind: EventCustom, CustomText: "hi", CustomAudiences: []Audience{AudienceProvider}}
	assert.Equal(t, []Audience{AudienceProvider}, Recipients(e))
}
