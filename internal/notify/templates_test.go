package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/clinic-portal/internal/appointment"
)

func sampleEvent(kind EventKind) Event {
	return Event{
		Kind:  kind,
		Actor: ActorPatient,
		Appointment: appointment.Appointment{
			Type:               appointment.TypeFollowUp,
			ScheduledAt:        time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC),
			CancellationReason: "",
		},
		Patient:  Contact{Name: "Ana", Phone: "+1"},
		Provider: Contact{Name: "Dr. Reis", Phone: "+2"},
	}
}

func TestEveryRoutedPairHasATemplate(t *testing.T) {
	for key, audiences := range routes {
		e := sampleEvent(key.kind)
		e.Actor = key.actor
		for _, audience := range audiences {
			body, name, err := RenderMessage(e, audience)
			if err != nil {
				t.Fatalf("render %s/%s: %v", key.kind, audience, err)
			}
			if body == "" {
				t.Fatalf("empty body for %s/%s", key.kind, audience)
			}
			if name != TemplateName(key.kind, audience) {
				t.Fatalf("template name mismatch: %s", name)
			}
		}
	}
}

func TestPatientAndProviderVariantsDiffer(t *testing.T) {
	e := sampleEvent(EventCreated)
	patientBody, _, err := RenderMessage(e, AudiencePatient)
	if err != nil {
		t.Fatalf("render patient: %v", err)
	}
	providerBody, _, err := RenderMessage(e, AudienceProvider)
	if err != nil {
		t.Fatalf("render provider: %v", err)
	}
	if patientBody == providerBody {
		t.Fatal("patient and provider variants must differ")
	}
	if !strings.Contains(patientBody, "Ana") || !strings.Contains(patientBody, "Dr. Reis") {
		t.Fatalf("patient body missing names: %q", patientBody)
	}
}

func TestCancellationReasonDefaultsWhenEmpty(t *testing.T) {
	e := sampleEvent(EventCancelled)
	body, _, err := RenderMessage(e, AudienceProvider)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "not specified") {
		t.Fatalf("expected reason placeholder, got %q", body)
	}

	e.Appointment.CancellationReason = "patient request"
	body, _, err = RenderMessage(e, AudienceProvider)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "patient request") {
		t.Fatalf("expected reason in body, got %q", body)
	}
}

func TestUnknownPairRejected(t *testing.T) {
	e := sampleEvent(EventRejected)
	if _, _, err := RenderMessage(e, AudienceProvider); err == nil {
		t.Fatal("rejected has no provider variant; render must fail")
	}
}

func TestCustomRenderShortCircuits(t *testing.T) {
	e := Event{Kind: EventCustom, CustomText: "Clinic closed Friday.", CustomAudiences: []Audience{AudiencePatient}}
	body, name, err := RenderMessage(e, AudiencePatient)
	if err != nil {
		t.Fatalf("render custom: %v", err)
	}
	if body != "Clinic closed Friday." || name != string(EventCustom) {
		t.Fatalf("unexpected custom render: %q %q", body, name)
	}
}
