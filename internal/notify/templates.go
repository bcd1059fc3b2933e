package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/wolfman30/clinic-portal/internal/appointment"
)

type templateKey struct {
	kind     EventKind
	audience Audience
}

// templateData is what each message template may reference. Parsing uses
// strict missing-key semantics so a typo fails at init, not at send time.
type templateData struct {
	PatientName     string
	ProviderName    string
	AppointmentType string
	ScheduledAt     string
	Reason          string
}

var templateTexts = map[templateKey]string{
	{EventCreated, AudiencePatient}:  "Hi {{.PatientName}}, your {{.AppointmentType}} with {{.ProviderName}} is booked for {{.ScheduledAt}}. We'll send a reminder before your visit.",
	{EventCreated, AudienceProvider}: "New booking: {{.PatientName}} scheduled {{.AppointmentType}} on {{.ScheduledAt}}.",

	{EventCancelled, AudiencePatient}:  "Hi {{.PatientName}}, your {{.AppointmentType}} on {{.ScheduledAt}} was cancelled. Reason: {{.Reason}}. Reply here to rebook.",
	{EventCancelled, AudienceProvider}: "Cancelled: {{.PatientName}}'s {{.AppointmentType}} on {{.ScheduledAt}}. Reason: {{.Reason}}.",

	{EventRejected, AudiencePatient}: "Hi {{.PatientName}}, we couldn't confirm your {{.AppointmentType}} request for {{.ScheduledAt}}. Please contact the clinic to reschedule.",

	{EventReminder24h, AudiencePatient}: "Reminder: your {{.AppointmentType}} with {{.ProviderName}} is tomorrow at {{.ScheduledAt}}.",
	{EventReminder1h, AudiencePatient}:  "Reminder: your {{.AppointmentType}} with {{.ProviderName}} starts in about an hour ({{.ScheduledAt}}).",
}

var parsedTemplates = func() map[templateKey]*template.Template {
	out := make(map[templateKey]*template.Template, len(templateTexts))
	for key, text := range templateTexts {
		name := TemplateName(key.kind, key.audience)
		out[key] = template.Must(template.New(name).Option("missingkey=error").Parse(text))
	}
	return out
}()

// TemplateName is the identifier recorded on ledger entries.
func TemplateName(kind EventKind, audience Audience) string {
	return string(kind) + "_" + string(audience)
}

// RenderMessage produces the message body for one audience of an event.
// Unknown (kind, audience) pairs are rejected rather than silently sent.
func RenderMessage(e Event, audience Audience) (body string, templateName string, err error) {
	if e.Kind == EventCustom {
		return e.CustomText, string(EventCustom), nil
	}
	key := templateKey{e.Kind, audience}
	tmpl, ok := parsedTemplates[key]
	if !ok {
		return "", "", fmt.Errorf("notify: no template for event %q audience %q", e.Kind, audience)
	}
	data := templateData{
		PatientName:     e.Patient.Name,
		ProviderName:    e.Provider.Name,
		AppointmentType: humanType(e.Appointment.Type),
		ScheduledAt:     e.Appointment.ScheduledAt.UTC().Format("Mon, Jan 2 2006 at 15:04 MST"),
		Reason:          e.Appointment.CancellationReason,
	}
	if data.Reason == "" {
		data.Reason = "not specified"
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("notify: render %s: %w", TemplateName(e.Kind, audience), err)
	}
	return buf.String(), TemplateName(e.Kind, audience), nil
}

func humanType(t appointment.Type) string {
	switch t {
	case appointment.TypeInitialConsultation:
		return "initial consultation"
	case appointment.TypeFollowUp:
		return "follow-up visit"
	case appointment.TypeTreatmentSession:
		return "treatment session"
	case appointment.TypeLabReview:
		return "lab review"
	}
	return string(t)
}
