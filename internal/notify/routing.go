package notify

type routeKey struct {
	kind  EventKind
	actor ActorRole
}

// routes maps (event, actor) to recipients as pure data. Cancellation
// cross-notifies the counterparty of whoever cancelled; admin-initiated
// cancellations notify both sides.
var routes = map[routeKey][]Audience{
	{EventCreated, ActorPatient}:  {AudiencePatient, AudienceProvider},
	{EventCreated, ActorProvider}: {AudiencePatient, AudienceProvider},
	{EventCreated, ActorAdmin}:    {AudiencePatient, AudienceProvider},
	{EventCreated, ActorSystem}:   {AudiencePatient, AudienceProvider},

	{EventCancelled, ActorPatient}:  {AudienceProvider},
	{EventCancelled, ActorProvider}: {AudiencePatient},
	{EventCancelled, ActorAdmin}:    {AudiencePatient, AudienceProvider},

	{EventRejected, ActorProvider}: {AudiencePatient},
	{EventRejected, ActorAdmin}:    {AudiencePatient},

	{EventReminder24h, ActorSystem}: {AudiencePatient},
	{EventReminder1h, ActorSystem}:  {AudiencePatient},
}

// Recipients resolves the audience set for an event.
func Recipients(e Event) []Audience {
	if e.Kind == EventCustom {
		return e.CustomAudiences
	}
	return routes[routeKey{e.Kind, e.Actor}]
}
