package availability

import "time"

// TimeSlot is one bookable window for a provider. Boundaries are absolute
// UTC instants; timezone conversion is a presentation concern.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}
