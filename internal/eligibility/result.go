package eligibility

import "time"

// Result is the backend's verdict on whether a patient may book a given
// appointment type. Reasons are non-empty only when ineligible.
type Result struct {
	Eligible         bool       `json:"eligible"`
	Reasons          []string   `json:"reasons,omitempty"`
	NextEligibleDate *time.Time `json:"next_eligible_date,omitempty"`
	LabsCompleted    bool       `json:"labs_completed"`
	VisitRequired    bool       `json:"visit_required"`
	LastVisitDate    *time.Time `json:"last_visit_date,omitempty"`
}
