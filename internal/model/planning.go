package model

import "time"

// PlanningApplicationStatus is the normalized status of a planning application,
// the output of the status-normalization decision engine (see internal/classify
// and the Non-goals note on raw-status passthrough).
type PlanningApplicationStatus string

const (
	PlanningPending     PlanningApplicationStatus = "pending"
	PlanningUnderReview PlanningApplicationStatus = "under_review"
	PlanningApproved    PlanningApplicationStatus = "approved"
	PlanningRejected    PlanningApplicationStatus = "rejected"
	PlanningWithdrawn   PlanningApplicationStatus = "withdrawn"
)

// Coordinates is a simple lat/lon pair, omitted entirely when unknown.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlanningApplication is a single planning case extracted from a council's
// planning register or an individual case page.
type PlanningApplication struct {
	Reference           string                    `json:"reference"`
	Address             string                    `json:"address"`
	Proposal            string                    `json:"proposal"`
	Status              PlanningApplicationStatus `json:"status"`
	ReceivedDate        time.Time                 `json:"received_date"`
	DecisionDate        *time.Time                `json:"decision_date,omitempty"`
	ApplicantName       string                    `json:"applicant_name,omitempty"`
	Coordinates         *Coordinates              `json:"coordinates,omitempty"`
	DocumentURLs        []string                  `json:"document_urls,omitempty"`
	SourceURL           string                    `json:"source_url"`
	CaseOfficer         string                    `json:"case_officer,omitempty"`
	ConsultationEndDate *time.Time                `json:"consultation_end_date,omitempty"`
	DevelopmentType     string                    `json:"development_type,omitempty"`
	Parish              string                    `json:"parish,omitempty"`
}
