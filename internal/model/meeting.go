package model

import "time"

// AgendaItem is one numbered line of a meeting agenda, as located on a
// specific PDF page.
type AgendaItem struct {
	ItemNumber string  `json:"item_number"`
	Title      string  `json:"title"`
	PageNumber int     `json:"page_number"`
	Confidence float64 `json:"confidence"`
}

// AgendaDocument is the structured extraction of a council meeting agenda PDF.
type AgendaDocument struct {
	MeetingTitle string       `json:"meeting_title"`
	MeetingDate  *time.Time   `json:"meeting_date,omitempty"`
	Committee    string       `json:"committee"`
	AgendaItems  []AgendaItem `json:"agenda_items"`
}

// MinutesDecision is a single recorded decision within a minutes document.
type MinutesDecision struct {
	Title      string  `json:"title"`
	PageNumber int     `json:"page_number"`
	Confidence float64 `json:"confidence"`
}

// MinutesDocument is the structured extraction of a council meeting minutes PDF.
type MinutesDocument struct {
	MeetingTitle string            `json:"meeting_title"`
	MeetingDate  *time.Time        `json:"meeting_date,omitempty"`
	Committee    string            `json:"committee"`
	Attendees    []string          `json:"attendees,omitempty"`
	Decisions    []MinutesDecision `json:"decisions"`
	Actions      []string          `json:"actions,omitempty"`
}
