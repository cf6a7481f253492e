// Package pdfextract pulls structured content out of council PDF
// documents. Mode is chosen by filename/URL keyword: agenda and minutes
// documents get dedicated structured extraction, everything else falls
// back to a weaker, signal-only general scan.
//
// rsc.io/pdf's page.Content().Text yields text fragments in reading order
// but with no reliable line-break information once flattened to a string,
// so every heading/paragraph boundary below is detected by scanning for
// the next keyword or numbered-heading token rather than by line anchors.
package pdfextract

import "github.com/boltoncivic/crawlctl/internal/model"

// Mode is which of the three spec §4.8.2 extraction strategies applies.
type Mode string

const (
	ModeAgenda  Mode = "agenda"
	ModeMinutes Mode = "minutes"
	ModeGeneral Mode = "general"
)

// GeneralFinding is one weak, unstructured signal pulled from a PDF that
// didn't match the agenda/minutes filename convention: a financial amount,
// an agenda-like numbered heading, or a decision keyword, each with its
// surrounding text for human review.
type GeneralFinding struct {
	Kind       string `json:"kind"`
	Text       string `json:"text"`
	Context    string `json:"context"`
	Confidence model.ConfidenceLevel `json:"confidence"`
}

// Result is everything Extract produces from one PDF. Exactly one of
// Agenda/Minutes is set in agenda/minutes mode; Findings is only populated
// in general mode.
type Result struct {
	Mode     Mode
	Agenda   *model.AgendaDocument
	Minutes  *model.MinutesDocument
	Findings []GeneralFinding
}
