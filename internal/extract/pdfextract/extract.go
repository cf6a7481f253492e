package pdfextract

import "strings"

// DetectMode chooses an extraction strategy from the PDF's filename or URL,
// per spec §4.8.2: "agenda"/"minutes" in the name selects the matching
// structured mode, anything else falls back to general.
func DetectMode(nameOrURL string) Mode {
	lower := strings.ToLower(nameOrURL)
	switch {
	case strings.Contains(lower, "agenda"):
		return ModeAgenda
	case strings.Contains(lower, "minutes"):
		return ModeMinutes
	default:
		return ModeGeneral
	}
}

// Extract reads a PDF's bytes and dispatches to the mode selected by
// nameOrURL (typically the file's own URL).
func Extract(content []byte, nameOrURL string) (Result, error) {
	pages, err := extractPages(content)
	if err != nil {
		return Result{}, err
	}

	mode := DetectMode(nameOrURL)
	switch mode {
	case ModeAgenda:
		doc := extractAgenda(pages)
		return Result{Mode: mode, Agenda: &doc}, nil
	case ModeMinutes:
		doc := extractMinutes(pages)
		return Result{Mode: mode, Minutes: &doc}, nil
	default:
		return Result{Mode: mode, Findings: extractGeneral(pages)}, nil
	}
}
