// Package quality computes a deterministic, pure multi-criterion
// QualityScore for a crawled HTML page. It never performs I/O: every signal
// it needs (outbound link counts, whether a data file was cited) is
// computed upstream by the Link Extractor and passed in.
package quality

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/microcosm-cc/bluemonday"
)

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	// UK phone numbers: optional +44/0 prefix, then 9-10 digits with
	// optional spaces/hyphens — deliberately loose, this is a quality
	// signal, not a validator.
	ukPhoneRegex = regexp.MustCompile(`(?:(?:\+44\s?|0)(?:\d[\s-]?){9,10})`)
	dateCandidateRegex = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}\b`)
	sectioningTags  = []string{"section", "article", "nav", "main", "header", "footer"}
)

// ScoreParams is everything Score needs besides the raw body.
type ScoreParams struct {
	// Category is the page's assigned category; "meetings" pages get a
	// bonus for citing an agenda/minutes file.
	Category string
	Body     []byte
	// SameDomainLinkCount is how many outbound links the Link Extractor
	// resolved to the same government domain.
	SameDomainLinkCount int
	// HasDataFileLink reports whether at least one outbound link points
	// at a data file (CSV/PDF/Excel/text).
	HasDataFileLink bool
	// CitesAgendaOrMinutes reports whether this page links to an agenda
	// or minutes document; only meaningful for category "meetings".
	CitesAgendaOrMinutes bool
	// Now overrides the freshness reference time for tests; the zero
	// value means time.Now().
	Now time.Time
}

// Score computes a QualityScore from raw HTML and category context. It is
// pure: the same ScoreParams always produce the same QualityScore.
func Score(params ScoreParams) model.QualityScore {
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}

	doc, _ := goquery.NewDocumentFromReader(bytes.NewReader(params.Body))
	plainText := sanitizeToText(params.Body)

	contentScore := contentScore(doc, plainText)
	structureScore := structureScore(doc)
	contactScore := contactScore(plainText)
	freshnessScore := freshnessScore(plainText, now)
	citationScore := citationScore(params.SameDomainLinkCount, params.HasDataFileLink)

	overall := contentScore + structureScore + contactScore + freshnessScore + citationScore

	if params.Category == "meetings" && params.CitesAgendaOrMinutes {
		overall += 5
	}
	if overall > 100 {
		overall = 100
	}
	if overall < 0 {
		overall = 0
	}

	return model.QualityScore{
		OverallScore:   overall,
		ContentScore:   contentScore,
		StructureScore: structureScore,
		ContactScore:   contactScore,
		Components: map[string]int{
			"freshness": freshnessScore,
			"citation":  citationScore,
		},
		Tier: model.TierFor(overall),
	}
}

func sanitizeToText(body []byte) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(string(body)))
}

func contentScore(doc *goquery.Document, plainText string) int {
	if doc == nil {
		return 0
	}

	wordCount := 0
	if plainText != "" {
		wordCount = len(strings.Fields(plainText))
	}

	score := wordCountBucket(wordCount)

	hasH1 := doc.Find("h1").Length() > 0
	maxLevel := maxHeadingLevel(doc)
	if hasH1 && maxLevel > 0 && maxLevel <= 3 {
		score += 10
	}

	if score > 40 {
		score = 40
	}
	return score
}

func wordCountBucket(wordCount int) int {
	switch {
	case wordCount >= 1000:
		return 30
	case wordCount >= 300:
		return 20
	case wordCount >= 100:
		return 10
	default:
		return 0
	}
}

func maxHeadingLevel(doc *goquery.Document) int {
	max := 0
	for level := 1; level <= 6; level++ {
		tag := "h" + string(rune('0'+level))
		if doc.Find(tag).Length() > 0 {
			max = level
		}
	}
	return max
}

func structureScore(doc *goquery.Document) int {
	if doc == nil {
		return 0
	}
	score := 0
	if doc.Find("table").Length() > 0 {
		score += 10
	}
	if doc.Find("ul, ol").Length() > 0 {
		score += 5
	}
	for _, tag := range sectioningTags {
		if doc.Find(tag).Length() > 0 {
			score += 10
			break
		}
	}
	return score
}

func contactScore(plainText string) int {
	score := 0
	if emailRegex.MatchString(plainText) {
		score += 7
	}
	if ukPhoneRegex.MatchString(plainText) {
		score += 8
	}
	return score
}

func freshnessScore(plainText string, now time.Time) int {
	best := 0
	for _, candidate := range dateCandidateRegex.FindAllString(plainText, -1) {
		parsed, err := dateparse.ParseAny(candidate)
		if err != nil {
			continue
		}
		age := now.Sub(parsed)
		if age < 0 {
			age = -age
		}
		switch {
		case age <= 2*365*24*time.Hour:
			return 10
		case age <= 5*365*24*time.Hour:
			if best < 5 {
				best = 5
			}
		}
	}
	return best
}

func citationScore(sameDomainLinkCount int, hasDataFileLink bool) int {
	score := 0
	if sameDomainLinkCount >= 3 {
		score += 5
	}
	if hasDataFileLink {
		score += 5
	}
	return score
}
