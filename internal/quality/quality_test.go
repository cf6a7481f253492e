package quality_test

import (
	"strings"
	"testing"
	"time"

	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/internal/quality"
	"github.com/stretchr/testify/assert"
)

func longParagraph(words int) string {
	return strings.Repeat("council ", words)
}

func TestScore_ThinPageScoresPoor(t *testing.T) {
	body := []byte(`<html><body><p>short page</p></body></html>`)
	got := quality.Score(quality.ScoreParams{Body: body})
	assert.Equal(t, model.TierPoor, got.Tier)
	assert.Less(t, got.OverallScore, 40)
}

func TestScore_RichPageScoresExcellent(t *testing.T) {
	body := []byte(`<html><body>
		<h1>Planning Committee Minutes</h1>
		<h2>Attendees</h2>
		<main>
		<p>` + longParagraph(1200) + `</p>
		<table><tr><td>Item</td></tr></table>
		<ul><li>Agreed the budget</li></ul>
		</main>
		<p>Contact the clerk at clerk@bolton.gov.uk or 01204 333333.</p>
		<p>Published 1 January 2026.</p>
		</body></html>`)

	got := quality.Score(quality.ScoreParams{
		Body:                body,
		SameDomainLinkCount: 4,
		HasDataFileLink:     true,
		Now:                 time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, 40, got.ContentScore)
	assert.Equal(t, 25, got.StructureScore)
	assert.Equal(t, 15, got.ContactScore)
	assert.Equal(t, 10, got.Components["freshness"])
	assert.Equal(t, 10, got.Components["citation"])
	assert.Equal(t, 100, got.OverallScore)
	assert.Equal(t, model.TierExcellent, got.Tier)
}

func TestScore_MeetingsBonusAppliesOnlyToMeetingsCategory(t *testing.T) {
	body := []byte(`<html><body><h1>Minutes</h1><p>` + longParagraph(50) + `</p></body></html>`)

	withBonus := quality.Score(quality.ScoreParams{
		Body:                 body,
		Category:             "meetings",
		CitesAgendaOrMinutes: true,
	})
	withoutCategory := quality.Score(quality.ScoreParams{
		Body:                 body,
		Category:             "planning",
		CitesAgendaOrMinutes: true,
	})

	assert.Equal(t, withoutCategory.OverallScore+5, withBonus.OverallScore)
}

func TestScore_OutlineBonusRequiresShallowHeadingDepth(t *testing.T) {
	shallow := []byte(`<html><body><h1>Title</h1><h2>Section</h2><p>` + longParagraph(150) + `</p></body></html>`)
	deep := []byte(`<html><body><h1>Title</h1><h2>Section</h2><h3>Sub</h3><h4>Too deep</h4><p>` + longParagraph(150) + `</p></body></html>`)

	shallowScore := quality.Score(quality.ScoreParams{Body: shallow})
	deepScore := quality.Score(quality.ScoreParams{Body: deep})

	assert.Equal(t, shallowScore.ContentScore, deepScore.ContentScore+10)
}

func TestScore_NoContactInfoScoresZeroContact(t *testing.T) {
	body := []byte(`<html><body><h1>Title</h1><p>no contact details here</p></body></html>`)
	got := quality.Score(quality.ScoreParams{Body: body})
	assert.Equal(t, 0, got.ContactScore)
}

func TestScore_StaleDateScoresLowFreshness(t *testing.T) {
	body := []byte(`<html><body><p>Published 1 January 2010.</p></body></html>`)
	got := quality.Score(quality.ScoreParams{
		Body: body,
		Now:  time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, 0, got.Components["freshness"])
}

func TestScore_IsDeterministic(t *testing.T) {
	body := []byte(`<html><body><h1>Title</h1><p>` + longParagraph(400) + `</p><table></table></body></html>`)
	params := quality.ScoreParams{Body: body, SameDomainLinkCount: 3}

	first := quality.Score(params)
	second := quality.Score(params)
	assert.Equal(t, first, second)
}
