package classify_test

import (
	"testing"

	"github.com/boltoncivic/crawlctl/internal/classify"
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestClassify_ByContentType(t *testing.T) {
	cases := []struct {
		contentType string
		want        model.ResourceKind
	}{
		{"text/html; charset=utf-8", model.ResourceHTMLPage},
		{"application/pdf", model.ResourcePDF},
		{"text/csv", model.ResourceCSV},
		{"application/vnd.ms-excel", model.ResourceExcel},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", model.ResourceExcel},
		{"text/plain", model.ResourceText},
	}
	for _, c := range cases {
		got := classify.Classify(model.FetchResult{ContentType: c.contentType})
		assert.Equal(t, c.want, got, c.contentType)
	}
}

func TestClassify_FallsBackToURLSuffix(t *testing.T) {
	result := model.FetchResult{
		URL:      "https://www.bolton.gov.uk/downloads/spend-over-500.csv",
		FinalURL: "https://www.bolton.gov.uk/downloads/spend-over-500.csv",
	}
	assert.Equal(t, model.ResourceCSV, classify.Classify(result))
}

func TestClassify_FallsBackToHTMLSniff(t *testing.T) {
	result := model.FetchResult{
		Body: []byte("<!DOCTYPE html><html><head><title>x</title></head><body></body></html>"),
	}
	assert.Equal(t, model.ResourceHTMLPage, classify.Classify(result))
}

func TestClassify_UnknownIsOther(t *testing.T) {
	result := model.FetchResult{
		ContentType: "application/octet-stream",
		URL:         "https://www.bolton.gov.uk/weird",
		Body:        []byte{0x00, 0x01, 0x02},
	}
	assert.Equal(t, model.ResourceOther, classify.Classify(result))
}

func TestClassify_PrefersContentTypeOverExtension(t *testing.T) {
	result := model.FetchResult{
		ContentType: "application/pdf",
		URL:         "https://www.bolton.gov.uk/report.csv",
	}
	assert.Equal(t, model.ResourcePDF, classify.Classify(result))
}

func TestCategory_PlanningApplicationsBeatsPlanning(t *testing.T) {
	got := classify.Category("/planning/planning-application/12345", "")
	assert.Equal(t, "planning_applications", got)
}

func TestCategory_FromURLPath(t *testing.T) {
	assert.Equal(t, "meetings", classify.Category("/council/meetings/agenda-2026-01", ""))
	assert.Equal(t, "council-tax", classify.Category("/pay/council-tax/bands", ""))
	assert.Equal(t, "transparency", classify.Category("/transparency-and-performance/spending-over-500", ""))
}

func TestCategory_FromLinkTextWhenPathAmbiguous(t *testing.T) {
	got := classify.Category("/downloads/file-42", "Agenda and minutes for January meeting")
	assert.Equal(t, "meetings", got)
}

func TestCategory_NoMatchReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", classify.Category("/about-us", "Contact the council"))
}
