package linkextract_test

import (
	"testing"

	"github.com/boltoncivic/crawlctl/internal/linkextract"
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `
<html><body>
<a href="/transparency-and-performance/spending-over-500">Spending over £500</a>
<a href="/downloads/q1-budget.csv">Q1 budget</a>
<a href="https://other.example.org/page">off-domain</a>
<a href="#section">anchor only</a>
<a href="mailto:clerk@bolton.gov.uk">email us</a>
<a href="/about-us">About the council</a>
</body></html>
`

func allowBolton(host string) bool {
	return host == "www.bolton.gov.uk"
}

func TestExtract_FiltersOffDomainAndNonHTTPLinks(t *testing.T) {
	items, err := linkextract.Extract("https://www.bolton.gov.uk/home", "", 1, []byte(page), allowBolton)
	require.NoError(t, err)

	urls := make([]string, 0, len(items))
	for _, it := range items {
		urls = append(urls, it.URL)
	}
	assert.NotContains(t, urls, "https://other.example.org/page")
	assert.NotContains(t, urls, "mailto:clerk@bolton.gov.uk")
	assert.Len(t, items, 3)
}

func TestExtract_PromotesDataFileAndSpendingLinks(t *testing.T) {
	items, err := linkextract.Extract("https://www.bolton.gov.uk/home", "", 1, []byte(page), allowBolton)
	require.NoError(t, err)

	byURL := make(map[string]model.FrontierItem)
	for _, it := range items {
		byURL[it.URL] = it
	}

	spending := byURL["https://www.bolton.gov.uk/transparency-and-performance/spending-over-500"]
	assert.Equal(t, model.PriorityDataFile, spending.Priority)
	assert.Equal(t, "transparency", spending.Category)

	csv := byURL["https://www.bolton.gov.uk/downloads/q1-budget.csv"]
	assert.Equal(t, model.PriorityDataFile, csv.Priority)

	about := byURL["https://www.bolton.gov.uk/about-us"]
	assert.Equal(t, model.PriorityGenericHTML, about.Priority)
	assert.Equal(t, "", about.Category)
}

func TestExtract_InheritsParentCategoryWhenUncategorized(t *testing.T) {
	body := []byte(`<html><body><a href="/random-page">Some page</a></body></html>`)
	items, err := linkextract.Extract("https://www.bolton.gov.uk/meetings/", "meetings", 2, body, allowBolton)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "meetings", items[0].Category)
	assert.Equal(t, model.PrioritySeedExt, items[0].Priority)
	assert.Equal(t, 2, items[0].Depth)
	assert.Equal(t, "https://www.bolton.gov.uk/meetings/", items[0].DiscoveredFrom)
}

func TestExtract_DedupesRepeatedLinks(t *testing.T) {
	body := []byte(`<html><body>
		<a href="/a">first</a>
		<a href="/a">second mention</a>
	</body></html>`)
	items, err := linkextract.Extract("https://www.bolton.gov.uk/", "", 0, body, allowBolton)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestExtract_NoAllowedFilterAcceptsEverything(t *testing.T) {
	items, err := linkextract.Extract("https://www.bolton.gov.uk/home", "", 1, []byte(page), nil)
	require.NoError(t, err)
	assert.Greater(t, len(items), 3)
}
