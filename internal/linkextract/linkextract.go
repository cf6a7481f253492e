// Package linkextract walks an HTML page's anchors and turns them into
// FrontierItem candidates: resolving relative hrefs against the page's own
// URL, filtering to allowed domains, tagging a category, and assigning a
// priority tier so data files and categorized pages are dequeued ahead of
// generic HTML.
package linkextract

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/boltoncivic/crawlctl/internal/classify"
	"github.com/boltoncivic/crawlctl/internal/model"
)

// spendingKeywords promote a link to the top priority tier even when its
// extension alone would not, since a spending/expenditure page is usually
// an HTML index page linking to the real data files.
var spendingKeywords = []string{
	"spending", "expenditure", "payment", "supplier", "procurement",
	"budget", "allocation", "£500", "over 500", "invoice", "salary",
}

// AllowedDomain reports whether a host may be added to the Frontier. The
// caller typically passes seedregistry.Registry.IsAllowedDomain.
type AllowedDomain func(host string) bool

// Extract parses pageBody as HTML and returns one FrontierItem per
// in-scope anchor, deduplicated by resolved URL. parentURL is the page the
// anchors were found on; parentCategory is inherited by links that don't
// match a more specific category themselves; depth is parentDepth+1.
func Extract(parentURL string, parentCategory string, depth int, pageBody []byte, allowed AllowedDomain) ([]model.FrontierItem, error) {
	base, err := url.Parse(parentURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(pageBody)))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var items []model.FrontierItem
	now := time.Now()

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		resolved.Fragment = ""
		absolute := resolved.String()

		if seen[absolute] {
			return
		}
		if allowed != nil && !allowed(resolved.Hostname()) {
			return
		}
		seen[absolute] = true

		linkText := strings.TrimSpace(sel.Text())
		category := classify.Category(resolved.Path, linkText)
		if category == "" {
			category = parentCategory
		}

		items = append(items, model.FrontierItem{
			URL:            absolute,
			Depth:          depth,
			Category:       category,
			DiscoveredFrom: parentURL,
			Priority:       priorityFor(absolute, linkText, category),
			EnqueuedAt:     now,
		})
	})

	return items, nil
}

func priorityFor(absoluteURL, linkText, category string) int {
	if classify.IsDataFileExtension(absoluteURL) || matchesSpendingKeyword(linkText) {
		return model.PriorityDataFile
	}
	if category != "" {
		return model.PrioritySeedExt
	}
	return model.PriorityGenericHTML
}

func matchesSpendingKeyword(linkText string) bool {
	lower := strings.ToLower(linkText)
	for _, kw := range spendingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
