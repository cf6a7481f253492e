package classify

import "strings"

// categoryRule pairs a category tag with the keywords that trigger it.
// Order matters: more specific categories are listed before the generic
// ones they would otherwise be swallowed by (e.g. "planning_applications"
// before "planning").
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{"planning_applications", []string{"planning-application", "planningapplication", "pa-application", "application-search"}},
	{"decisions", []string{"decision", "decisions-list", "committee-decision"}},
	{"council-tax", []string{"council-tax", "counciltax"}},
	{"committees", []string{"committee"}},
	{"councillors", []string{"councillor"}},
	{"meetings", []string{"meeting", "agenda", "minutes", "moderngov"}},
	{"housing", []string{"housing"}},
	{"planning", []string{"planning"}},
	{"transparency", []string{"transparency", "spending-over", "foi", "freedom-of-information"}},
	{"services", []string{"service"}},
}

// Category assigns a transparency category tag from a fixed keyword table,
// applied to the candidate URL's path and the anchor text of the link that
// discovered it. The URL is checked first since it is the more stable
// signal; link text is a fallback for ambiguous paths. Returns "" when
// nothing matches, leaving the caller to inherit the parent page's category.
func Category(urlPath, linkText string) string {
	lowerPath := strings.ToLower(urlPath)
	lowerText := strings.ToLower(linkText)

	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowerPath, kw) {
				return rule.category
			}
		}
	}
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowerText, kw) {
				return rule.category
			}
		}
	}
	return ""
}
