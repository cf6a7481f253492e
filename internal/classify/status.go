package classify

import (
	"strings"

	"github.com/boltoncivic/crawlctl/internal/model"
)

// statusRule pairs a normalized status with the substrings of a raw status
// string that map to it. Order matters for the same reason as categoryRule:
// "under review"-shaped text must be checked before the catch-all pending
// default, and granted/refused must be checked before the generic fallback.
var statusRules = []struct {
	status   model.PlanningApplicationStatus
	keywords []string
}{
	{model.PlanningApproved, []string{"granted", "approved"}},
	{model.PlanningRejected, []string{"refused", "rejected"}},
	{model.PlanningWithdrawn, []string{"withdrawn"}},
	{model.PlanningUnderReview, []string{"review", "consideration"}},
}

// NormalizePlanningStatus maps a council's free-text planning status string
// onto the closed PlanningApplicationStatus enumeration, per the external
// interface's normalization rules: granted/approved -> approved,
// refused/rejected -> rejected, withdrawn -> withdrawn, anything mentioning
// review or consideration -> under_review, everything else -> pending.
func NormalizePlanningStatus(raw string) model.PlanningApplicationStatus {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, rule := range statusRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.status
			}
		}
	}
	return model.PlanningPending
}
