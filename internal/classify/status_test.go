package classify_test

import (
	"testing"

	"github.com/boltoncivic/crawlctl/internal/classify"
	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePlanningStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want model.PlanningApplicationStatus
	}{
		{"Granted", model.PlanningApproved},
		{"APPROVED", model.PlanningApproved},
		{"Refused", model.PlanningRejected},
		{"Rejected", model.PlanningRejected},
		{"Withdrawn by applicant", model.PlanningWithdrawn},
		{"Under Review", model.PlanningUnderReview},
		{"Pending Consideration", model.PlanningUnderReview},
		{"Registered", model.PlanningPending},
		{"", model.PlanningPending},
	}
	for _, c := range cases {
		got := classify.NormalizePlanningStatus(c.raw)
		assert.Equal(t, c.want, got, c.raw)
	}
}

func TestNormalizePlanningStatus_GrantedBeatsReviewWhenBothPresent(t *testing.T) {
	got := classify.NormalizePlanningStatus("Granted after review")
	assert.Equal(t, model.PlanningApproved, got)
}
