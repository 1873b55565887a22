package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/beacon/internal/models"
)

var now = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

func sample() []models.Finding {
	mk := func(id, org, status, typeName string, p models.Priority, age time.Duration) models.Finding {
		return models.Finding{
			FindingID:  id,
			OrgName:    org,
			StatusName: status,
			TypeName:   typeName,
			Priority:   p,
			Created:    models.NewTime(now.Add(-age)),
		}
	}
	return []models.Finding{
		mk("f-1", "Acme", "Open", "Threat", models.PriorityCritical, 2*time.Hour),
		mk("f-2", "Acme", "Resolved", "Suspect", models.PriorityMedium, 48*time.Hour),
		mk("f-3", "Globex", "Open", "Threat", models.PriorityHigh, 24*time.Hour),
		mk("f-4", "Globex", "Closed", "Operational", models.PriorityInfo, 10*24*time.Hour),
		mk("f-5", "Initech", "Open", "Threat", models.PriorityCritical, time.Hour),
	}
}

func ids(findings []models.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.FindingID)
	}
	return out
}

func TestApplyZeroFilterCopiesAll(t *testing.T) {
	findings := sample()
	got := Filter{}.Apply(findings)

	assert.Equal(t, ids(findings), ids(got))
	// A copy, not an alias.
	got[0].FindingID = "mutated"
	assert.Equal(t, "f-1", findings[0].FindingID)
}

func TestApplyCombinedFilters(t *testing.T) {
	got := Filter{
		Orgs:       []string{"Acme", "Globex"},
		Statuses:   []string{"Open"},
		Priorities: []models.Priority{models.PriorityCritical, models.PriorityHigh},
	}.Apply(sample())

	assert.Equal(t, []string{"f-1", "f-3"}, ids(got))
}

func TestApplySince(t *testing.T) {
	got := Filter{Since: now.Add(-25 * time.Hour)}.Apply(sample())
	assert.Equal(t, []string{"f-1", "f-3", "f-5"}, ids(got))

	// Missing created never matches a since filter.
	withMissing := append(sample(), models.Finding{FindingID: "f-6"})
	got = Filter{Since: now.Add(-25 * time.Hour)}.Apply(withMissing)
	assert.NotContains(t, ids(got), "f-6")
}

func TestDistinctOptions(t *testing.T) {
	findings := sample()

	assert.Equal(t, []string{"Acme", "Globex", "Initech"}, Organizations(findings))
	assert.Equal(t, []string{"Closed", "Open", "Resolved"}, Statuses(findings))
	assert.Equal(t, []string{"Operational", "Suspect", "Threat"}, Types(findings))
	assert.Equal(t, []models.Priority{
		models.PriorityCritical,
		models.PriorityHigh,
		models.PriorityMedium,
		models.PriorityInfo,
	}, Priorities(findings))
}

func TestCritical(t *testing.T) {
	got := Critical(sample())
	// Newest first.
	assert.Equal(t, []string{"f-5", "f-1"}, ids(got))
}

func TestRecent(t *testing.T) {
	got := Recent(sample(), now, 7*24*time.Hour)

	require.Len(t, got, 4, "the ten-day-old finding is out of the window")
	// Priority ascending, then newest first.
	assert.Equal(t, []string{"f-5", "f-1", "f-3", "f-2"}, ids(got))
}
