package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/beacon/internal/models"
)

var testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

func finding(priority models.Priority, status, typeName, org, resolution string, created time.Time, closeAfter time.Duration) models.Finding {
	return models.Finding{
		FindingID:      "f",
		OrgName:        org,
		Priority:       priority,
		StatusName:     status,
		TypeName:       typeName,
		ResolutionName: resolution,
		Created:        models.NewTime(created),
		Modified:       models.NewTime(created.Add(closeAfter)),
	}
}

func sampleFindings() []models.Finding {
	base := testNow.Add(-48 * time.Hour)
	return []models.Finding{
		finding(models.PriorityCritical, "Open", "Threat", "Acme", "", base, time.Hour),
		finding(models.PriorityCritical, "Resolved", "Threat", "Acme", "Valid", base, 10*time.Hour),
		finding(models.PriorityMedium, "Resolved", "Suspect", "Globex", "False Positive", base.Add(time.Hour), 20*time.Hour),
		finding(models.PriorityInfo, "Closed", "Operational", "Globex", "Valid", base.Add(2*time.Hour), 30*time.Hour),
		finding(models.PriorityHigh, "Open", "Threat", "Initech", "", testNow.Add(-30*24*time.Hour), time.Hour),
	}
}

func TestComputeKeyMetrics(t *testing.T) {
	s := Compute(sampleFindings(), testNow)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Open)
	assert.Equal(t, 2, s.Critical)
	assert.Equal(t, 4, s.Recent, "the month-old finding is not recent")
}

func TestComputeIsIdempotent(t *testing.T) {
	findings := sampleFindings()
	first := Compute(findings, testNow)
	second := Compute(findings, testNow)
	assert.Equal(t, first, second)
}

func TestComputeEmptyCollection(t *testing.T) {
	s := Compute(nil, testNow)

	assert.Zero(t, s.Total)
	assert.Zero(t, s.Open)
	assert.Zero(t, s.Critical)
	assert.Zero(t, s.Recent)
	assert.Zero(t, s.CloseTime.Mean)
	assert.Zero(t, s.CloseTime.Median)
	assert.Zero(t, s.CloseTime.Max)
	assert.Zero(t, s.Resolutions.TotalResolved)
	assert.Empty(t, s.ThreatTypes)
	assert.Empty(t, s.PriorityDist)
	assert.Empty(t, s.OrgFindings)
}

func TestSummarizeCloseTime(t *testing.T) {
	s := SummarizeCloseTime(sampleFindings())

	// Closed findings took 10, 20, and 30 hours; open ones are excluded.
	assert.InDelta(t, 20.0, s.Mean, 0.001)
	assert.InDelta(t, 20.0, s.Median, 0.001)
	assert.InDelta(t, 30.0, s.Max, 0.001)
}

func TestSummarizeCloseTimeEvenCount(t *testing.T) {
	base := testNow.Add(-24 * time.Hour)
	findings := []models.Finding{
		finding(models.PriorityLow, "Resolved", "T", "O", "", base, 10*time.Hour),
		finding(models.PriorityLow, "Resolved", "T", "O", "", base, 30*time.Hour),
	}

	s := SummarizeCloseTime(findings)
	assert.InDelta(t, 20.0, s.Median, 0.001, "even counts take the midpoint average")
}

func TestSummarizeCloseTimeNoClosedFindings(t *testing.T) {
	base := testNow.Add(-24 * time.Hour)
	findings := []models.Finding{
		finding(models.PriorityCritical, "Open", "T", "O", "", base, time.Hour),
		finding(models.PriorityHigh, "Open", "T", "O", "", base, time.Hour),
	}

	s := SummarizeCloseTime(findings)
	assert.Zero(t, s.Mean, "zero, never NaN")
	assert.Zero(t, s.Median)
	assert.Zero(t, s.Max)
}

func TestCountResolutions(t *testing.T) {
	r := CountResolutions(sampleFindings())

	assert.Equal(t, 1, r.FalsePositives)
	assert.Equal(t, 2, r.ValidFindings)
	assert.Equal(t, 3, r.TotalResolved)

	sum := 0
	for _, c := range r.ByName {
		sum += c
	}
	assert.Equal(t, r.TotalResolved, sum, "per-name counts sum to total resolved")
}

func TestCountResolutionsAbsentField(t *testing.T) {
	base := testNow.Add(-24 * time.Hour)
	findings := []models.Finding{
		finding(models.PriorityCritical, "Open", "T", "O", "", base, time.Hour),
	}

	r := CountResolutions(findings)
	assert.Zero(t, r.FalsePositives, "explicit zero defaults when no resolutions exist")
	assert.Zero(t, r.ValidFindings)
	assert.Zero(t, r.TotalResolved)
}

func TestCountByPriorityOrderedAscending(t *testing.T) {
	dist := CountByPriority(sampleFindings())

	require.Len(t, dist, 4)
	got := make([]models.Priority, 0, len(dist))
	for _, pc := range dist {
		got = append(got, pc.Priority)
	}
	assert.Equal(t, []models.Priority{
		models.PriorityCritical,
		models.PriorityHigh,
		models.PriorityMedium,
		models.PriorityInfo,
	}, got, "keys are exactly the distinct priorities present, ascending by value")

	assert.Equal(t, 2, dist[0].Count)
	assert.Equal(t, "🔴 Critical", dist[0].Label)
}

func TestCountByTypeOrderedByCount(t *testing.T) {
	types := CountByType(sampleFindings())

	require.NotEmpty(t, types)
	assert.Equal(t, CountItem{Name: "Threat", Count: 3}, types[0])
	for i := 1; i < len(types); i++ {
		assert.LessOrEqual(t, types[i].Count, types[i-1].Count)
	}
}

func TestCountByOrg(t *testing.T) {
	orgs := CountByOrg(sampleFindings())

	require.Len(t, orgs, 3)
	assert.Equal(t, "Acme", orgs[0].Name)
	assert.Equal(t, 2, orgs[0].Count)
}
