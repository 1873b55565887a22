package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/beacon/internal/models"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 30, 0, 0, time.UTC)
}

func createdFinding(p models.Priority, created time.Time) models.Finding {
	return models.Finding{Priority: p, Created: models.NewTime(created), StatusName: "Open"}
}

func TestDaily(t *testing.T) {
	findings := []models.Finding{
		createdFinding(models.PriorityCritical, at(15, 9)),
		createdFinding(models.PriorityCritical, at(15, 17)),
		createdFinding(models.PriorityCritical, at(16, 9)),
		createdFinding(models.PriorityLow, at(15, 9)),
		{Priority: models.PriorityLow, StatusName: "Open"}, // missing created, skipped
	}

	series := Daily(findings)
	require.Len(t, series, 2)

	assert.Equal(t, models.PriorityCritical, series[0].Priority)
	require.Len(t, series[0].Points, 2)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), series[0].Points[0].When)
	assert.Equal(t, 2, series[0].Points[0].Count)
	assert.Equal(t, 1, series[0].Points[1].Count)

	assert.Equal(t, models.PriorityLow, series[1].Priority)
	require.Len(t, series[1].Points, 1)
}

func TestHourly(t *testing.T) {
	findings := []models.Finding{
		createdFinding(models.PriorityHigh, at(15, 9)),
		createdFinding(models.PriorityHigh, time.Date(2024, 1, 15, 9, 55, 0, 0, time.UTC)),
		createdFinding(models.PriorityHigh, at(15, 10)),
	}

	series := Hourly(findings)
	require.Len(t, series, 1)
	require.Len(t, series[0].Points, 2)
	assert.Equal(t, 2, series[0].Points[0].Count)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), series[0].Points[0].When)
}

func TestRollingAverage(t *testing.T) {
	s := Series{Priority: models.PriorityHigh, Label: models.PriorityHigh.Format()}
	base := at(15, 0)
	counts := []int{4, 8, 6, 2}
	for i, c := range counts {
		s.Points = append(s.Points, Point{When: base.Add(time.Duration(i) * time.Hour), Count: c})
	}

	trend := RollingAverage(s, 2)
	require.Len(t, trend.Points, 4)
	// Window of 2, but the first point averages over the single value seen so far.
	assert.InDelta(t, 4.0, trend.Points[0].Value, 0.001)
	assert.InDelta(t, 6.0, trend.Points[1].Value, 0.001)
	assert.InDelta(t, 7.0, trend.Points[2].Value, 0.001)
	assert.InDelta(t, 4.0, trend.Points[3].Value, 0.001)
}

func TestRollingAverageWindowLargerThanSeries(t *testing.T) {
	s := Series{Points: []Point{{Count: 3}, {Count: 5}}}

	trend := RollingAverage(s, TrendWindow)
	require.Len(t, trend.Points, 2)
	assert.InDelta(t, 3.0, trend.Points[0].Value, 0.001)
	assert.InDelta(t, 4.0, trend.Points[1].Value, 0.001)
}

func TestPriorityTrend(t *testing.T) {
	findings := []models.Finding{
		createdFinding(models.PriorityCritical, at(15, 9)),
		createdFinding(models.PriorityInfo, at(15, 9)),
	}

	trend := PriorityTrend(findings, TrendWindow)
	require.Len(t, trend, 2)
	assert.Equal(t, models.PriorityCritical, trend[0].Priority)
	assert.Equal(t, models.PriorityInfo, trend[1].Priority)
}
