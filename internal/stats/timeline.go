package stats

import (
	"sort"
	"time"

	"github.com/joshsymonds/beacon/internal/models"
)

// TrendWindow is the number of hourly buckets averaged for the priority
// trend.
const TrendWindow = 24

// Point is a bucketed finding count at a moment in time.
type Point struct {
	When  time.Time `json:"when"`
	Count int       `json:"count"`
}

// Series holds the bucketed counts for one priority, oldest first. Only
// buckets with at least one finding appear.
type Series struct {
	Priority models.Priority `json:"priority"`
	Label    string          `json:"label"`
	Points   []Point         `json:"points"`
}

// TrendPoint is a smoothed value at a moment in time.
type TrendPoint struct {
	When  time.Time `json:"when"`
	Value float64   `json:"value"`
}

// TrendSeries holds the rolling-average values for one priority.
type TrendSeries struct {
	Priority models.Priority `json:"priority"`
	Label    string          `json:"label"`
	Points   []TrendPoint    `json:"points"`
}

// Daily buckets findings per UTC day, split by priority. Findings with a
// missing created timestamp are skipped.
func Daily(findings []models.Finding) []Series {
	return bucket(findings, func(t time.Time) time.Time {
		return t.UTC().Truncate(24 * time.Hour)
	})
}

// Hourly buckets findings per hour, split by priority.
func Hourly(findings []models.Finding) []Series {
	return bucket(findings, func(t time.Time) time.Time {
		return t.UTC().Truncate(time.Hour)
	})
}

// RollingAverage smooths a series with a trailing mean over up to window
// points. The first values average over however many points exist so far, so
// a series is never shorter than its input.
func RollingAverage(s Series, window int) TrendSeries {
	if window < 1 {
		window = 1
	}

	out := TrendSeries{
		Priority: s.Priority,
		Label:    s.Label,
		Points:   make([]TrendPoint, 0, len(s.Points)),
	}

	var sum float64
	for i, p := range s.Points {
		sum += float64(p.Count)
		if i >= window {
			sum -= float64(s.Points[i-window].Count)
		}
		n := i + 1
		if n > window {
			n = window
		}
		out.Points = append(out.Points, TrendPoint{When: p.When, Value: sum / float64(n)})
	}
	return out
}

// PriorityTrend computes the hourly rolling average of finding counts for
// each priority present.
func PriorityTrend(findings []models.Finding, window int) []TrendSeries {
	hourly := Hourly(findings)
	out := make([]TrendSeries, 0, len(hourly))
	for _, s := range hourly {
		out = append(out, RollingAverage(s, window))
	}
	return out
}

func bucket(findings []models.Finding, truncate func(time.Time) time.Time) []Series {
	type bucketKey struct {
		when     time.Time
		priority models.Priority
	}

	counts := make(map[bucketKey]int)
	for i := range findings {
		f := &findings[i]
		if f.Created.IsZero() {
			continue
		}
		counts[bucketKey{when: truncate(f.Created.Time), priority: f.Priority}]++
	}

	byPriority := make(map[models.Priority][]Point)
	for k, c := range counts {
		byPriority[k.priority] = append(byPriority[k.priority], Point{When: k.when, Count: c})
	}

	priorities := make([]models.Priority, 0, len(byPriority))
	for p := range byPriority {
		priorities = append(priorities, p)
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })

	out := make([]Series, 0, len(priorities))
	for _, p := range priorities {
		points := byPriority[p]
		sort.Slice(points, func(i, j int) bool { return points[i].When.Before(points[j].When) })
		out = append(out, Series{Priority: p, Label: p.Format(), Points: points})
	}
	return out
}
