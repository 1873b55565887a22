// Package stats computes aggregate statistics over findings collections.
//
// Every function here is pure: aggregates are recomputed from the current
// snapshot on each interaction and never cached, so running any of them twice
// on the same input yields identical output. Malformed or missing fields
// count as zero or empty rather than producing errors.
package stats

import (
	"sort"
	"time"

	"github.com/joshsymonds/beacon/internal/models"
)

// RecentWindow is how far back a finding counts as "recent" in the key
// metrics.
const RecentWindow = 7 * 24 * time.Hour

// CountItem is a labeled tally, ordered by whatever produced it.
type CountItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PriorityCount is a tally for one priority level.
type PriorityCount struct {
	Priority models.Priority `json:"priority"`
	Label    string          `json:"label"`
	Count    int             `json:"count"`
}

// Resolutions tallies findings by resolution name. The named counters default
// to zero when no finding carries that resolution.
type Resolutions struct {
	ByName         map[string]int `json:"by_name"`
	FalsePositives int            `json:"false_positives"`
	ValidFindings  int            `json:"valid_findings"`
	TotalResolved  int            `json:"total_resolved"`
}

// CloseTime summarizes time-to-close over closed findings, in hours. All
// three values are zero when no finding is closed; never NaN.
type CloseTime struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// Summary is the full set of aggregate statistics for one findings
// collection.
type Summary struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Critical int `json:"critical"`
	Recent   int `json:"recent"`

	Resolutions Resolutions `json:"resolutions"`
	CloseTime   CloseTime   `json:"close_time"`

	ThreatTypes  []CountItem     `json:"threat_types"`
	PriorityDist []PriorityCount `json:"priority_dist"`
	OrgFindings  []CountItem     `json:"org_findings"`
}

// Compute derives the full summary from a findings collection. The collection
// may be empty, in which case every counter is zero and every list empty.
func Compute(findings []models.Finding, now time.Time) Summary {
	recentCutoff := now.Add(-RecentWindow)

	s := Summary{
		Total:        len(findings),
		Resolutions:  CountResolutions(findings),
		CloseTime:    SummarizeCloseTime(findings),
		ThreatTypes:  CountByType(findings),
		PriorityDist: CountByPriority(findings),
		OrgFindings:  CountByOrg(findings),
	}

	for i := range findings {
		f := &findings[i]
		if f.IsOpen() {
			s.Open++
		}
		if f.Priority == models.PriorityCritical {
			s.Critical++
		}
		if !f.Created.IsZero() && !f.Created.Before(recentCutoff) {
			s.Recent++
		}
	}

	return s
}

// CloseTimes returns the time-to-close in hours for every closed finding.
// Open findings and findings with missing timestamps are excluded.
func CloseTimes(findings []models.Finding) []float64 {
	var hours []float64
	for i := range findings {
		if h, ok := findings[i].TimeToClose(); ok {
			hours = append(hours, h)
		}
	}
	return hours
}

// SummarizeCloseTime computes mean, median, and max time-to-close over closed
// findings only.
func SummarizeCloseTime(findings []models.Finding) CloseTime {
	hours := CloseTimes(findings)
	if len(hours) == 0 {
		return CloseTime{}
	}

	sorted := make([]float64, len(hours))
	copy(sorted, hours)
	sort.Float64s(sorted)

	var sum float64
	for _, h := range sorted {
		sum += h
	}

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return CloseTime{
		Mean:   sum / float64(len(sorted)),
		Median: median,
		Max:    sorted[len(sorted)-1],
	}
}

// CountResolutions tallies findings by resolution name. Findings without a
// resolution are not resolved and do not count.
func CountResolutions(findings []models.Finding) Resolutions {
	r := Resolutions{ByName: make(map[string]int)}
	for i := range findings {
		name := findings[i].ResolutionName
		if name == "" {
			continue
		}
		r.ByName[name]++
		r.TotalResolved++
	}
	r.FalsePositives = r.ByName[models.ResolutionFalsePositive]
	r.ValidFindings = r.ByName[models.ResolutionValid]
	return r
}

// CountByType tallies findings by threat type, most frequent first. Ties
// break on name so the order is stable.
func CountByType(findings []models.Finding) []CountItem {
	return countBy(findings, func(f *models.Finding) string { return f.TypeName })
}

// CountByOrg tallies findings by organization name, most frequent first.
func CountByOrg(findings []models.Finding) []CountItem {
	return countBy(findings, func(f *models.Finding) string { return f.OrgName })
}

// CountByPriority tallies findings by priority, ordered ascending by priority
// value rather than by count. Only priorities actually present appear.
func CountByPriority(findings []models.Finding) []PriorityCount {
	counts := make(map[models.Priority]int)
	for i := range findings {
		counts[findings[i].Priority]++
	}

	priorities := make([]models.Priority, 0, len(counts))
	for p := range counts {
		priorities = append(priorities, p)
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })

	out := make([]PriorityCount, 0, len(priorities))
	for _, p := range priorities {
		out = append(out, PriorityCount{Priority: p, Label: p.Format(), Count: counts[p]})
	}
	return out
}

func countBy(findings []models.Finding, key func(*models.Finding) string) []CountItem {
	counts := make(map[string]int)
	for i := range findings {
		k := key(&findings[i])
		if k == "" {
			continue
		}
		counts[k]++
	}

	out := make([]CountItem, 0, len(counts))
	for name, count := range counts {
		out = append(out, CountItem{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
