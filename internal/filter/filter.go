// Package filter narrows findings collections for display. Filters never
// mutate the snapshot; every application returns a fresh slice so the full
// collection stays available for the next interaction.
package filter

import (
	"sort"
	"time"

	"github.com/joshsymonds/beacon/internal/models"
)

// Filter selects a subset of findings. Zero-valued fields match everything.
type Filter struct {
	Orgs       []string
	Priorities []models.Priority
	Statuses   []string
	Types      []string
	Since      time.Time
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return len(f.Orgs) == 0 && len(f.Priorities) == 0 &&
		len(f.Statuses) == 0 && len(f.Types) == 0 && f.Since.IsZero()
}

// Apply returns the findings matching the filter, preserving input order.
func (f Filter) Apply(findings []models.Finding) []models.Finding {
	if f.IsZero() {
		out := make([]models.Finding, len(findings))
		copy(out, findings)
		return out
	}

	out := make([]models.Finding, 0, len(findings))
	for i := range findings {
		if f.matches(&findings[i]) {
			out = append(out, findings[i])
		}
	}
	return out
}

func (f Filter) matches(finding *models.Finding) bool {
	if len(f.Orgs) > 0 && !containsString(f.Orgs, finding.OrgName) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, finding.Priority) {
		return false
	}
	if len(f.Statuses) > 0 && !containsString(f.Statuses, finding.StatusName) {
		return false
	}
	if len(f.Types) > 0 && !containsString(f.Types, finding.TypeName) {
		return false
	}
	if !f.Since.IsZero() {
		if finding.Created.IsZero() || finding.Created.Before(f.Since) {
			return false
		}
	}
	return true
}

// Organizations returns the distinct organization names present, sorted.
func Organizations(findings []models.Finding) []string {
	return distinct(findings, func(f *models.Finding) string { return f.OrgName })
}

// Statuses returns the distinct status names present, sorted.
func Statuses(findings []models.Finding) []string {
	return distinct(findings, func(f *models.Finding) string { return f.StatusName })
}

// Types returns the distinct threat type names present, sorted.
func Types(findings []models.Finding) []string {
	return distinct(findings, func(f *models.Finding) string { return f.TypeName })
}

// Priorities returns the distinct priorities present, ascending.
func Priorities(findings []models.Finding) []models.Priority {
	seen := make(map[models.Priority]bool)
	for i := range findings {
		seen[findings[i].Priority] = true
	}
	out := make([]models.Priority, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortByCreatedDesc orders findings newest first, in place.
func SortByCreatedDesc(findings []models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Created.After(findings[j].Created.Time)
	})
}

// SortByPriorityThenCreated orders findings most severe first, newest first
// within a priority. This is the recent-findings display order.
func SortByPriorityThenCreated(findings []models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Priority != findings[j].Priority {
			return findings[i].Priority < findings[j].Priority
		}
		return findings[i].Created.After(findings[j].Created.Time)
	})
}

// Critical returns the critical findings, newest first.
func Critical(findings []models.Finding) []models.Finding {
	out := Filter{Priorities: []models.Priority{models.PriorityCritical}}.Apply(findings)
	SortByCreatedDesc(out)
	return out
}

// Recent returns findings created within the window ending at now, most
// severe first.
func Recent(findings []models.Finding, now time.Time, window time.Duration) []models.Finding {
	out := Filter{Since: now.Add(-window)}.Apply(findings)
	SortByPriorityThenCreated(out)
	return out
}

func distinct(findings []models.Finding, key func(*models.Finding) string) []string {
	seen := make(map[string]bool)
	for i := range findings {
		if k := key(&findings[i]); k != "" {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsPriority(haystack []models.Priority, needle models.Priority) bool {
	for _, p := range haystack {
		if p == needle {
			return true
		}
	}
	return false
}
