// Package models contains data structures for beacon accounts, findings, and
// snapshots.
package models

import (
	"fmt"
)

// Account represents a managed MSP account.
type Account struct {
	OrgID     string `json:"org_id"`
	Name      string `json:"name"`
	Created   Time   `json:"created,omitempty"`
	LicenseID string `json:"license_id,omitempty"`
}

// Finding is a single detected security event as returned by the findings
// API. Findings are immutable snapshots; beacon never mutates them after
// fetch.
type Finding struct {
	FindingID      string   `json:"finding_id"`
	OrgID          string   `json:"org_id"`
	OrgName        string   `json:"org_name"`
	Name           string   `json:"name"`
	Priority       Priority `json:"priority"`
	StatusName     string   `json:"status_name"`
	TypeName       string   `json:"type_name"`
	ResolutionName string   `json:"resolution_name,omitempty"`
	Created        Time     `json:"created"`
	Modified       Time     `json:"modified"`
}

// IsOpen reports whether the finding is still open.
func (f *Finding) IsOpen() bool {
	return f.StatusName == StatusOpen
}

// Resolved reports whether the finding carries a resolution.
func (f *Finding) Resolved() bool {
	return f.ResolutionName != ""
}

// TimeToClose returns the elapsed hours between creation and last
// modification. The second return is false for open findings and for findings
// with missing timestamps, which are excluded from close-time statistics.
func (f *Finding) TimeToClose() (float64, bool) {
	if f.IsOpen() {
		return 0, false
	}
	if f.Created.IsZero() || f.Modified.IsZero() {
		return 0, false
	}
	return f.Modified.Sub(f.Created.Time).Hours(), true
}

// URL returns the click-through link for the finding in the vendor app.
func (f *Finding) URL(appBaseURL string) string {
	return fmt.Sprintf("%s/%s/reporting/findings/%s", appBaseURL, f.OrgID, f.FindingID)
}
