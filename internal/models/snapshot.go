package models

import "time"

// Snapshot is one fetch session: the accounts and findings retrieved together
// with a bearer token. Aggregates are always recomputed from the snapshot; it
// has no lifecycle beyond fetched, displayed, discarded.
type Snapshot struct {
	ID        string    `json:"id"`
	FetchedAt time.Time `json:"fetched_at"`
	Accounts  []Account `json:"accounts"`
	Findings  []Finding `json:"findings"`

	// PermissionDenied records that the findings call returned 403 and the
	// findings list is empty for that reason, not because none exist.
	PermissionDenied bool `json:"permission_denied,omitempty"`
}

// SnapshotMetadata is the sidecar written next to the accounts and findings
// files so snapshots can be listed without loading everything.
type SnapshotMetadata struct {
	ID               string    `json:"id"`
	FetchedAt        time.Time `json:"fetched_at"`
	AccountCount     int       `json:"account_count"`
	FindingCount     int       `json:"finding_count"`
	PermissionDenied bool      `json:"permission_denied,omitempty"`
}

// Metadata derives the sidecar record from a snapshot.
func (s *Snapshot) Metadata() SnapshotMetadata {
	return SnapshotMetadata{
		ID:               s.ID,
		FetchedAt:        s.FetchedAt,
		AccountCount:     len(s.Accounts),
		FindingCount:     len(s.Findings),
		PermissionDenied: s.PermissionDenied,
	}
}
