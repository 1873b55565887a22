package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityFormat(t *testing.T) {
	tests := []struct {
		name     string
		priority Priority
		want     string
	}{
		{name: "critical", priority: PriorityCritical, want: "🔴 Critical"},
		{name: "high", priority: PriorityHigh, want: "🟠 High"},
		{name: "medium", priority: PriorityMedium, want: "🟡 Medium"},
		{name: "low", priority: PriorityLow, want: "🟢 Low"},
		{name: "info", priority: PriorityInfo, want: "⚪ Info"},
		{name: "unknown falls back to plain label", priority: Priority(7), want: "Priority 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.priority.Format())
		})
	}
}

func TestPriorityUnmarshalLenient(t *testing.T) {
	var f Finding
	require.NoError(t, json.Unmarshal([]byte(`{"priority": "3"}`), &f))
	assert.Equal(t, PriorityMedium, f.Priority)

	require.NoError(t, json.Unmarshal([]byte(`{"priority": "high"}`), &f))
	assert.Equal(t, Priority(0), f.Priority)
	assert.False(t, f.Priority.IsValid())
}

func TestTimeUnmarshalLayouts(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{name: "rfc3339", raw: `"2024-01-15T10:30:00Z"`, valid: true},
		{name: "no zone", raw: `"2024-01-15T10:30:00"`, valid: true},
		{name: "space separated", raw: `"2024-01-15 10:30:00"`, valid: true},
		{name: "date only", raw: `"2024-01-15"`, valid: true},
		{name: "null", raw: `null`, valid: false},
		{name: "empty", raw: `""`, valid: false},
		{name: "garbage decodes to zero", raw: `"not-a-time"`, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Time
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ts))
			assert.Equal(t, tt.valid, !ts.IsZero())
		})
	}
}

func TestTimeToClose(t *testing.T) {
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	closed := Finding{
		StatusName: "Resolved",
		Created:    NewTime(created),
		Modified:   NewTime(created.Add(36 * time.Hour)),
	}
	hours, ok := closed.TimeToClose()
	require.True(t, ok)
	assert.InDelta(t, 36.0, hours, 0.001)

	open := Finding{
		StatusName: StatusOpen,
		Created:    NewTime(created),
		Modified:   NewTime(created.Add(time.Hour)),
	}
	_, ok = open.TimeToClose()
	assert.False(t, ok, "open findings have no close time")

	missing := Finding{StatusName: "Resolved", Created: NewTime(created)}
	_, ok = missing.TimeToClose()
	assert.False(t, ok, "missing modified timestamp is excluded")
}

func TestFindingURL(t *testing.T) {
	f := Finding{FindingID: "f-123", OrgID: "org-1"}
	assert.Equal(t,
		"https://app.example.com/org-1/reporting/findings/f-123",
		f.URL("https://app.example.com"))
}

func TestSnapshotMetadata(t *testing.T) {
	snap := Snapshot{
		ID:        "snap-1",
		FetchedAt: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		Accounts:  []Account{{OrgID: "org-1", Name: "Acme"}},
		Findings:  []Finding{{FindingID: "f-1"}, {FindingID: "f-2"}},
	}

	meta := snap.Metadata()
	assert.Equal(t, "snap-1", meta.ID)
	assert.Equal(t, 1, meta.AccountCount)
	assert.Equal(t, 2, meta.FindingCount)
	assert.False(t, meta.PermissionDenied)
}
