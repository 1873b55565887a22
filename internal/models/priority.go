package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Priority is the ordinal severity of a finding: 1 (critical) to 5
// (informational). The zero value means the API did not supply one.
type Priority int

// Priority levels as constants for type safety and consistency.
const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
	PriorityInfo     Priority = 5
)

// ValidPriorities returns all known priority levels in ascending order.
func ValidPriorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PriorityInfo}
}

// IsValid reports whether the priority is one of the known levels.
func (p Priority) IsValid() bool {
	return p >= PriorityCritical && p <= PriorityInfo
}

// Label returns the display name for the priority.
func (p Priority) Label() string {
	switch p {
	case PriorityCritical:
		return "Critical"
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	case PriorityInfo:
		return "Info"
	default:
		return fmt.Sprintf("Priority %d", int(p))
	}
}

// Icon returns the indicator used next to the label.
func (p Priority) Icon() string {
	switch p {
	case PriorityCritical:
		return "🔴"
	case PriorityHigh:
		return "🟠"
	case PriorityMedium:
		return "🟡"
	case PriorityLow:
		return "🟢"
	case PriorityInfo:
		return "⚪"
	default:
		return ""
	}
}

// Format returns the icon and label together, e.g. "🔴 Critical". Unknown
// values fall back to the plain label.
func (p Priority) Format() string {
	icon := p.Icon()
	if icon == "" {
		return p.Label()
	}
	return icon + " " + p.Label()
}

// UnmarshalJSON accepts both numeric and quoted priority values. Anything
// unparseable decodes to zero rather than failing the whole payload.
func (p *Priority) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		*p = 0
		return nil
	}
	*p = Priority(n)
	return nil
}

// MarshalJSON encodes the priority as its numeric value.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(p))
}
