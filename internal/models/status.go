package models

// Status names as reported by the findings API. The API sends free-form
// strings; only Open has special meaning (everything else counts as closed).
const (
	StatusOpen = "Open"
)

// Resolution names with dedicated counters in the summary statistics.
const (
	ResolutionFalsePositive = "False Positive"
	ResolutionValid         = "Valid"
)
