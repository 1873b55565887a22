package stats

import (
	"sort"

	"github.com/joshsymonds/beacon/internal/models"
)

// Crosstab is a two-way frequency table with marginal totals. Row and column
// order is fixed by the constructor so renderers can walk it directly.
type Crosstab struct {
	RowLabels []string `json:"row_labels"`
	ColLabels []string `json:"col_labels"`
	Counts    [][]int  `json:"counts"`
	RowTotals []int    `json:"row_totals"`
	ColTotals []int    `json:"col_totals"`
	Total     int      `json:"total"`
}

// PriorityStatus cross-tabulates findings by priority and status. Rows are
// the priorities present, ascending by priority value; columns are the
// statuses present, sorted by name.
func PriorityStatus(findings []models.Finding) Crosstab {
	rows := priorityLabels(findings)
	cols := distinctSorted(findings, func(f *models.Finding) string { return f.StatusName })
	return tabulate(findings, rows, cols,
		func(f *models.Finding) string { return f.Priority.Format() },
		func(f *models.Finding) string { return f.StatusName })
}

// OrgPriority cross-tabulates findings by organization and priority. Rows are
// organizations sorted by name; columns are the priorities present,
// ascending.
func OrgPriority(findings []models.Finding) Crosstab {
	rows := distinctSorted(findings, func(f *models.Finding) string { return f.OrgName })
	cols := priorityLabels(findings)
	return tabulate(findings, rows, cols,
		func(f *models.Finding) string { return f.OrgName },
		func(f *models.Finding) string { return f.Priority.Format() })
}

// MaxCell returns the largest single count, used to scale heat coloring.
func (ct Crosstab) MaxCell() int {
	maxCount := 0
	for _, row := range ct.Counts {
		for _, c := range row {
			if c > maxCount {
				maxCount = c
			}
		}
	}
	return maxCount
}

func tabulate(findings []models.Finding, rows, cols []string, rowKey, colKey func(*models.Finding) string) Crosstab {
	rowIdx := indexOf(rows)
	colIdx := indexOf(cols)

	ct := Crosstab{
		RowLabels: rows,
		ColLabels: cols,
		Counts:    make([][]int, len(rows)),
		RowTotals: make([]int, len(rows)),
		ColTotals: make([]int, len(cols)),
	}
	for i := range ct.Counts {
		ct.Counts[i] = make([]int, len(cols))
	}

	for i := range findings {
		f := &findings[i]
		r, rok := rowIdx[rowKey(f)]
		c, cok := colIdx[colKey(f)]
		if !rok || !cok {
			continue
		}
		ct.Counts[r][c]++
		ct.RowTotals[r]++
		ct.ColTotals[c]++
		ct.Total++
	}

	return ct
}

// priorityLabels returns the formatted labels of the priorities present,
// ascending by priority value.
func priorityLabels(findings []models.Finding) []string {
	seen := make(map[models.Priority]bool)
	for i := range findings {
		seen[findings[i].Priority] = true
	}

	priorities := make([]models.Priority, 0, len(seen))
	for p := range seen {
		priorities = append(priorities, p)
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })

	labels := make([]string, 0, len(priorities))
	for _, p := range priorities {
		labels = append(labels, p.Format())
	}
	return labels
}

func distinctSorted(findings []models.Finding, key func(*models.Finding) string) []string {
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

func indexOf(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}
