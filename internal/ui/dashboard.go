// Package ui provides an interactive terminal dashboard for browsing
// security findings from a saved snapshot.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joshsymonds/beacon/internal/filter"
	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/internal/stats"
)

// Tab identifies one of the dashboard views.
type Tab int

const (
	// TabOverview shows aggregate metrics and distributions.
	TabOverview Tab = iota
	// TabFindings shows the filtered findings table.
	TabFindings
	// TabOrganizations shows per-organization counts.
	TabOrganizations

	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabFindings:
		return "Findings"
	case TabOrganizations:
		return "Organizations"
	default:
		return "Unknown"
	}
}

// Dashboard is the top-level bubbletea model.
type Dashboard struct {
	snapshot   *models.Snapshot
	appBaseURL string
	now        func() time.Time

	tab Tab

	// Filter option lists. Index 0 always means "all".
	orgs       []string
	statuses   []string
	priorities []models.Priority

	orgIdx      int
	statusIdx   int
	priorityIdx int

	filtered []models.Finding
	summary  stats.Summary

	cursor   int
	width    int
	height   int
	quitting bool
}

// NewDashboard creates a dashboard over the given snapshot.
func NewDashboard(snap *models.Snapshot, appBaseURL string) *Dashboard {
	d := &Dashboard{
		snapshot:   snap,
		appBaseURL: appBaseURL,
		now:        time.Now,
		orgs:       filter.Organizations(snap.Findings),
		statuses:   filter.Statuses(snap.Findings),
		priorities: filter.Priorities(snap.Findings),
	}
	d.recompute()
	return d
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			d.quitting = true
			return d, tea.Quit

		case "tab", "right", "l":
			d.tab = (d.tab + 1) % tabCount
			d.cursor = 0
			return d, nil

		case "shift+tab", "left", "h":
			d.tab = (d.tab + tabCount - 1) % tabCount
			d.cursor = 0
			return d, nil

		case "o":
			d.orgIdx = (d.orgIdx + 1) % (len(d.orgs) + 1)
			d.recompute()
			return d, nil

		case "p":
			d.priorityIdx = (d.priorityIdx + 1) % (len(d.priorities) + 1)
			d.recompute()
			return d, nil

		case "s":
			d.statusIdx = (d.statusIdx + 1) % (len(d.statuses) + 1)
			d.recompute()
			return d, nil

		case "r":
			d.orgIdx = 0
			d.statusIdx = 0
			d.priorityIdx = 0
			d.recompute()
			return d, nil

		case "up", "k":
			if d.cursor > 0 {
				d.cursor--
			}
			return d, nil

		case "down", "j":
			if d.cursor < d.maxCursor() {
				d.cursor++
			}
			return d, nil

		case "g", "home":
			d.cursor = 0
			return d, nil

		case "G", "end":
			d.cursor = d.maxCursor()
			return d, nil
		}
	}

	return d, nil
}

// activeFilter builds the filter implied by the current selections.
func (d *Dashboard) activeFilter() filter.Filter {
	var f filter.Filter
	if d.orgIdx > 0 {
		f.Orgs = []string{d.orgs[d.orgIdx-1]}
	}
	if d.statusIdx > 0 {
		f.Statuses = []string{d.statuses[d.statusIdx-1]}
	}
	if d.priorityIdx > 0 {
		f.Priorities = []models.Priority{d.priorities[d.priorityIdx-1]}
	}
	return f
}

func (d *Dashboard) recompute() {
	f := d.activeFilter()
	d.filtered = f.Apply(d.snapshot.Findings)
	filter.SortByPriorityThenCreated(d.filtered)
	d.summary = stats.Compute(d.filtered, d.now())
	if d.cursor > d.maxCursor() {
		d.cursor = d.maxCursor()
	}
}

func (d *Dashboard) maxCursor() int {
	switch d.tab {
	case TabFindings:
		if len(d.filtered) == 0 {
			return 0
		}
		return len(d.filtered) - 1
	case TabOrganizations:
		if len(d.summary.OrgFindings) == 0 {
			return 0
		}
		return len(d.summary.OrgFindings) - 1
	default:
		return 0
	}
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	if d.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Beacon Security Dashboard"))
	b.WriteString("  ")
	b.WriteString(metaStyle.Render(fmt.Sprintf("fetched %s · %d accounts · %d findings",
		d.snapshot.FetchedAt.Format("2006-01-02 15:04"),
		len(d.snapshot.Accounts),
		len(d.snapshot.Findings))))
	b.WriteString("\n")

	if d.snapshot.PermissionDenied {
		b.WriteString(warningStyle.Render("⚠ API credentials lack permission to fetch findings"))
		b.WriteString("\n")
	}

	b.WriteString(d.renderTabs())
	b.WriteString("\n")
	b.WriteString(d.renderFilterBar())
	b.WriteString("\n")

	switch d.tab {
	case TabOverview:
		b.WriteString(d.renderOverview())
	case TabFindings:
		b.WriteString(d.renderFindings())
	case TabOrganizations:
		b.WriteString(d.renderOrganizations())
	}

	b.WriteString(helpStyle.Render("tab: switch view · o/p/s: cycle org/priority/status · r: reset filters · ↑/↓: scroll · q: quit"))

	return b.String()
}

func (d *Dashboard) renderTabs() string {
	tabs := make([]string, 0, int(tabCount))
	for t := Tab(0); t < tabCount; t++ {
		if t == d.tab {
			tabs = append(tabs, activeTabStyle.Render(t.String()))
		} else {
			tabs = append(tabs, tabStyle.Render(t.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (d *Dashboard) renderFilterBar() string {
	org := "All"
	if d.orgIdx > 0 {
		org = d.orgs[d.orgIdx-1]
	}
	status := "All"
	if d.statusIdx > 0 {
		status = d.statuses[d.statusIdx-1]
	}
	priority := "All"
	if d.priorityIdx > 0 {
		priority = d.priorities[d.priorityIdx-1].Label()
	}
	return metaStyle.Render(fmt.Sprintf("Org: %s | Priority: %s | Status: %s | %d matching",
		org, priority, status, len(d.filtered)))
}

func (d *Dashboard) renderOverview() string {
	var b strings.Builder

	boxes := []string{
		d.metricBox("Total", fmt.Sprintf("%d", d.summary.Total)),
		d.metricBox("Open", fmt.Sprintf("%d", d.summary.Open)),
		d.metricBox("Critical Open", fmt.Sprintf("%d", d.summary.Critical)),
		d.metricBox("Last 7 Days", fmt.Sprintf("%d", d.summary.Recent)),
		d.metricBox("Mean Close", fmt.Sprintf("%.1fh", d.summary.CloseTime.Mean)),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Priority Distribution"))
	b.WriteString("\n")
	maxCount := 0
	for _, pc := range d.summary.PriorityDist {
		if pc.Count > maxCount {
			maxCount = pc.Count
		}
	}
	for _, pc := range d.summary.PriorityDist {
		b.WriteString(fmt.Sprintf("  %-14s %s %d\n", pc.Label, textBar(pc.Count, maxCount, 30), pc.Count))
	}

	b.WriteString(sectionStyle.Render("Top Threat Types"))
	b.WriteString("\n")
	types := d.summary.ThreatTypes
	if len(types) > 8 {
		types = types[:8]
	}
	maxCount = 0
	for _, ti := range types {
		if ti.Count > maxCount {
			maxCount = ti.Count
		}
	}
	for _, ti := range types {
		b.WriteString(fmt.Sprintf("  %-30s %s %d\n", truncate(ti.Name, 30), textBar(ti.Count, maxCount, 20), ti.Count))
	}

	b.WriteString(sectionStyle.Render("Resolutions"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Resolved: %d · False Positives: %d · Valid: %d · Median Close: %.1fh · Max Close: %.1fh\n",
		d.summary.Resolutions.TotalResolved,
		d.summary.Resolutions.FalsePositives,
		d.summary.Resolutions.ValidFindings,
		d.summary.CloseTime.Median,
		d.summary.CloseTime.Max))

	return b.String()
}

func (d *Dashboard) metricBox(label, value string) string {
	return metricBoxStyle.Render(metricValueStyle.Render(value) + "\n" + metaStyle.Render(label))
}

func (d *Dashboard) renderFindings() string {
	if len(d.filtered) == 0 {
		return metaStyle.Render("No findings match the current filters.") + "\n"
	}

	var b strings.Builder
	b.WriteString(metaStyle.Render(fmt.Sprintf("  %-12s %-40s %-14s %-12s %s", "PRIORITY", "NAME", "STATUS", "CREATED", "ORGANIZATION")))
	b.WriteString("\n")

	rows := d.visibleRows()
	start, end := scrollWindow(d.cursor, len(d.filtered), rows)
	for i := start; i < end; i++ {
		f := d.filtered[i]
		line := fmt.Sprintf("  %-12s %-40s %-14s %-12s %s",
			f.Priority.Label(),
			truncate(f.Name, 40),
			truncate(f.StatusName, 14),
			f.Created.Format("2006-01-02"),
			truncate(f.OrgName, 24))
		if i == d.cursor {
			line = selectedRowStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	sel := d.filtered[d.cursor]
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("  %s · %s", truncate(sel.TypeName, 40), sel.URL(d.appBaseURL))))
	b.WriteString("\n")

	return b.String()
}

func (d *Dashboard) renderOrganizations() string {
	if len(d.summary.OrgFindings) == 0 {
		return metaStyle.Render("No organizations to show.") + "\n"
	}

	var b strings.Builder
	maxCount := d.summary.OrgFindings[0].Count

	rows := d.visibleRows()
	start, end := scrollWindow(d.cursor, len(d.summary.OrgFindings), rows)
	for i := start; i < end; i++ {
		oc := d.summary.OrgFindings[i]
		line := fmt.Sprintf("  %-32s %s %d", truncate(oc.Name, 32), textBar(oc.Count, maxCount, 30), oc.Count)
		if i == d.cursor {
			line = selectedRowStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// visibleRows is how many table rows fit below the chrome.
func (d *Dashboard) visibleRows() int {
	rows := d.height - 10
	if rows < 5 {
		rows = 5
	}
	return rows
}

// scrollWindow keeps cursor within a window of size rows over total items.
func scrollWindow(cursor, total, rows int) (start, end int) {
	if total <= rows {
		return 0, total
	}
	start = cursor - rows/2
	if start < 0 {
		start = 0
	}
	end = start + rows
	if end > total {
		end = total
		start = end - rows
	}
	return start, end
}

func textBar(count, maxCount, width int) string {
	if maxCount <= 0 || count <= 0 {
		return barStyle.Render(strings.Repeat("░", 1))
	}
	n := count * width / maxCount
	if n < 1 {
		n = 1
	}
	return barStyle.Render(strings.Repeat("█", n))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// Run displays the dashboard and blocks until the user quits.
func Run(snap *models.Snapshot, appBaseURL string) error {
	p := tea.NewProgram(NewDashboard(snap, appBaseURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
