package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joshsymonds/beacon/internal/filter"
	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/internal/stats"
	"github.com/joshsymonds/beacon/pkg/logger"
	"github.com/joshsymonds/beacon/pkg/pathutil"
)

//go:embed templates/*
var templateFS embed.FS

// recentDisplayLimit caps the recent-findings table in the rendered
// dashboard; the caption shows how many more exist.
const recentDisplayLimit = 10

func init() {
	RegisterFormat("html", func(opts Options) (Format, error) {
		return NewHTMLGenerator(opts), nil
	})
}

// HTMLGenerator renders the dashboard as a standalone HTML page. Charts are
// plain CSS bars and inline SVG so the output has no script dependencies.
type HTMLGenerator struct {
	logger     logger.Logger
	appBaseURL string
	title      string
	now        func() time.Time
}

// NewHTMLGenerator creates an HTML dashboard generator.
func NewHTMLGenerator(opts Options) *HTMLGenerator {
	return &HTMLGenerator{
		logger:     opts.logger(),
		appBaseURL: opts.AppBaseURL,
		title:      opts.Title,
		now:        opts.now,
	}
}

// Name returns the format identifier.
func (g *HTMLGenerator) Name() string { return "html" }

// Extension returns the output file extension.
func (g *HTMLGenerator) Extension() string { return ".html" }

// Description returns a human-readable description.
func (g *HTMLGenerator) Description() string {
	return "Standalone HTML dashboard with tables and charts"
}

// Generate renders the snapshot to outputPath.
func (g *HTMLGenerator) Generate(snap *models.Snapshot, outputPath string) (err error) {
	validOutputPath, err := pathutil.ValidateOutputPath(outputPath)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(validOutputPath), 0750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	file, err := os.Create(validOutputPath) //nolint:gosec // Path validated above
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cerr)
		}
	}()

	if err := g.Render(file, snap); err != nil {
		return err
	}

	g.logger.Info("Generated HTML dashboard", "path", outputPath)
	return nil
}

// Render writes the dashboard HTML for snap to w. The serve command uses this
// to render directly into HTTP responses.
func (g *HTMLGenerator) Render(w io.Writer, snap *models.Snapshot) error {
	tmpl, err := template.New("dashboard").Funcs(g.templateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	if err := tmpl.ExecuteTemplate(w, "dashboard.html", g.prepareTemplateData(snap)); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	return nil
}

func (g *HTMLGenerator) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"title": cases.Title(language.English).String,
		"formatHours": func(h float64) string {
			return fmt.Sprintf("%.1f hours", h)
		},
		"truncate": func(s string, n int) string {
			if len(s) <= n {
				return s
			}
			return s[:n] + "..."
		},
	}
}

type metricsView struct {
	Total    int
	Recent   int
	Critical int
	Open     int
}

type findingView struct {
	Name     string
	URL      string
	Org      string
	Created  string
	Status   string
	Type     string
	Priority string
}

type barView struct {
	Label   string
	Count   int
	Percent float64
}

type heatCell struct {
	Count int
	Alpha float64
}

type heatView struct {
	RowLabels []string
	ColLabels []string
	Cells     [][]heatCell
	RowTotals []int
	ColTotals []int
	Total     int
}

type sparkView struct {
	Label  string
	Points string
	Peak   float64
}

type timelineView struct {
	Dates      []string
	Priorities []string
	Cells      [][]heatCell
}

type templateData struct {
	Title            string
	GeneratedAt      string
	FetchedAt        string
	AccountCount     int
	PermissionDenied bool

	Metrics          metricsView
	CriticalFindings []findingView
	RecentFindings   []findingView
	RecentTotal      int

	CloseTime   stats.CloseTime
	Resolutions stats.Resolutions

	PriorityDist []barView
	ThreatTypes  []barView
	OrgFindings  []barView

	Timeline       timelineView
	Trend          []sparkView
	PriorityStatus heatView
	OrgPriority    heatView
}

func (g *HTMLGenerator) prepareTemplateData(snap *models.Snapshot) templateData {
	now := g.now()
	findings := snap.Findings
	summary := stats.Compute(findings, now)

	recent := filter.Recent(findings, now, stats.RecentWindow)
	recentShown := recent
	if len(recentShown) > recentDisplayLimit {
		recentShown = recentShown[:recentDisplayLimit]
	}

	return templateData{
		Title:            g.title,
		GeneratedAt:      now.Format("2006-01-02 15:04:05 MST"),
		FetchedAt:        snap.FetchedAt.Format("2006-01-02 15:04:05 MST"),
		AccountCount:     len(snap.Accounts),
		PermissionDenied: snap.PermissionDenied,
		Metrics: metricsView{
			Total:    summary.Total,
			Recent:   summary.Recent,
			Critical: summary.Critical,
			Open:     summary.Open,
		},
		CriticalFindings: g.findingViews(filter.Critical(findings)),
		RecentFindings:   g.findingViews(recentShown),
		RecentTotal:      len(recent),
		CloseTime:        summary.CloseTime,
		Resolutions:      summary.Resolutions,
		PriorityDist:     priorityBars(summary.PriorityDist),
		ThreatTypes:      countBars(summary.ThreatTypes),
		OrgFindings:      countBars(summary.OrgFindings),
		Timeline:         timelineTable(stats.Daily(findings)),
		Trend:            sparklines(stats.PriorityTrend(findings, stats.TrendWindow)),
		PriorityStatus:   heatTable(stats.PriorityStatus(findings)),
		OrgPriority:      heatTable(stats.OrgPriority(findings)),
	}
}

func (g *HTMLGenerator) findingViews(findings []models.Finding) []findingView {
	out := make([]findingView, 0, len(findings))
	for i := range findings {
		f := &findings[i]
		created := ""
		if !f.Created.IsZero() {
			created = f.Created.Format("2006-01-02 15:04:05")
		}
		out = append(out, findingView{
			Name:     f.Name,
			URL:      f.URL(g.appBaseURL),
			Org:      f.OrgName,
			Created:  created,
			Status:   f.StatusName,
			Type:     f.TypeName,
			Priority: f.Priority.Format(),
		})
	}
	return out
}

func priorityBars(dist []stats.PriorityCount) []barView {
	maxCount := 0
	for _, pc := range dist {
		if pc.Count > maxCount {
			maxCount = pc.Count
		}
	}
	out := make([]barView, 0, len(dist))
	for _, pc := range dist {
		out = append(out, barView{Label: pc.Label, Count: pc.Count, Percent: percent(pc.Count, maxCount)})
	}
	return out
}

func countBars(items []stats.CountItem) []barView {
	maxCount := 0
	for _, it := range items {
		if it.Count > maxCount {
			maxCount = it.Count
		}
	}
	out := make([]barView, 0, len(items))
	for _, it := range items {
		out = append(out, barView{Label: it.Name, Count: it.Count, Percent: percent(it.Count, maxCount)})
	}
	return out
}

func heatTable(ct stats.Crosstab) heatView {
	maxCell := ct.MaxCell()
	cells := make([][]heatCell, len(ct.Counts))
	for r, row := range ct.Counts {
		cells[r] = make([]heatCell, len(row))
		for c, count := range row {
			alpha := 0.0
			if maxCell > 0 {
				alpha = float64(count) / float64(maxCell)
			}
			cells[r][c] = heatCell{Count: count, Alpha: alpha}
		}
	}
	return heatView{
		RowLabels: ct.RowLabels,
		ColLabels: ct.ColLabels,
		Cells:     cells,
		RowTotals: ct.RowTotals,
		ColTotals: ct.ColTotals,
		Total:     ct.Total,
	}
}

func timelineTable(series []stats.Series) timelineView {
	dateSet := make(map[string]bool)
	for _, s := range series {
		for _, p := range s.Points {
			dateSet[p.When.Format("2006-01-02")] = true
		}
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	dateIdx := make(map[string]int, len(dates))
	for i, d := range dates {
		dateIdx[d] = i
	}

	counts := make([][]int, len(dates))
	for i := range counts {
		counts[i] = make([]int, len(series))
	}
	maxCell := 0
	priorities := make([]string, 0, len(series))
	for col, s := range series {
		priorities = append(priorities, s.Label)
		for _, p := range s.Points {
			row := dateIdx[p.When.Format("2006-01-02")]
			counts[row][col] = p.Count
			if p.Count > maxCell {
				maxCell = p.Count
			}
		}
	}

	cells := make([][]heatCell, len(counts))
	for r, row := range counts {
		cells[r] = make([]heatCell, len(row))
		for c, count := range row {
			alpha := 0.0
			if maxCell > 0 {
				alpha = float64(count) / float64(maxCell)
			}
			cells[r][c] = heatCell{Count: count, Alpha: alpha}
		}
	}

	return timelineView{Dates: dates, Priorities: priorities, Cells: cells}
}

// sparklines converts trend series into inline SVG polyline point strings on
// a 200x40 viewbox.
func sparklines(trend []stats.TrendSeries) []sparkView {
	const width, height = 200.0, 40.0

	out := make([]sparkView, 0, len(trend))
	for _, ts := range trend {
		peak := 0.0
		for _, p := range ts.Points {
			if p.Value > peak {
				peak = p.Value
			}
		}

		var b strings.Builder
		n := len(ts.Points)
		for i, p := range ts.Points {
			x := 0.0
			if n > 1 {
				x = width * float64(i) / float64(n-1)
			}
			y := height
			if peak > 0 {
				y = height - (height-2)*(p.Value/peak)
			}
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%.1f,%.1f", x, y)
		}

		out = append(out, sparkView{Label: ts.Label, Points: b.String(), Peak: peak})
	}
	return out
}

func percent(count, maxCount int) float64 {
	if maxCount == 0 {
		return 0
	}
	return 100 * float64(count) / float64(maxCount)
}
