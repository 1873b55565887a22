package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/internal/stats"
	"github.com/joshsymonds/beacon/pkg/logger"
	"github.com/joshsymonds/beacon/pkg/pathutil"
)

func init() {
	RegisterFormat("json", func(opts Options) (Format, error) {
		return NewJSONGenerator(opts), nil
	})
}

// JSONGenerator writes the snapshot metadata plus every aggregate the
// dashboard renders, as a single machine-readable document.
type JSONGenerator struct {
	logger logger.Logger
	now    func() time.Time
}

// NewJSONGenerator creates a JSON report generator.
func NewJSONGenerator(opts Options) *JSONGenerator {
	return &JSONGenerator{logger: opts.logger(), now: opts.now}
}

// Name returns the format identifier.
func (g *JSONGenerator) Name() string { return "json" }

// Extension returns the output file extension.
func (g *JSONGenerator) Extension() string { return ".json" }

// Description returns a human-readable description.
func (g *JSONGenerator) Description() string {
	return "Machine-readable summary statistics and breakdowns"
}

type jsonReport struct {
	Metadata       models.SnapshotMetadata `json:"metadata"`
	GeneratedAt    time.Time               `json:"generated_at"`
	Summary        stats.Summary           `json:"summary"`
	Timeline       []stats.Series          `json:"timeline"`
	Trend          []stats.TrendSeries     `json:"trend"`
	PriorityStatus stats.Crosstab          `json:"priority_status"`
	OrgPriority    stats.Crosstab          `json:"org_priority"`
}

// Generate renders the snapshot to outputPath.
func (g *JSONGenerator) Generate(snap *models.Snapshot, outputPath string) error {
	validOutputPath, err := pathutil.ValidateOutputPath(outputPath)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	doc := jsonReport{
		Metadata:       snap.Metadata(),
		GeneratedAt:    g.now(),
		Summary:        stats.Compute(snap.Findings, g.now()),
		Timeline:       stats.Daily(snap.Findings),
		Trend:          stats.PriorityTrend(snap.Findings, stats.TrendWindow),
		PriorityStatus: stats.PriorityStatus(snap.Findings),
		OrgPriority:    stats.OrgPriority(snap.Findings),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(validOutputPath), 0750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(validOutputPath, data, 0600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	g.logger.Info("Generated JSON report", "path", outputPath)
	return nil
}
