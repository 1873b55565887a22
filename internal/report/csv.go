package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/pkg/logger"
	"github.com/joshsymonds/beacon/pkg/pathutil"
)

func init() {
	RegisterFormat("csv", func(opts Options) (Format, error) {
		return NewCSVGenerator(opts), nil
	})
}

// CSVGenerator exports the raw findings table for spreadsheet work.
type CSVGenerator struct {
	logger     logger.Logger
	appBaseURL string
}

// NewCSVGenerator creates a CSV findings exporter.
func NewCSVGenerator(opts Options) *CSVGenerator {
	return &CSVGenerator{logger: opts.logger(), appBaseURL: opts.AppBaseURL}
}

// Name returns the format identifier.
func (g *CSVGenerator) Name() string { return "csv" }

// Extension returns the output file extension.
func (g *CSVGenerator) Extension() string { return ".csv" }

// Description returns a human-readable description.
func (g *CSVGenerator) Description() string {
	return "Flat findings export for spreadsheets"
}

// Generate renders the snapshot to outputPath.
func (g *CSVGenerator) Generate(snap *models.Snapshot, outputPath string) (err error) {
	validOutputPath, err := pathutil.ValidateOutputPath(outputPath)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(validOutputPath), 0750); err != nil {
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

	w := csv.NewWriter(file)
	header := []string{
		"finding_id", "organization", "name", "priority", "status", "type",
		"resolution", "created", "modified", "url",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i := range snap.Findings {
		f := &snap.Findings[i]
		record := []string{
			f.FindingID,
			f.OrgName,
			f.Name,
			f.Priority.Label(),
			f.StatusName,
			f.TypeName,
			f.ResolutionName,
			formatTimestamp(f.Created),
			formatTimestamp(f.Modified),
			f.URL(g.appBaseURL),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing finding %s: %w", f.FindingID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	g.logger.Info("Generated CSV export", "path", outputPath, "findings", len(snap.Findings))
	return nil
}

func formatTimestamp(t models.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
