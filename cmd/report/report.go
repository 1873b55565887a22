// Package report implements the report command: render a saved snapshot into
// one or more dashboard formats, optionally publishing the results to S3.
package report

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joshsymonds/beacon/internal/config"
	"github.com/joshsymonds/beacon/internal/report"
	"github.com/joshsymonds/beacon/internal/storage"
	"github.com/joshsymonds/beacon/pkg/logger"
	"github.com/joshsymonds/beacon/pkg/pathutil"
)

// Options represents report command options.
type Options struct {
	ConfigFile string
	Snapshot   string
	Output     string
	Formats    string
	Publish    string
	DataDir    string
}

// Run executes the report command.
func Run(args []string) error {
	opts := &Options{}

	fs := flag.NewFlagSet("report", flag.ExitOnError)
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to config file")
	fs.StringVar(&opts.Snapshot, "snapshot", "latest", "Snapshot directory or 'latest'")
	fs.StringVar(&opts.Output, "output", "", "Output directory (overrides config)")
	fs.StringVar(&opts.Formats, "format", "html", "Comma-separated output formats: "+strings.Join(report.ListFormats(), ", "))
	fs.StringVar(&opts.Publish, "publish", "", "Publish generated files to an S3 URL (s3://bucket/prefix)")
	fs.StringVar(&opts.DataDir, "data-dir", "", "Data directory path (overrides config)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: beacon report [options]

Generate a dashboard report from a saved snapshot.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  beacon report
  beacon report --snapshot latest --format html,json
  beacon report --snapshot data/snapshots/2024-01-15-120000-a1b2c3d4
  beacon report --format html --publish s3://reports-bucket/security`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.ConfigFile != "" {
		validPath, err := pathutil.ValidateConfigPath(opts.ConfigFile)
		if err != nil {
			return fmt.Errorf("invalid config path: %w", err)
		}
		opts.ConfigFile = validPath
	}

	cfg, err := config.LoadConfig(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.DataDir != "" {
		cfg.Data.Dir = opts.DataDir
	}
	if opts.Output != "" {
		cfg.Report.OutputDir = opts.Output
	}

	log := logger.GetGlobalLogger()

	store := storage.NewStorageWithLogger(cfg.Data.Dir, log)
	snap, err := store.LoadSnapshot(opts.Snapshot)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	log.Info("Loaded snapshot",
		"id", snap.ID,
		"fetched_at", snap.FetchedAt.Format(time.RFC3339),
		"findings", len(snap.Findings))

	if err := os.MkdirAll(cfg.Report.OutputDir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	fmtOpts := report.Options{
		Logger:     log,
		AppBaseURL: cfg.API.AppURL,
		Title:      cfg.Report.Title,
	}

	var generated []string
	for _, name := range strings.Split(opts.Formats, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		format, err := report.GetFormat(name, fmtOpts)
		if err != nil {
			return err
		}

		outputPath := filepath.Join(cfg.Report.OutputDir,
			fmt.Sprintf("dashboard-%s%s", snap.FetchedAt.UTC().Format("2006-01-02-150405"), format.Extension()))
		if err := format.Generate(snap, outputPath); err != nil {
			return fmt.Errorf("generating %s report: %w", name, err)
		}

		log.Info("Report generated", "format", name, "path", outputPath)
		generated = append(generated, outputPath)
	}

	if opts.Publish != "" {
		if err := publish(generated, opts.Publish, log); err != nil {
			return err
		}
	}

	return nil
}

func publish(paths []string, rawURL string, log logger.Logger) error {
	bucket, prefix, err := report.ParseS3URL(rawURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pub, err := report.NewPublisher(ctx, log)
	if err != nil {
		return fmt.Errorf("creating S3 publisher: %w", err)
	}

	for _, path := range paths {
		if err := pub.Publish(ctx, path, bucket, prefix); err != nil {
			return fmt.Errorf("publishing %s: %w", filepath.Base(path), err)
		}
	}

	log.Info("Reports published", "bucket", bucket, "prefix", prefix, "count", len(paths))
	return nil
}
