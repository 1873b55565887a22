// Package list implements the list command for viewing saved snapshots and
// fetch history.
package list

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joshsymonds/beacon/internal/database"
	"github.com/joshsymonds/beacon/internal/storage"
	"github.com/joshsymonds/beacon/pkg/logger"
)

// Options represents list command options.
type Options struct {
	DataDir string
	Format  string
	Limit   int
	History bool
}

// Run executes the list command.
func Run(args []string) error {
	opts := &Options{}

	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.StringVar(&opts.DataDir, "data-dir", "data", "Data directory path")
	fs.StringVar(&opts.Format, "format", "table", "Output format (table, json)")
	fs.IntVar(&opts.Limit, "limit", 10, "Maximum number of entries to show")
	fs.BoolVar(&opts.History, "history", false, "Show fetch history from the ledger instead of snapshot directories")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: beacon list [options]

List saved snapshots, newest first.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  beacon list
  beacon list --limit 20
  beacon list --history
  beacon list --format json`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.History {
		return listHistory(opts)
	}
	return listSnapshots(opts)
}

func listSnapshots(opts *Options) error {
	store := storage.NewStorage(opts.DataDir)

	infos, err := store.ListSnapshots()
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}
	if len(infos) == 0 {
		logger.Info("No snapshots found", "data_dir", opts.DataDir)
		return nil
	}
	if opts.Limit > 0 && len(infos) > opts.Limit {
		infos = infos[:opts.Limit]
	}

	if opts.Format == "json" {
		return json.NewEncoder(os.Stdout).Encode(infos)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(w, "ID\tFETCHED\tACCOUNTS\tFINDINGS\tTIME AGO"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 70)); err != nil {
		return fmt.Errorf("writing separator: %w", err)
	}

	for _, info := range infos {
		findings := fmt.Sprintf("%d", info.FindingCount)
		if info.PermissionDenied {
			findings += " ⚠️"
		}

		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			shortID(info.ID),
			info.FetchedAt.Format("2006-01-02 15:04"),
			info.AccountCount,
			findings,
			formatTimeAgo(info.FetchedAt),
		); err != nil {
			return fmt.Errorf("writing snapshot entry: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}

	logger.Info("💡 Use 'beacon report --snapshot' to generate a dashboard", "snapshot", infos[0].Path)
	return nil
}

func listHistory(opts *Options) error {
	db, err := database.New(filepath.Join(opts.DataDir, "beacon.db"))
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := db.ListFetches(ctx, opts.Limit)
	if err != nil {
		return fmt.Errorf("listing fetch history: %w", err)
	}
	if len(records) == 0 {
		logger.Info("No fetch history recorded", "data_dir", opts.DataDir)
		return nil
	}

	if opts.Format == "json" {
		return json.NewEncoder(os.Stdout).Encode(records)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(w, "FETCHED\tACCOUNTS\tFINDINGS\tOPEN\tCRITICAL\tTIME AGO"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 70)); err != nil {
		return fmt.Errorf("writing separator: %w", err)
	}

	for _, rec := range records {
		findings := fmt.Sprintf("%d", rec.FindingCount)
		if rec.PermissionDenied {
			findings += " ⚠️"
		}

		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%s\n",
			rec.FetchedAt.Format("2006-01-02 15:04"),
			rec.AccountCount,
			findings,
			rec.OpenCount,
			rec.CriticalCount,
			formatTimeAgo(rec.FetchedAt),
		); err != nil {
			return fmt.Errorf("writing history entry: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table writer: %w", err)
	}

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}
