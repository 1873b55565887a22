package database

import (
	"context"
	"fmt"
	"time"

	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/internal/stats"
)

// FetchRecord is one row of the fetch-history ledger.
type FetchRecord struct {
	ID               string
	FetchedAt        time.Time
	SnapshotDir      string
	AccountCount     int
	FindingCount     int
	OpenCount        int
	CriticalCount    int
	PermissionDenied bool
}

// NewFetchRecord derives a ledger row from a snapshot and the directory it
// was saved to.
func NewFetchRecord(snap *models.Snapshot, snapshotDir string) *FetchRecord {
	summary := stats.Compute(snap.Findings, snap.FetchedAt)
	return &FetchRecord{
		ID:               snap.ID,
		FetchedAt:        snap.FetchedAt,
		SnapshotDir:      snapshotDir,
		AccountCount:     len(snap.Accounts),
		FindingCount:     summary.Total,
		OpenCount:        summary.Open,
		CriticalCount:    summary.Critical,
		PermissionDenied: snap.PermissionDenied,
	}
}

// RecordFetch inserts a fetch session into the ledger.
func (db *DB) RecordFetch(ctx context.Context, rec *FetchRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO fetches (
			id, fetched_at, snapshot_dir, account_count, finding_count,
			open_count, critical_count, permission_denied
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FetchedAt, rec.SnapshotDir, rec.AccountCount, rec.FindingCount,
		rec.OpenCount, rec.CriticalCount, rec.PermissionDenied)
	if err != nil {
		return fmt.Errorf("inserting fetch record: %w", err)
	}
	return nil
}

// ListFetches returns fetch sessions, newest first. A limit of 0 returns
// everything.
func (db *DB) ListFetches(ctx context.Context, limit int) ([]*FetchRecord, error) {
	query := `
		SELECT id, fetched_at, snapshot_dir, account_count, finding_count,
		       open_count, critical_count, permission_denied
		FROM fetches
		ORDER BY fetched_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fetches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*FetchRecord
	for rows.Next() {
		var rec FetchRecord
		if err := rows.Scan(
			&rec.ID, &rec.FetchedAt, &rec.SnapshotDir, &rec.AccountCount,
			&rec.FindingCount, &rec.OpenCount, &rec.CriticalCount,
			&rec.PermissionDenied); err != nil {
			return nil, fmt.Errorf("scanning fetch record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fetch records: %w", err)
	}
	return records, nil
}

// LatestFetch returns the most recent fetch session, or nil if the ledger is
// empty.
func (db *DB) LatestFetch(ctx context.Context) (*FetchRecord, error) {
	records, err := db.ListFetches(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}
