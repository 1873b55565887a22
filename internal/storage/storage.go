// Package storage handles persistence of fetched snapshots: the accounts and
// findings retrieved in one session, written as JSON so the report, dash, and
// serve commands can work offline from the last fetch.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/pkg/logger"
	"github.com/joshsymonds/beacon/pkg/pathutil"
)

const snapshotsDir = "snapshots"

// Storage saves and loads snapshots under a base data directory.
type Storage struct {
	logger  logger.Logger
	baseDir string
}

// NewStorage creates a storage instance using the global logger.
func NewStorage(baseDir string) *Storage {
	return NewStorageWithLogger(baseDir, logger.GetGlobalLogger())
}

// NewStorageWithLogger creates a storage instance with a custom logger.
func NewStorageWithLogger(baseDir string, log logger.Logger) *Storage {
	return &Storage{baseDir: baseDir, logger: log}
}

// SnapshotInfo pairs snapshot metadata with its on-disk location.
type SnapshotInfo struct {
	models.SnapshotMetadata
	Path string `json:"path"`
}

// SaveSnapshot writes a snapshot to a new directory under the data dir and
// returns the directory path. Layout: metadata.json, accounts.json,
// findings.json.
func (s *Storage) SaveSnapshot(snap *models.Snapshot) (string, error) {
	shortID := snap.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	dirName := fmt.Sprintf("%s-%s", snap.FetchedAt.UTC().Format("2006-01-02-150405"), shortID)

	dir, err := pathutil.JoinAndValidate(s.baseDir, snapshotsDir, dirName)
	if err != nil {
		return "", fmt.Errorf("invalid snapshot directory: %w", err)
	}
	if err := pathutil.EnsureDir(dir); err != nil {
		return "", err
	}

	// Fixed write order with the metadata sidecar last: ListSnapshots keys
	// off metadata.json, so a partial write never shows up as a snapshot.
	meta := snap.Metadata()
	files := []struct {
		name    string
		payload any
	}{
		{"accounts.json", snap.Accounts},
		{"findings.json", snap.Findings},
		{"metadata.json", &meta},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := s.saveJSON(path, f.payload); err != nil {
			return "", fmt.Errorf("saving %s: %w", f.name, err)
		}
	}

	s.logger.Debug("Saved snapshot",
		"path", dir,
		"accounts", len(snap.Accounts),
		"findings", len(snap.Findings))
	return dir, nil
}

// LoadSnapshot reads a snapshot back from its directory. The path "latest"
// resolves to the most recent snapshot.
func (s *Storage) LoadSnapshot(path string) (*models.Snapshot, error) {
	if path == "latest" {
		latest, err := s.FindLatestSnapshot()
		if err != nil {
			return nil, err
		}
		path = latest
	}

	validPath, err := pathutil.ValidateDataPath(path, "")
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot path: %w", err)
	}

	var meta models.SnapshotMetadata
	if err := s.loadJSON(filepath.Join(validPath, "metadata.json"), &meta); err != nil {
		return nil, fmt.Errorf("loading metadata: %w", err)
	}

	snap := &models.Snapshot{
		ID:               meta.ID,
		FetchedAt:        meta.FetchedAt,
		PermissionDenied: meta.PermissionDenied,
	}
	if err := s.loadJSON(filepath.Join(validPath, "accounts.json"), &snap.Accounts); err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	if err := s.loadJSON(filepath.Join(validPath, "findings.json"), &snap.Findings); err != nil {
		return nil, fmt.Errorf("loading findings: %w", err)
	}

	return snap, nil
}

// ListSnapshots returns metadata for every stored snapshot, newest first.
// Directories without readable metadata are skipped with a warning.
func (s *Storage) ListSnapshots() ([]SnapshotInfo, error) {
	root := filepath.Join(s.baseDir, snapshotsDir)
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshots directory: %w", err)
	}

	var infos []SnapshotInfo
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, entry.Name())

		var meta models.SnapshotMetadata
		if err := s.loadJSON(filepath.Join(dir, "metadata.json"), &meta); err != nil {
			s.logger.Warn("Skipping unreadable snapshot", "path", dir, "error", err)
			continue
		}
		infos = append(infos, SnapshotInfo{SnapshotMetadata: meta, Path: dir})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].FetchedAt.After(infos[j].FetchedAt)
	})
	return infos, nil
}

// FindLatestSnapshot returns the path of the most recent snapshot.
func (s *Storage) FindLatestSnapshot() (string, error) {
	infos, err := s.ListSnapshots()
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", fmt.Errorf("no snapshots found under %s", filepath.Join(s.baseDir, snapshotsDir))
	}
	return infos[0].Path, nil
}

func (s *Storage) saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (s *Storage) loadJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // Paths are validated against the data dir
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
