package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/vols1365/internal/listing"
	"github.com/pfrederiksen/vols1365/internal/logger"
)

const (
	SnapshotFile = "1365.json"
	CacheFile    = "recruit_cache.json"
)

// Storage handles persistence of snapshots under a data directory.
type Storage struct {
	dataDir string
}

// New creates a Storage rooted at dataDir, creating the directory if needed.
func New(dataDir string) (*Storage, error) {
	dir, err := expandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dir,
	}, nil
}

// Dir returns the resolved data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

// SnapshotPath returns the path of the snapshot file.
func (s *Storage) SnapshotPath() string {
	return filepath.Join(s.dataDir, SnapshotFile)
}

// CachePath returns the path of the enrichment cache file.
func (s *Storage) CachePath() string {
	return filepath.Join(s.dataDir, CacheFile)
}

// LoadSnapshot reads the current snapshot. A missing file yields an empty
// snapshot.
func (s *Storage) LoadSnapshot() (*listing.Snapshot, error) {
	data, err := os.ReadFile(s.SnapshotPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return listing.NewSnapshot(nil, map[string]interface{}{}, listing.Stat{}, ""), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot listing.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if snapshot.Items == nil {
		snapshot.Items = []listing.Record{}
	}
	return &snapshot, nil
}

// SaveSnapshot stamps UpdatedAt when unset and replaces the snapshot file.
func (s *Storage) SaveSnapshot(snapshot *listing.Snapshot) error {
	if snapshot.UpdatedAt == "" {
		snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := WriteFileAtomic(s.SnapshotPath(), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	logger.Info("snapshot saved", logger.Fields{
		"path":  s.SnapshotPath(),
		"count": snapshot.Count,
	})
	return nil
}

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        // nolint:errcheck
		os.Remove(tmpName) // nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return err
	}
	return os.Rename(tmpName, path)
}

func expandHome(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dir[2:]), nil
}
