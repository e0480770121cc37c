// Package snapshotstore persists named full-system snapshots to disk and
// compares pairs of them (named captures, or bare model.Snapshot pairs
// for an on-demand diff).
package snapshotstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nsolari/procwatch/model"
)

// NamedSnapshot is a full-system capture saved under a user-chosen name.
type NamedSnapshot struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	Timestamp   time.Time
	Hostname    string
	System      model.SystemMetrics
	Processes   []model.ProcessRecord
}

// Store manages snapshot files under a directory, one JSON file per
// capture, written atomically (write to a temp file, then rename).
type Store struct {
	dir string
}

// NewStore ensures dir exists and returns a Store rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("snapshotstore: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Capture saves snap under name, returning the NamedSnapshot written to
// disk. The filename embeds a slugified name and snap's timestamp to the
// second, so a second capture with the same name and the same second
// replaces the first file.
func (s *Store) Capture(name, description string, tags []string, snap model.Snapshot) (NamedSnapshot, error) {
	ns := NamedSnapshot{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Tags:        tags,
		Timestamp:   snap.Timestamp,
		Hostname:    snap.System.Hostname,
		System:      snap.System,
		Processes:   snap.Processes,
	}

	path := s.pathFor(name, ns.Timestamp)
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(ns, "", "  ")
	if err != nil {
		return ns, fmt.Errorf("snapshotstore: marshal: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return ns, fmt.Errorf("snapshotstore: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return ns, fmt.Errorf("snapshotstore: rename into place: %w", err)
	}
	return ns, nil
}

func (s *Store) pathFor(name string, at time.Time) string {
	slug := strings.ReplaceAll(name, " ", "_")
	filename := fmt.Sprintf("snapshot_%s_%s.json", slug, at.Format("20060102_150405"))
	return filepath.Join(s.dir, filename)
}

// List returns every stored snapshot's filename, sorted ascending by
// filename: grouped by name slug, and oldest first within one slug.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("snapshotstore: list: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a previously captured snapshot by its stored filename.
func (s *Store) Load(filename string) (NamedSnapshot, error) {
	var ns NamedSnapshot
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return ns, fmt.Errorf("snapshotstore: load %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, &ns); err != nil {
		return ns, fmt.Errorf("snapshotstore: unmarshal %s: %w", filename, err)
	}
	return ns, nil
}

// Delete removes a stored snapshot file by name.
func (s *Store) Delete(filename string) error {
	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil {
		return fmt.Errorf("snapshotstore: delete %s: %w", filename, err)
	}
	return nil
}
