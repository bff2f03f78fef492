// Package entitymap persists the relativePath -> []CanonicalId mapping
// that lets incremental re-analysis diff a file's previous element set
// against its newly produced one (spec §4.7, scenario 6). Grounded on
// analyzer/analyzer.go's afs.Service usage for all filesystem access, and
// on core/atomicwriter.go's temp-file-then-rename idiom, generalized here
// to afs.Upload + afs.Move so the same code works against local and
// remote cache backends.
package entitymap

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/viant/afs"

	"github.com/viant/codegraph/cgerrors"
	"github.com/viant/codegraph/ir"
)

const fileName = "entity_ids.json"

// EntityMap is a concurrency-safe, persisted index of which CanonicalIds a
// file's last successful analysis produced.
type EntityMap struct {
	mu     sync.RWMutex
	fs     afs.Service
	path   string
	byFile map[string][]ir.CanonicalId
}

// New returns an EntityMap backed by <cacheDir>/entity_ids.json.
func New(cacheDir string) *EntityMap {
	return &EntityMap{
		fs:     afs.New(),
		path:   path.Join(cacheDir, fileName),
		byFile: map[string][]ir.CanonicalId{},
	}
}

// Load reads the persisted map, replacing any in-memory state. A missing
// file is not an error: a fresh project has no prior entity map.
func (m *EntityMap) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.fs.DownloadWithURL(ctx, m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return cgerrors.Wrap(err, "entitymap: load "+m.path)
	}
	if len(data) == 0 {
		return nil
	}
	var decoded map[string][]ir.CanonicalId
	if err := json.Unmarshal(data, &decoded); err != nil {
		return cgerrors.Wrap(err, "entitymap: decode "+m.path)
	}
	m.byFile = decoded
	return nil
}

// IDsForFile returns the CanonicalIds recorded for relativePath from the
// last successful analysis, or nil if the file is new.
func (m *EntityMap) IDsForFile(relativePath string) []ir.CanonicalId {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ir.CanonicalId{}, m.byFile[relativePath]...)
}

// Update records the CanonicalIds a successful analysis of relativePath
// produced (spec §5: "EntityMap is updated only for successfully emitted
// files"). It does not persist; call Save to flush.
func (m *EntityMap) Update(relativePath string, ids []ir.CanonicalId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := append([]ir.CanonicalId{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	m.byFile[relativePath] = sorted
}

// Remove deletes relativePath's entry entirely, used when a file is
// deleted from the project.
func (m *EntityMap) Remove(relativePath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byFile, relativePath)
}

// Clear empties the in-memory map; a full-project run clears before
// rewriting from scratch (spec §4.7).
func (m *EntityMap) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byFile = map[string][]ir.CanonicalId{}
}

// Save persists the map atomically: written to a temp path, then moved
// into place, so a crash mid-write never leaves a truncated cache file.
func (m *EntityMap) Save(ctx context.Context) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m.byFile, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return cgerrors.Wrap(err, "entitymap: encode")
	}

	tmpPath := m.path + ".tmp"
	if err := m.fs.Upload(ctx, tmpPath, 0644, bytes.NewReader(data)); err != nil {
		return cgerrors.Wrap(err, "entitymap: write "+tmpPath)
	}
	if err := m.fs.Move(ctx, tmpPath, m.path); err != nil {
		return cgerrors.Wrap(err, "entitymap: rename "+tmpPath+" -> "+m.path)
	}
	return nil
}

// Diff reports which of the previous CanonicalIds for relativePath are no
// longer present after reanalysis (spec §8 scenario 6: stale elements B,C
// must be deleted from the store when a refactor shrinks a file's id
// set).
func Diff(previous, current []ir.CanonicalId) (removed []ir.CanonicalId) {
	currentSet := make(map[ir.CanonicalId]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}
	for _, id := range previous {
		if !currentSet[id] {
			removed = append(removed, id)
		}
	}
	return removed
}
