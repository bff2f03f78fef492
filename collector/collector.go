// Package collector implements the IRCollector (spec §4.4): it aggregates
// per-file FileIr values, deduplicates elements by CanonicalId with a
// last-writer-wins policy, and maintains the indexes the Resolver and
// EntityMap need. Grounded on inspector/graph/file.go's lazily-built
// functionMap/typeMap lookup pattern from the teacher, generalized from a
// single-file index to a project-wide one.
package collector

import (
	"sync"

	"github.com/viant/codegraph/ir"
)

// nameKey is the (kind, simpleName) index key (spec §4.4).
type nameKey struct {
	kind ir.ElementKind
	name string
}

// Collector aggregates FileIr values into one queryable project index. It
// is safe for concurrent Ingest calls (spec §5: "updated from a single
// aggregator after workers finish, or through a synchronized enqueue
// point" — here it is the latter, guarded by a mutex).
type Collector struct {
	mu sync.Mutex

	byID       map[ir.CanonicalId]*ir.Element
	byName     map[nameKey][]*ir.Element
	byFile     map[string]map[ir.CanonicalId]bool
	relsByFile map[string][]*ir.PotentialRelationship
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{
		byID:       map[ir.CanonicalId]*ir.Element{},
		byName:     map[nameKey][]*ir.Element{},
		byFile:     map[string]map[ir.CanonicalId]bool{},
		relsByFile: map[string][]*ir.PotentialRelationship{},
	}
}

// Ingest merges a FileIr into the project index. Elements are deduplicated
// by CanonicalId using last-writer-wins (spec §4.4); PotentialRelationships
// are not deduplicated here — the Resolver owns edge-identity uniqueness.
func (c *Collector) Ingest(file *ir.FileIr) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropFileLocked(file.FilePath)

	fileIDs := map[ir.CanonicalId]bool{}
	for _, el := range file.Elements {
		c.putElementLocked(el)
		fileIDs[el.ID] = true
	}
	c.byFile[file.FilePath] = fileIDs
	c.relsByFile[file.FilePath] = append([]*ir.PotentialRelationship{}, file.PotentialRelationships...)
}

// dropFileLocked removes a file's previously-ingested elements and
// relationships so re-analysis of that file replaces only its own output
// (spec §3 invariant on File/Directory idempotency). Caller holds c.mu.
func (c *Collector) dropFileLocked(filePath string) {
	existing, ok := c.byFile[filePath]
	if !ok {
		return
	}
	for id := range existing {
		el, ok := c.byID[id]
		if !ok {
			continue
		}
		delete(c.byID, id)
		key := nameKey{kind: el.Kind, name: el.Name}
		c.byName[key] = removeElement(c.byName[key], id)
	}
	delete(c.byFile, filePath)
	delete(c.relsByFile, filePath)
}

func (c *Collector) putElementLocked(el *ir.Element) {
	c.byID[el.ID] = el
	key := nameKey{kind: el.Kind, name: el.Name}
	c.byName[key] = append(removeElement(c.byName[key], el.ID), el)
}

func removeElement(list []*ir.Element, id ir.CanonicalId) []*ir.Element {
	out := list[:0:0]
	for _, e := range list {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

// ByID returns the element for a CanonicalId, or nil.
func (c *Collector) ByID(id ir.CanonicalId) *ir.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byID[id]
}

// ByKindAndName returns all elements matching (kind, simpleName), used by
// the Resolver's name-matching rules (spec §4.5).
func (c *Collector) ByKindAndName(kind ir.ElementKind, name string) []*ir.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ir.Element{}, c.byName[nameKey{kind: kind, name: name}]...)
}

// ByName returns all elements sharing a simple name regardless of kind,
// used by symbolic-lookup rules that filter by a set of kinds afterwards
// (spec §4.5, UsesAnnotation/ReferencesType/...).
func (c *Collector) ByName(name string) []*ir.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*ir.Element
	for k, els := range c.byName {
		if k.name == name {
			out = append(out, els...)
		}
	}
	return out
}

// IDsForFile returns the CanonicalIds currently attributed to a file path,
// used by EntityMap to diff old vs. new id sets (spec §4.7).
func (c *Collector) IDsForFile(filePath string) []ir.CanonicalId {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := c.byFile[filePath]
	out := make([]ir.CanonicalId, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

// AllElements returns every element currently indexed, in no particular
// order; the caller sorts if determinism is required.
func (c *Collector) AllElements() []*ir.Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ir.Element, 0, len(c.byID))
	for _, el := range c.byID {
		out = append(out, el)
	}
	return out
}

// AllRelationships flattens every file's PotentialRelationships, the input
// to the Resolver (spec §4.5).
func (c *Collector) AllRelationships() []*ir.PotentialRelationship {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*ir.PotentialRelationship
	for _, rels := range c.relsByFile {
		out = append(out, rels...)
	}
	return out
}

// RelationshipsForFile returns just one file's PotentialRelationships,
// used by single-file incremental re-analysis.
func (c *Collector) RelationshipsForFile(filePath string) []*ir.PotentialRelationship {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*ir.PotentialRelationship{}, c.relsByFile[filePath]...)
}
