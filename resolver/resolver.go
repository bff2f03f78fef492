// Package resolver implements cross-file resolution (spec §4.5): it turns
// a project's PotentialRelationships into concrete, deduplicated
// Edges (which graphstore turns into mutations) by matching targetPattern against the Collector's
// element index. Grounded on analyzer/identifier.go's resolveIdent
// (scope-first, then project-wide lookup) and analyzer/node.go's
// handleCall resolution order.
package resolver

import (
	"context"
	"path"
	"strings"

	"github.com/viant/codegraph/cgerrors"
	"github.com/viant/codegraph/collector"
	"github.com/viant/codegraph/config"
	"github.com/viant/codegraph/ir"
)

// Edge is a single resolved (or placeholder) relationship, keyed by its
// identity triple (spec §4.5: "Edge identity is (sourceId, TYPE_UPPER,
// targetId)").
type Edge struct {
	SourceID      ir.CanonicalId
	Type          string
	TargetID      ir.CanonicalId
	Properties    ir.Properties
	IsPlaceholder bool
}

func (e *Edge) identity() string {
	return string(e.SourceID) + ":" + e.Type + ":" + string(e.TargetID)
}

// Resolver converts PotentialRelationships into Edges. It is CPU-only and
// non-blocking (spec §5), reading exclusively from the Collector's index.
type Resolver struct {
	collector *collector.Collector
	cfg       *config.Config
}

// New returns a Resolver scoped to a project's Collector and Config (the
// config carries the supportedExtensions/pathAliases tables import
// resolution needs).
func New(c *collector.Collector, cfg *config.Config) *Resolver {
	return &Resolver{collector: c, cfg: cfg}
}

// Resolve converts a batch of PotentialRelationships into deduplicated
// Edges, checking ctx between relationship kinds (spec §5: "the Resolver
// checks it between relationship kinds").
func (r *Resolver) Resolve(ctx context.Context, rels []*ir.PotentialRelationship) ([]*Edge, error) {
	byKind := map[ir.RelationshipKind][]*ir.PotentialRelationship{}
	for _, rel := range rels {
		byKind[rel.Kind] = append(byKind[rel.Kind], rel)
	}

	merged := map[string]*Edge{}
	order := []ir.RelationshipKind{
		ir.RelImports, ir.RelInherits, ir.RelImplements, ir.RelCalls,
		ir.RelApiFetch, ir.RelDatabaseQuery, ir.RelUsesAnnotation,
		ir.RelReferencesType, ir.RelReferencesElement, ir.RelInstantiates,
		ir.RelReads, ir.RelWrites,
	}
	for _, kind := range order {
		select {
		case <-ctx.Done():
			return nil, cgerrors.Wrap(ctx.Err(), "resolver: cancelled between relationship kinds")
		default:
		}
		for _, rel := range byKind[kind] {
			edge := r.resolveOne(rel)
			mergeEdge(merged, edge)
		}
	}

	out := make([]*Edge, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	return out, nil
}

func mergeEdge(merged map[string]*Edge, e *Edge) {
	key := e.identity()
	existing, ok := merged[key]
	if !ok {
		merged[key] = e
		return
	}
	for k, v := range e.Properties {
		if arr, isArr := v.([]string); isArr {
			existingArr, _ := existing.Properties[k].([]string)
			existing.Properties[k] = unionStrings(existingArr, arr)
			continue
		}
		existing.Properties[k] = v
	}
	existing.IsPlaceholder = existing.IsPlaceholder && e.IsPlaceholder
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func (r *Resolver) resolveOne(rel *ir.PotentialRelationship) *Edge {
	switch rel.Kind {
	case ir.RelImports:
		return r.resolveImport(rel)
	case ir.RelInherits, ir.RelImplements:
		return r.resolveHeritage(rel)
	case ir.RelCalls:
		return r.resolveCall(rel)
	case ir.RelApiFetch, ir.RelDatabaseQuery:
		return r.resolveSideEffect(rel)
	default:
		return r.resolveSymbolic(rel)
	}
}

// resolveImport implements spec §4.5's three-tier import priority:
// relative path, then path-alias prefix, then external module.
//
// Open Question resolved (see DESIGN.md): relative paths are tried before
// the alias table because a "./" or "../" prefix is unambiguous, whereas
// an alias match requires walking a map that might also match a relative
// segment coincidentally.
func (r *Resolver) resolveImport(rel *ir.PotentialRelationship) *Edge {
	spec, _ := rel.Properties["moduleSpecifier"].(string)
	if spec == "" {
		spec = rel.TargetPattern
	}

	var candidatePaths []string
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		sourceFile := r.collector.ByID(rel.SourceID)
		dir := "."
		if sourceFile != nil {
			dir = path.Dir(sourceFile.FilePath)
		}
		candidatePaths = r.relativeCandidates(dir, spec)
	} else if r.cfg != nil {
		for prefix, dir := range r.cfg.PathAliases {
			if strings.HasPrefix(spec, prefix) {
				resolved := path.Join(dir, strings.TrimPrefix(spec, prefix))
				candidatePaths = r.relativeCandidates(".", resolved)
				break
			}
		}
	}

	for _, p := range candidatePaths {
		if el := r.collector.ByKindAndName(ir.KindFile, p); len(el) > 0 {
			return &Edge{SourceID: rel.SourceID, Type: ir.RelImports.Upper(), TargetID: el[0].ID,
				Properties: withEdgeProps(rel, false, "")}
		}
	}

	if target, ok := rel.Properties["importedEntityName"].(string); ok && target != "" && target != "default" && target != "*" {
		if candidates := r.collector.ByName(name(rel.TargetPattern)); len(candidates) > 0 {
			return &Edge{SourceID: rel.SourceID, Type: ir.RelImports.Upper(), TargetID: candidates[0].ID,
				Properties: withEdgeProps(rel, false, "")}
		}
	}

	return placeholderEdge(rel, ir.RelImports.Upper(), "no file or symbol matched import specifier "+spec)
}

func (r *Resolver) relativeCandidates(dir, spec string) []string {
	base := path.Clean(path.Join(dir, spec))
	exts := []string{".ts", ".tsx", ".js", ".jsx", ".py", ".go"}
	if r.cfg != nil && len(r.cfg.SupportedExtensions) > 0 {
		exts = r.cfg.SupportedExtensions
	}
	var out []string
	for _, ext := range exts {
		out = append(out, base+ext)
		out = append(out, path.Join(base, "index"+ext))
	}
	return out
}

func name(pattern string) string {
	if idx := strings.LastIndex(pattern, "#"); idx >= 0 {
		return pattern[idx+1:]
	}
	return pattern
}

// resolveHeritage resolves Inherits/Implements against Class and Interface
// elements by simple name: a same-file match first, then the first
// candidate project-wide (there is no same-package tier); EXTENDS for a
// Class base, IMPLEMENTS for an Interface base.
func (r *Resolver) resolveHeritage(rel *ir.PotentialRelationship) *Edge {
	source := r.collector.ByID(rel.SourceID)
	candidates := append(r.collector.ByKindAndName(ir.KindClass, rel.TargetPattern),
		r.collector.ByKindAndName(ir.KindInterface, rel.TargetPattern)...)
	if len(candidates) == 0 {
		return placeholderEdge(rel, rel.Kind.Upper(), "no Class/Interface named "+rel.TargetPattern)
	}

	best := pickByProximity(candidates, source)
	edgeType := "EXTENDS"
	if best.Kind == ir.KindInterface {
		edgeType = "IMPLEMENTS"
	}
	return &Edge{SourceID: rel.SourceID, Type: edgeType, TargetID: best.ID, Properties: withEdgeProps(rel, false, "")}
}

// pickByProximity prefers a same-file match, then falls back to the first
// remaining candidate (same-package/project-wide distinction isn't
// representable with the element index alone, so project-wide is the
// final fallback per spec §4.5).
func pickByProximity(candidates []*ir.Element, source *ir.Element) *ir.Element {
	if source != nil {
		for _, c := range candidates {
			if c.FilePath == source.FilePath {
				return c
			}
		}
	}
	return candidates[0]
}

// resolveCall matches the pattern's simple name against Function and
// Method elements, preferring a same-file match, and otherwise emits a
// placeholder. Import aliases are not consulted, so a call through an
// imported alias resolves by simple name or becomes a placeholder.
func (r *Resolver) resolveCall(rel *ir.PotentialRelationship) *Edge {
	target := name(rel.TargetPattern)
	candidates := append(r.collector.ByKindAndName(ir.KindFunction, target),
		r.collector.ByKindAndName(ir.KindMethod, target)...)
	if len(candidates) == 0 {
		return placeholderEdge(rel, ir.RelCalls.Upper(), "no Function/Method named "+target)
	}
	source := r.collector.ByID(rel.SourceID)
	best := pickByProximity(candidates, source)
	return &Edge{SourceID: rel.SourceID, Type: ir.RelCalls.Upper(), TargetID: best.ID, Properties: withEdgeProps(rel, false, "")}
}

// resolveSideEffect implements spec §4.5's ApiFetch/DatabaseQuery rule:
// the edge always persists with its raw pattern; it additionally binds to
// a matching ApiRouteDefinition when one exists by (httpMethod,
// pathPattern).
func (r *Resolver) resolveSideEffect(rel *ir.PotentialRelationship) *Edge {
	props := withEdgeProps(rel, false, "")
	if rel.Kind != ir.RelApiFetch {
		return &Edge{SourceID: rel.SourceID, Type: rel.Kind.Upper(), TargetID: ir.CanonicalId(rel.TargetPattern), Properties: props}
	}
	method, _ := rel.Properties["httpMethod"].(string)
	for _, el := range r.collector.AllElements() {
		if el.Kind != ir.KindApiRouteDefinition {
			continue
		}
		if el.Properties["httpMethod"] == method && el.Properties["pathPattern"] == rel.TargetPattern {
			props["boundRouteId"] = el.ID
		}
	}
	return &Edge{SourceID: rel.SourceID, Type: rel.Kind.Upper(), TargetID: ir.CanonicalId(rel.TargetPattern), Properties: props}
}

// resolveSymbolic handles UsesAnnotation/ReferencesType/ReferencesElement/
// Instantiates/Reads/Writes: a plain by-name lookup, placeholder
// otherwise.
func (r *Resolver) resolveSymbolic(rel *ir.PotentialRelationship) *Edge {
	candidates := r.collector.ByName(name(rel.TargetPattern))
	if len(candidates) == 0 {
		return placeholderEdge(rel, rel.Kind.Upper(), "no element named "+rel.TargetPattern)
	}
	source := r.collector.ByID(rel.SourceID)
	best := pickByProximity(candidates, source)
	return &Edge{SourceID: rel.SourceID, Type: rel.Kind.Upper(), TargetID: best.ID, Properties: withEdgeProps(rel, false, "")}
}

func placeholderEdge(rel *ir.PotentialRelationship, edgeType, hint string) *Edge {
	props := withEdgeProps(rel, true, hint)
	return &Edge{
		SourceID: rel.SourceID, Type: edgeType,
		TargetID:      ir.CanonicalId("placeholder:" + rel.TargetPattern),
		Properties:    props,
		IsPlaceholder: true,
	}
}

func withEdgeProps(rel *ir.PotentialRelationship, placeholder bool, hint string) ir.Properties {
	props := rel.Properties.Clone()
	if props == nil {
		props = ir.Properties{}
	}
	props["targetPattern"] = rel.TargetPattern
	if placeholder {
		props["isPlaceholder"] = true
		props["resolutionHint"] = hint
	}
	return props
}
