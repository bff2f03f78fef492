package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/collector"
	"github.com/viant/codegraph/config"
	"github.com/viant/codegraph/ir"
)

func newTestCollector(elements []*ir.Element, rels map[string][]*ir.PotentialRelationship) *collector.Collector {
	c := collector.New()
	for path, r := range rels {
		c.Ingest(&ir.FileIr{FilePath: path, Elements: elementsForFile(elements, path), PotentialRelationships: r})
	}
	return c
}

func elementsForFile(elements []*ir.Element, path string) []*ir.Element {
	var out []*ir.Element
	for _, el := range elements {
		if el.FilePath == path {
			out = append(out, el)
		}
	}
	return out
}

func TestHeritageResolvesExtendsAndImplements(t *testing.T) {
	animal := &ir.Element{ID: "animal", Kind: ir.KindClass, Name: "Animal", FilePath: "a.ts"}
	bark := &ir.Element{ID: "ibark", Kind: ir.KindInterface, Name: "IBark", FilePath: "a.ts"}
	dog := &ir.Element{ID: "dog", Kind: ir.KindClass, Name: "Dog", FilePath: "a.ts"}

	rels := map[string][]*ir.PotentialRelationship{
		"a.ts": {
			{SourceID: "dog", Kind: ir.RelInherits, TargetPattern: "Animal"},
			{SourceID: "dog", Kind: ir.RelImplements, TargetPattern: "IBark"},
		},
	}
	c := newTestCollector([]*ir.Element{animal, bark, dog}, rels)
	r := New(c, config.Default())

	edges, err := r.Resolve(context.Background(), c.AllRelationships())
	require.NoError(t, err)
	require.Len(t, edges, 2)

	byType := map[string]*Edge{}
	for _, e := range edges {
		byType[e.Type] = e
	}
	require.Contains(t, byType, "EXTENDS")
	require.Contains(t, byType, "IMPLEMENTS")
	assert.Equal(t, ir.CanonicalId("animal"), byType["EXTENDS"].TargetID)
	assert.Equal(t, ir.CanonicalId("ibark"), byType["IMPLEMENTS"].TargetID)
	assert.False(t, byType["EXTENDS"].IsPlaceholder)
}

func TestImportResolvesRelativePath(t *testing.T) {
	util := &ir.Element{ID: "fileutil", Kind: ir.KindFile, Name: "src/util.ts", FilePath: "src/util.ts"}
	main := &ir.Element{ID: "filemain", Kind: ir.KindFile, Name: "src/main.ts", FilePath: "src/main.ts"}

	rels := map[string][]*ir.PotentialRelationship{
		"src/main.ts": {
			{SourceID: "filemain", Kind: ir.RelImports, TargetPattern: "./util", Properties: ir.Properties{"moduleSpecifier": "./util"}},
		},
	}
	c := newTestCollector([]*ir.Element{util, main}, rels)
	cfg := config.Default()
	r := New(c, cfg)

	edges, err := r.Resolve(context.Background(), c.AllRelationships())
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "IMPORTS", edges[0].Type)
	assert.False(t, edges[0].IsPlaceholder)
	assert.Equal(t, ir.CanonicalId("fileutil"), edges[0].TargetID)
}

func TestImportUnresolvedBecomesPlaceholder(t *testing.T) {
	main := &ir.Element{ID: "filemain", Kind: ir.KindFile, Name: "src/main.ts", FilePath: "src/main.ts"}
	rels := map[string][]*ir.PotentialRelationship{
		"src/main.ts": {
			{SourceID: "filemain", Kind: ir.RelImports, TargetPattern: "react", Properties: ir.Properties{"moduleSpecifier": "react"}},
		},
	}
	c := newTestCollector([]*ir.Element{main}, rels)
	r := New(c, config.Default())

	edges, err := r.Resolve(context.Background(), c.AllRelationships())
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].IsPlaceholder)
	assert.Equal(t, "react", edges[0].Properties["resolutionHint"].(string)[len(edges[0].Properties["resolutionHint"].(string))-5:])
}

func TestApiFetchBindsMatchingRouteDefinition(t *testing.T) {
	handler := &ir.Element{ID: "handler", Kind: ir.KindFunction, Name: "getUser", FilePath: "client.ts"}
	route := &ir.Element{ID: "route", Kind: ir.KindApiRouteDefinition, Name: "GET /users",
		Properties: ir.Properties{"httpMethod": "GET", "pathPattern": "/users"}, FilePath: "server.py"}

	rels := map[string][]*ir.PotentialRelationship{
		"client.ts": {
			{SourceID: "handler", Kind: ir.RelApiFetch, TargetPattern: "/users", Properties: ir.Properties{"httpMethod": "GET"}},
		},
	}
	c := newTestCollector([]*ir.Element{handler, route}, rels)
	r := New(c, config.Default())

	edges, err := r.Resolve(context.Background(), c.AllRelationships())
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, ir.CanonicalId("route"), edges[0].Properties["boundRouteId"])
}

func TestEdgeIdentityMergeUnionsArrayProperties(t *testing.T) {
	foo := &ir.Element{ID: "foo", Kind: ir.KindFunction, Name: "foo", FilePath: "a.py"}
	handler := &ir.Element{ID: "handler", Kind: ir.KindFunction, Name: "handler", FilePath: "a.py"}

	rels := map[string][]*ir.PotentialRelationship{
		"a.py": {
			{SourceID: "handler", Kind: ir.RelUsesAnnotation, TargetPattern: "foo", Properties: ir.Properties{"tags": []string{"route"}}},
			{SourceID: "handler", Kind: ir.RelUsesAnnotation, TargetPattern: "foo", Properties: ir.Properties{"tags": []string{"auth"}}},
		},
	}
	c := newTestCollector([]*ir.Element{foo, handler}, rels)
	r := New(c, config.Default())

	edges, err := r.Resolve(context.Background(), c.AllRelationships())
	require.NoError(t, err)
	require.Len(t, edges, 1)
	tags, _ := edges[0].Properties["tags"].([]string)
	assert.ElementsMatch(t, []string{"route", "auth"}, tags)
}

func TestResolveIsIdempotent(t *testing.T) {
	animal := &ir.Element{ID: "animal", Kind: ir.KindClass, Name: "Animal", FilePath: "a.ts"}
	dog := &ir.Element{ID: "dog", Kind: ir.KindClass, Name: "Dog", FilePath: "a.ts"}
	rels := map[string][]*ir.PotentialRelationship{
		"a.ts": {{SourceID: "dog", Kind: ir.RelInherits, TargetPattern: "Animal"}},
	}
	c := newTestCollector([]*ir.Element{animal, dog}, rels)
	r := New(c, config.Default())

	first, err := r.Resolve(context.Background(), c.AllRelationships())
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), c.AllRelationships())
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].SourceID, second[0].SourceID)
	assert.Equal(t, first[0].Type, second[0].Type)
	assert.Equal(t, first[0].TargetID, second[0].TargetID)
}
