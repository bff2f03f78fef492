package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/config"
	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/frontend/golang"
	"github.com/viant/codegraph/graphstore"
	"github.com/viant/codegraph/ir"
)

type fakeStore struct {
	applied []graphstore.GraphMutation
	deleted []ir.CanonicalId
}

func (f *fakeStore) Apply(ctx context.Context, batch []graphstore.GraphMutation) error {
	f.applied = append(f.applied, batch...)
	return nil
}

func (f *fakeStore) DeleteNodes(ctx context.Context, ids []ir.CanonicalId) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}

func newTestDriver(t *testing.T, store *fakeStore) *Driver {
	t.Helper()
	cfg := config.Default()
	cfg.ProjectID = "proj"
	cfg.CacheDir = t.TempDir()
	factory := frontend.NewFactory(golang.New())
	d, err := New(cfg, factory, store, nil)
	require.NoError(t, err)
	return d
}

func TestAnalyzeFileEmitsNodes(t *testing.T) {
	store := &fakeStore{}
	d := newTestDriver(t, store)

	src := frontend.Source{
		RelativePath: "pkg/a.go", Extension: ".go",
		Contents: []byte("package pkg\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n"),
	}
	summary, err := d.AnalyzeFile(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesAnalyzed)
	assert.Greater(t, summary.NodesEmitted, 0)
	assert.NotEmpty(t, store.applied)
}

func TestAnalyzeFileIncrementalDeletesStaleElements(t *testing.T) {
	store := &fakeStore{}
	d := newTestDriver(t, store)
	ctx := context.Background()

	first := frontend.Source{
		RelativePath: "pkg/a.go", Extension: ".go",
		Contents: []byte("package pkg\n\nfunc A() {}\nfunc B() {}\nfunc C() {}\n"),
	}
	_, err := d.AnalyzeFile(ctx, first)
	require.NoError(t, err)
	previousIDs := d.entities.IDsForFile("pkg/a.go")
	require.Len(t, previousIDs, 5) // file + package + 3 funcs

	second := frontend.Source{
		RelativePath: "pkg/a.go", Extension: ".go",
		Contents: []byte("package pkg\n\nfunc A() {}\nfunc D() {}\n"),
	}
	_, err = d.AnalyzeFile(ctx, second)
	require.NoError(t, err)

	assert.NotEmpty(t, store.deleted)
	currentIDs := d.entities.IDsForFile("pkg/a.go")
	assert.Len(t, currentIDs, 4) // file + package + A + D
}

func TestAnalyzeFileSkipsUnknownLanguage(t *testing.T) {
	store := &fakeStore{}
	d := newTestDriver(t, store)

	src := frontend.Source{RelativePath: "README.md", Extension: ".md", Contents: []byte("# hi")}
	summary, err := d.AnalyzeFile(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesSkipped)
	assert.Empty(t, store.applied)
}

func TestDefaultFactoryDispatchesEveryRegisteredLanguage(t *testing.T) {
	store := &fakeStore{}
	cfg := config.Default()
	cfg.ProjectID = "proj"
	cfg.CacheDir = t.TempDir()
	d, err := New(cfg, DefaultFactory(), store, nil)
	require.NoError(t, err)

	sources := []frontend.Source{
		{RelativePath: "a.go", Extension: ".go", Contents: []byte("package a\n")},
		{RelativePath: "a.ts", Extension: ".ts", Contents: []byte("export class Dog {}\n")},
		{RelativePath: "a.tsx", Extension: ".tsx", Contents: []byte("export const X = () => null;\n")},
		{RelativePath: "a.py", Extension: ".py", Contents: []byte("class Dog:\n    pass\n")},
		{RelativePath: "a.java", Extension: ".java", Contents: []byte("class Dog {}\n")},
		{RelativePath: "a.cs", Extension: ".cs", Contents: []byte("class Dog {}\n")},
		{RelativePath: "a.cpp", Extension: ".cpp", Contents: []byte("class Dog {};\n")},
		{RelativePath: "a.c", Extension: ".c", Contents: []byte("int main() { return 0; }\n")},
		{RelativePath: "a.sql", Extension: ".sql", Contents: []byte("CREATE TABLE public.dogs(id INT);\n")},
	}
	for _, src := range sources {
		summary, err := d.AnalyzeFile(context.Background(), src)
		require.NoError(t, err, src.RelativePath)
		assert.Equal(t, 0, summary.FilesSkipped, src.RelativePath)
	}
}
