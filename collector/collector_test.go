package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/codegraph/ir"
)

func fileIr(path string, elements ...*ir.Element) *ir.FileIr {
	f := ir.NewFileIr("proj", path, ir.LangGo)
	f.Elements = elements
	return f
}

func TestIngestDedupLastWriterWins(t *testing.T) {
	c := New()
	el1 := &ir.Element{ID: "a", Kind: ir.KindFunction, Name: "Foo", FilePath: "a.go"}
	c.Ingest(fileIr("a.go", el1))

	el2 := &ir.Element{ID: "a", Kind: ir.KindFunction, Name: "Foo", FilePath: "a.go", Properties: ir.Properties{"v": 2}}
	c.Ingest(fileIr("a.go", el2))

	got := c.ByID("a")
	assert.Same(t, el2, got)
	assert.Len(t, c.AllElements(), 1)
}

func TestIngestReanalysisReplacesOnlyOwnFile(t *testing.T) {
	c := New()
	c.Ingest(fileIr("a.go", &ir.Element{ID: "a1", Kind: ir.KindFunction, Name: "A", FilePath: "a.go"}))
	c.Ingest(fileIr("b.go", &ir.Element{ID: "b1", Kind: ir.KindFunction, Name: "B", FilePath: "b.go"}))

	// re-analyze a.go with a shrunk element set
	c.Ingest(fileIr("a.go"))

	assert.Nil(t, c.ByID("a1"))
	assert.NotNil(t, c.ByID("b1"))
}

func TestByKindAndName(t *testing.T) {
	c := New()
	c.Ingest(fileIr("a.ts",
		&ir.Element{ID: "1", Kind: ir.KindClass, Name: "Dog", FilePath: "a.ts"},
		&ir.Element{ID: "2", Kind: ir.KindInterface, Name: "Dog", FilePath: "a.ts"},
	))

	classes := c.ByKindAndName(ir.KindClass, "Dog")
	assert.Len(t, classes, 1)
	assert.Equal(t, ir.CanonicalId("1"), classes[0].ID)

	all := c.ByName("Dog")
	assert.Len(t, all, 2)
}

func TestIDsForFile(t *testing.T) {
	c := New()
	c.Ingest(fileIr("a.go",
		&ir.Element{ID: "a1", Kind: ir.KindFunction, Name: "A", FilePath: "a.go"},
		&ir.Element{ID: "a2", Kind: ir.KindFunction, Name: "B", FilePath: "a.go"},
	))
	ids := c.IDsForFile("a.go")
	assert.ElementsMatch(t, []ir.CanonicalId{"a1", "a2"}, ids)
}
