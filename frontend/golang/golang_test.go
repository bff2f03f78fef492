package golang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

func convert(t *testing.T, src string) *ir.FileIr {
	t.Helper()
	fe := New()
	return fe.ConvertToIr(frontend.Source{RelativePath: "a.go", Extension: ".go", Contents: []byte(src)}, "proj")
}

func TestGoStructAndMethod(t *testing.T) {
	src := `package pkg

type Animal struct {
	Name string
}

type Dog struct {
	Animal
}

func (d *Dog) Bark() string {
	return d.Name
}
`
	out := convert(t, src)
	require.NotEmpty(t, out.Elements)

	var classNames []string
	var hasMethod bool
	for _, el := range out.Elements {
		if el.Kind == ir.KindClass {
			classNames = append(classNames, el.Name)
		}
		if el.Kind == ir.KindMethod && el.Name == "Bark" {
			hasMethod = true
		}
	}
	assert.Contains(t, classNames, "Animal")
	assert.Contains(t, classNames, "Dog")
	assert.True(t, hasMethod)

	var embeds bool
	for _, rel := range out.PotentialRelationships {
		if rel.Kind == ir.RelInherits && rel.TargetPattern == "Animal" {
			embeds = true
		}
	}
	assert.True(t, embeds, "expected embedding to surface as an Inherits candidate")
}

func TestGoImports(t *testing.T) {
	src := `package pkg

import (
	"fmt"
	alias "strings"
)
`
	out := convert(t, src)
	var specifiers []string
	for _, rel := range out.PotentialRelationships {
		if rel.Kind == ir.RelImports {
			specifiers = append(specifiers, rel.TargetPattern)
		}
	}
	assert.Contains(t, specifiers, "fmt")
	assert.Contains(t, specifiers, "strings")
}

func TestGoInterfaceAssertionIsImplementsCandidate(t *testing.T) {
	src := `package pkg

type Iface interface {
	Do()
}

type T struct{}

var _ Iface = (*T)(nil)
`
	out := convert(t, src)
	var found bool
	for _, rel := range out.PotentialRelationships {
		if rel.Kind == ir.RelImplements && rel.TargetPattern == "Iface" {
			found = true
		}
	}
	assert.True(t, found)
}
