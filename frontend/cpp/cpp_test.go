package cpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

func convert(t *testing.T, src string) *ir.FileIr {
	t.Helper()
	return New().ConvertToIr(frontend.Source{RelativePath: "a.cpp", Extension: ".cpp", Contents: []byte(src)}, "proj")
}

func TestClassHeritageAndMethod(t *testing.T) {
	src := `namespace zoo {
class Dog : public Animal {
	void bark() {
		printf("woof");
	}
};
}
`
	out := convert(t, src)

	var dogID ir.CanonicalId
	var hasMethod bool
	for _, el := range out.Elements {
		if el.Kind == ir.KindClass && el.Name == "Dog" {
			dogID = el.ID
		}
		if el.Kind == ir.KindMethod && el.Name == "bark" {
			hasMethod = true
		}
	}
	require.NotEmpty(t, dogID)
	assert.True(t, hasMethod)

	var extendsAnimal bool
	for _, rel := range out.PotentialRelationships {
		if rel.SourceID == dogID && rel.Kind == ir.RelInherits && rel.TargetPattern == "Animal" {
			extendsAnimal = true
		}
	}
	assert.True(t, extendsAnimal)
}

func TestFreeFunctionNotDoubleCountedAsMethod(t *testing.T) {
	src := `int add(int a, int b) {
	return a + b;
}
`
	out := convert(t, src)
	var fnCount int
	for _, el := range out.Elements {
		if el.Kind == ir.KindFunction && el.Name == "add" {
			fnCount++
		}
	}
	assert.Equal(t, 1, fnCount)
}

func TestMacroDeclarationBecomesGenericElement(t *testing.T) {
	src := `REGISTER_PLUGIN(MyPlugin);
`
	out := convert(t, src)
	var found bool
	for _, el := range out.Elements {
		if el.Kind == ir.KindGenericElement {
			found = true
		}
	}
	assert.True(t, found)
}
