package python

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

func convert(t *testing.T, src string) *ir.FileIr {
	t.Helper()
	return New().ConvertToIr(frontend.Source{RelativePath: "a.py", Extension: ".py", Contents: []byte(src)}, "proj")
}

func TestRouteAndDatabaseQuery(t *testing.T) {
	src := "@app.get(\"/users/{id}\")\ndef get_user(id): return db.execute(\"SELECT * FROM users WHERE id=?\", id)\n"
	out := convert(t, src)

	var handlerID ir.CanonicalId
	for _, el := range out.Elements {
		if el.Kind == ir.KindFunction && el.Name == "get_user" {
			handlerID = el.ID
		}
	}
	require.NotEmpty(t, handlerID)

	var route *ir.Element
	for _, el := range out.Elements {
		if el.Kind == ir.KindApiRouteDefinition {
			route = el
		}
	}
	require.NotNil(t, route)
	assert.Equal(t, "GET", route.Properties["httpMethod"])
	assert.Equal(t, "/users/{id}", route.Properties["pathPattern"])
	assert.Equal(t, handlerID, route.Properties["handlerId"])

	var hasQuery, hasAnnotation bool
	for _, rel := range out.PotentialRelationships {
		if rel.Kind == ir.RelDatabaseQuery && rel.SourceID == handlerID {
			hasQuery = true
			assert.Equal(t, "SELECT * FROM users WHERE id=?", rel.Properties["rawSql"])
		}
		if rel.Kind == ir.RelUsesAnnotation && rel.SourceID == handlerID {
			hasAnnotation = true
			assert.Equal(t, "app.get", rel.TargetPattern)
		}
	}
	assert.True(t, hasQuery)
	assert.True(t, hasAnnotation)
}

func TestImportAliasSplitting(t *testing.T) {
	src := "import a, b as c\nfrom m import x, y as z\n"
	out := convert(t, src)

	var targets []string
	for _, rel := range out.PotentialRelationships {
		require.Equal(t, ir.RelImports, rel.Kind)
		targets = append(targets, rel.TargetPattern)
	}
	assert.Contains(t, targets, "a")
	assert.Contains(t, targets, "b")
	assert.Contains(t, targets, "m#x")
	assert.Contains(t, targets, "m#y")
}

func TestSelfExcludedFromParameters(t *testing.T) {
	src := "class Greeter:\n    def hello(self, name):\n        pass\n"
	out := convert(t, src)

	var method *ir.Element
	for _, el := range out.Elements {
		if el.Kind == ir.KindMethod && el.Name == "hello" {
			method = el
		}
	}
	require.NotNil(t, method)
	assert.Equal(t, "name", method.Properties["parameters"])
	assert.Equal(t, []string{"self"}, method.Properties["implicitParameters"])
}

func TestMultiLineFunctionSignature(t *testing.T) {
	src := "def create_user(\n    name,\n    email,\n    role='member',\n):\n    pass\n"
	out := convert(t, src)

	var fn *ir.Element
	for _, el := range out.Elements {
		if el.Kind == ir.KindFunction && el.Name == "create_user" {
			fn = el
		}
	}
	require.NotNil(t, fn, "multi-line def must still produce a Function element")
	assert.Equal(t, "name,email,role", fn.Properties["parameters"])
}

func TestNestedClassMethodBinding(t *testing.T) {
	src := "class Outer:\n    class Inner:\n        def ping(self):\n            pass\n"
	out := convert(t, src)

	var method *ir.Element
	for _, el := range out.Elements {
		if el.Kind == ir.KindMethod && el.Name == "ping" {
			method = el
		}
	}
	require.NotNil(t, method)
}

func TestAsyncDef(t *testing.T) {
	src := "async def fetch_all():\n    pass\n"
	out := convert(t, src)
	var fn *ir.Element
	for _, el := range out.Elements {
		if el.Kind == ir.KindFunction && el.Name == "fetch_all" {
			fn = el
		}
	}
	require.NotNil(t, fn)
	assert.Equal(t, true, fn.Properties["isAsync"])
}
