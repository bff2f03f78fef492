package csharp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

func convert(t *testing.T, src string) *ir.FileIr {
	t.Helper()
	return New().ConvertToIr(frontend.Source{RelativePath: "a.cs", Extension: ".cs", Contents: []byte(src)}, "proj")
}

func TestClassInheritance(t *testing.T) {
	src := `namespace Example;

public class Dog : Animal, IBarkable {
	public void Bark() {
		Console.WriteLine("woof");
	}
}
`
	out := convert(t, src)

	var dogID ir.CanonicalId
	for _, el := range out.Elements {
		if el.Kind == ir.KindClass && el.Name == "Dog" {
			dogID = el.ID
		}
	}
	require.NotEmpty(t, dogID)

	var extendsAnimal, implementsIBarkable bool
	for _, rel := range out.PotentialRelationships {
		if rel.SourceID != dogID {
			continue
		}
		if rel.Kind == ir.RelInherits && rel.TargetPattern == "Animal" {
			extendsAnimal = true
		}
		if rel.Kind == ir.RelImplements && rel.TargetPattern == "IBarkable" {
			implementsIBarkable = true
		}
	}
	assert.True(t, extendsAnimal)
	assert.True(t, implementsIBarkable)
}

func TestHttpGetAttributeBecomesRoute(t *testing.T) {
	src := `namespace Example;

public class UsersController {
	[HttpGet("/users")]
	public IActionResult ListUsers() {
		return Ok(repository.FindAll());
	}
}
`
	out := convert(t, src)

	var route *ir.Element
	for _, el := range out.Elements {
		if el.Kind == ir.KindApiRouteDefinition {
			route = el
		}
	}
	require.NotNil(t, route)
	assert.Equal(t, "GET", route.Properties["httpMethod"])
	assert.Equal(t, "/users", route.Properties["pathPattern"])
}

func TestSqlCommandBecomesDatabaseQuery(t *testing.T) {
	src := `namespace Example;

public class UserDao {
	public void DeleteAll() {
		var cmd = new SqlCommand("DELETE FROM users", connection);
	}
}
`
	out := convert(t, src)

	var found bool
	for _, rel := range out.PotentialRelationships {
		if rel.Kind == ir.RelDatabaseQuery {
			found = true
			assert.Equal(t, "DELETE FROM users", rel.Properties["rawSql"])
		}
	}
	assert.True(t, found)
}
