package java

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

func convert(t *testing.T, src string) *ir.FileIr {
	t.Helper()
	return New().ConvertToIr(frontend.Source{RelativePath: "a.java", Extension: ".java", Contents: []byte(src)}, "proj")
}

func TestClassHeritageAndMethod(t *testing.T) {
	src := `package com.example;

public class Dog extends Animal implements Barkable {
	public void bark() {
		System.out.println("woof");
	}
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

	var extendsAnimal, implementsBarkable bool
	for _, rel := range out.PotentialRelationships {
		if rel.SourceID != dogID {
			continue
		}
		if rel.Kind == ir.RelInherits && rel.TargetPattern == "Animal" {
			extendsAnimal = true
		}
		if rel.Kind == ir.RelImplements && rel.TargetPattern == "Barkable" {
			implementsBarkable = true
		}
	}
	assert.True(t, extendsAnimal)
	assert.True(t, implementsBarkable)
}

func TestRequestMappingAnnotationBecomesRoute(t *testing.T) {
	src := `package com.example;

public class UserController {
	@GetMapping("/users")
	public List<User> listUsers() {
		return repository.findAll();
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

	var hasAnnotationEdge bool
	for _, rel := range out.PotentialRelationships {
		if rel.Kind == ir.RelUsesAnnotation && rel.TargetPattern == "@GetMapping" {
			hasAnnotationEdge = true
		}
	}
	assert.True(t, hasAnnotationEdge)
}

func TestJdbcExecuteBecomesDatabaseQuery(t *testing.T) {
	src := `package com.example;

public class UserDao {
	public void deleteAll() {
		statement.executeUpdate("DELETE FROM users");
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
