package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

func TestSchemaTableColumn(t *testing.T) {
	src := "CREATE SCHEMA public;\nCREATE TABLE public.users(email VARCHAR(255));\n"
	out := New().ConvertToIr(frontend.Source{RelativePath: "schema.sql", Extension: ".sql", Contents: []byte(src)}, "proj")

	var schema, table, column *ir.Element
	for _, el := range out.Elements {
		switch el.Kind {
		case ir.KindDatabaseSchemaDefinition:
			schema = el
		case ir.KindDatabaseTable:
			table = el
		case ir.KindDatabaseColumn:
			column = el
		}
	}
	require.NotNil(t, schema)
	require.NotNil(t, table)
	require.NotNil(t, column)

	assert.Equal(t, "public", schema.Name)
	assert.Equal(t, "public.users", table.Name)
	assert.Equal(t, "public.users.email", column.Name)
	assert.Equal(t, table.ID, column.Properties["parentId"])
}

func TestViewDefinition(t *testing.T) {
	src := "CREATE VIEW public.active_users AS SELECT * FROM public.users WHERE active = true;\n"
	out := New().ConvertToIr(frontend.Source{RelativePath: "view.sql", Extension: ".sql", Contents: []byte(src)}, "proj")

	var view *ir.Element
	for _, el := range out.Elements {
		if el.Kind == ir.KindDatabaseView {
			view = el
		}
	}
	require.NotNil(t, view)
	assert.Equal(t, "public.active_users", view.Name)
}
