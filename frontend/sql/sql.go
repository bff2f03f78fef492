// Package sql is the SQL LanguageFrontend (SPEC_FULL.md §4.3, scenario 5):
// CREATE SCHEMA / CREATE TABLE / CREATE VIEW statements become
// DatabaseSchemaDefinition/DatabaseTable/DatabaseView elements walked off
// the real parsed statement nodes, and each column_definition inside a
// CREATE TABLE's column list becomes a DatabaseColumn whose parentId is the
// owning table's CanonicalId, grounded on inspector/graph/types.go's
// Type/Field shape repurposed for table/column.
package sql

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	sqlsitter "github.com/smacker/go-tree-sitter/sql"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

type Frontend struct {
	parsers *frontend.ParserPool
}

func New() *Frontend {
	return &Frontend{parsers: frontend.NewParserPool(sqlsitter.GetLanguage())}
}

func (f *Frontend) Language() ir.Language { return ir.LangSQL }

func (f *Frontend) ConvertToIr(src frontend.Source, projectID string) *ir.FileIr {
	out := ir.NewFileIr(projectID, src.RelativePath, ir.LangSQL)
	minter := ir.NewMinter(projectID)

	tree := f.parsers.Parse(src.Contents)
	if tree == nil || tree.RootNode() == nil {
		out.AddError("failed to parse SQL source", ir.Location{})
		return out
	}
	root := tree.RootNode()

	fileID := minter.Mint(ir.KindFile, src.RelativePath)
	out.FileID = fileID
	out.AddElement(&ir.Element{
		ID: fileID, Kind: ir.KindFile, Name: src.RelativePath, FilePath: src.RelativePath,
		Location:   loc(root),
		Properties: ir.Properties{"language": string(ir.LangSQL)},
	})

	w := &walker{out: out, minter: minter, src: src.Contents, path: src.RelativePath, fileID: fileID, schemaIDs: map[string]ir.CanonicalId{}}
	w.walk(root)
	return out
}

type walker struct {
	out       *ir.FileIr
	minter    *ir.Minter
	src       []byte
	path      string
	fileID    ir.CanonicalId
	schemaIDs map[string]ir.CanonicalId
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.src[n.StartByte():n.EndByte()])
}

func loc(n *sitter.Node) ir.Location {
	if n == nil {
		return ir.Location{}
	}
	return ir.Location{
		StartLine: int(n.StartPoint().Row) + 1,
		StartCol:  int(n.StartPoint().Column),
		EndLine:   int(n.EndPoint().Row) + 1,
		EndCol:    int(n.EndPoint().Column),
	}
}

func firstChildOfType(n *sitter.Node, t string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == t {
			return c
		}
	}
	return nil
}

func unquoteIdent(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

func splitQualified(qualified string) (schema, name string) {
	parts := strings.Split(qualified, ".")
	if len(parts) == 1 {
		return "public", parts[0]
	}
	return parts[0], parts[len(parts)-1]
}

// walk dispatches CREATE SCHEMA/TABLE/VIEW statement nodes found anywhere
// in the parsed tree; statement wrapper nesting varies across SQL dialect
// grammars, so the dispatch descends generically until it hits one.
func (w *walker) walk(n *sitter.Node) {
	switch n.Type() {
	case "create_schema", "create_schema_statement":
		w.handleSchema(n)
		return
	case "create_table", "create_table_statement":
		w.handleTable(n)
		return
	case "create_view", "create_view_statement":
		w.handleView(n)
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
}

// nameOf reads a statement's declared name field, falling back to the
// grammar's qualified-reference or bare-identifier node shape.
func (w *walker) nameOf(n *sitter.Node) *sitter.Node {
	if name := n.ChildByFieldName("name"); name != nil {
		return name
	}
	if ref := firstChildOfType(n, "object_reference"); ref != nil {
		return ref
	}
	return firstChildOfType(n, "identifier")
}

func (w *walker) schemaIDFor(schema string) ir.CanonicalId {
	if id, ok := w.schemaIDs[schema]; ok {
		return id
	}
	return w.minter.Mint(ir.KindDatabaseSchemaDefinition, schema)
}

func (w *walker) handleSchema(n *sitter.Node) {
	nameNode := w.nameOf(n)
	if nameNode == nil {
		return
	}
	name := unquoteIdent(w.text(nameNode))
	id := w.minter.Mint(ir.KindDatabaseSchemaDefinition, name)
	w.schemaIDs[name] = id
	w.out.AddElement(&ir.Element{
		ID: id, Kind: ir.KindDatabaseSchemaDefinition, Name: name, FilePath: w.path,
		Location: loc(n), Properties: ir.Properties{"parentId": w.fileID},
	})
}

func (w *walker) handleTable(n *sitter.Node) {
	nameNode := w.nameOf(n)
	if nameNode == nil {
		return
	}
	schema, tableName := splitQualified(unquoteIdent(w.text(nameNode)))
	fragment := schema + "." + tableName
	tableID := w.minter.Mint(ir.KindDatabaseTable, fragment)
	w.out.AddElement(&ir.Element{
		ID: tableID, Kind: ir.KindDatabaseTable, Name: fragment, FilePath: w.path,
		Location: loc(n), Properties: ir.Properties{"parentId": w.schemaIDFor(schema)},
	})

	columns := n.ChildByFieldName("parameters")
	if columns == nil {
		columns = firstChildOfType(n, "column_definitions")
	}
	if columns == nil {
		return
	}
	for i := 0; i < int(columns.ChildCount()); i++ {
		c := columns.Child(i)
		if c.Type() != "column_definition" {
			continue
		}
		colNameNode := c.ChildByFieldName("name")
		if colNameNode == nil {
			colNameNode = firstChildOfType(c, "identifier")
		}
		if colNameNode == nil {
			continue
		}
		colName := unquoteIdent(w.text(colNameNode))
		colType := ""
		if t := c.ChildByFieldName("type"); t != nil {
			colType = w.text(t)
		}
		colFragment := schema + "." + tableName + "." + colName
		colID := w.minter.Mint(ir.KindDatabaseColumn, colFragment)
		w.out.AddElement(&ir.Element{
			ID: colID, Kind: ir.KindDatabaseColumn, Name: colFragment, FilePath: w.path,
			Location: loc(c), Properties: ir.Properties{"parentId": tableID, "dataType": colType},
		})
	}
}

func (w *walker) handleView(n *sitter.Node) {
	nameNode := w.nameOf(n)
	if nameNode == nil {
		return
	}
	schema, viewName := splitQualified(unquoteIdent(w.text(nameNode)))
	fragment := schema + "." + viewName
	viewID := w.minter.Mint(ir.KindDatabaseView, fragment)
	w.out.AddElement(&ir.Element{
		ID: viewID, Kind: ir.KindDatabaseView, Name: fragment, FilePath: w.path,
		Location: loc(n), Properties: ir.Properties{"parentId": w.schemaIDFor(schema)},
	})
}
