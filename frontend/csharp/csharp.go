// Package csharp is the C# LanguageFrontend (SPEC_FULL.md §4.3): a concrete
// syntax tree walk over namespace/class/interface/struct/method
// declarations, pushing a container stack as the walker enters a type or
// method body. Attribute extraction walks the real `attribute_list`/
// `attribute` nodes rather than scanning comment-adjacent lines, the same
// annotation-AST shape frontend/java applies to Java's `modifiers` node
// (both grounded on analyzer/meta.go's annotation-AST walk).
package csharp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	csharpsitter "github.com/smacker/go-tree-sitter/csharp"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

type Frontend struct {
	parsers *frontend.ParserPool
}

func New() *Frontend {
	return &Frontend{parsers: frontend.NewParserPool(csharpsitter.GetLanguage())}
}

func (f *Frontend) Language() ir.Language { return ir.LangCSharp }

// routeAttrs maps an ASP.NET routing attribute's simple name
// (case-insensitive) to its implied HTTP verb; Route carries no implied
// verb and defaults to GET.
var routeAttrs = map[string]string{
	"httpget": "GET", "httppost": "POST", "httpput": "PUT",
	"httpdelete": "DELETE", "httppatch": "PATCH", "route": "",
}

func (f *Frontend) ConvertToIr(src frontend.Source, projectID string) *ir.FileIr {
	out := ir.NewFileIr(projectID, src.RelativePath, ir.LangCSharp)
	minter := ir.NewMinter(projectID)

	tree := f.parsers.Parse(src.Contents)
	if tree == nil || tree.RootNode() == nil {
		out.AddError("failed to parse C# source", ir.Location{})
		return out
	}
	root := tree.RootNode()

	fileID := minter.Mint(ir.KindFile, src.RelativePath)
	out.FileID = fileID
	fileEl := out.AddElement(&ir.Element{
		ID: fileID, Kind: ir.KindFile, Name: src.RelativePath, FilePath: src.RelativePath,
		Location:   loc(root),
		Properties: ir.Properties{"language": string(ir.LangCSharp)},
	})

	w := &walker{out: out, minter: minter, src: src.Contents, path: src.RelativePath, fileID: fileID, stack: frontend.NewContainerStack(fileEl)}

	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c.Type() == "namespace_declaration" || c.Type() == "file_scoped_namespace_declaration" {
			if body := w.handleNamespace(c); body != nil {
				w.walk(body)
				w.stack.Pop()
			}
			break
		}
	}
	w.walk(root)
	return out
}

type csharpAttribute struct {
	name string
	args *sitter.Node
}

type walker struct {
	out    *ir.FileIr
	minter *ir.Minter
	src    []byte
	path   string
	fileID ir.CanonicalId
	stack  *frontend.ContainerStack
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

// findStringLiteral descends n looking for the first string_literal node,
// used to pull an attribute/constructor argument's literal value without
// depending on the exact shape tree-sitter-c-sharp wraps it in.
func (w *walker) findStringLiteral(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "string_literal" {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if s := w.findStringLiteral(n.Child(i)); s != nil {
			return s
		}
	}
	return nil
}

func (w *walker) stringLiteralValue(n *sitter.Node) string {
	raw := strings.TrimPrefix(w.text(n), "@")
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// walk descends the tree uniformly, dispatching declarations to their own
// handler (which recurses into its own body) and inspecting
// object_creation_expression nodes for the SqlCommand database-query
// heuristic; everything else is descended into (spec's non-goal excludes
// exhaustive dataflow, so this never attempts full call-graph resolution).
func (w *walker) walk(n *sitter.Node) {
	switch n.Type() {
	case "namespace_declaration", "file_scoped_namespace_declaration":
		return
	case "using_directive":
		w.handleUsing(n)
		return
	case "class_declaration":
		w.handleTypeDecl(n, ir.KindClass)
		return
	case "interface_declaration":
		w.handleTypeDecl(n, ir.KindInterface)
		return
	case "struct_declaration":
		w.handleTypeDecl(n, ir.KindClass)
		return
	case "method_declaration":
		w.handleMethod(n)
		return
	case "object_creation_expression":
		w.handleObjectCreation(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
}

func (w *walker) handleNamespace(n *sitter.Node) *sitter.Node {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = firstChildOfType(n, "qualified_name")
	}
	if nameNode == nil {
		nameNode = firstChildOfType(n, "identifier")
	}
	if nameNode == nil {
		return nil
	}
	name := w.text(nameNode)
	id := w.minter.Mint(ir.KindPackage, name)
	el := w.out.AddElement(&ir.Element{
		ID: id, Kind: ir.KindPackage, Name: name, FilePath: w.path,
		Location: loc(n), Properties: w.stack.WithParent(nil),
	})
	w.stack.Push(el)
	return n.ChildByFieldName("body")
}

func (w *walker) handleUsing(n *sitter.Node) {
	isStatic := false
	var nameNode *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "static":
			isStatic = true
		case "qualified_name", "identifier":
			nameNode = c
		}
	}
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID: w.fileID, Kind: ir.RelImports, TargetPattern: name, Location: loc(n),
		Properties: ir.Properties{"moduleSpecifier": name, "isStatic": isStatic},
	})
}

// attributesOf reads the attribute nodes out of a declaration's
// attribute_list children, keeping each one's argument list for route
// detection.
func (w *walker) attributesOf(n *sitter.Node) []csharpAttribute {
	var out []csharpAttribute
	for i := 0; i < int(n.ChildCount()); i++ {
		list := n.Child(i)
		if list.Type() != "attribute_list" {
			continue
		}
		for j := 0; j < int(list.ChildCount()); j++ {
			a := list.Child(j)
			if a.Type() != "attribute" {
				continue
			}
			args := a.ChildByFieldName("argument_list")
			if args == nil {
				args = firstChildOfType(a, "attribute_argument_list")
			}
			out = append(out, csharpAttribute{name: w.text(a.ChildByFieldName("name")), args: args})
		}
	}
	return out
}

func attributeNames(attrs []csharpAttribute) []string {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, "["+a.name+"]")
	}
	return out
}

func (w *walker) handleTypeDecl(n *sitter.Node, kind ir.ElementKind) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	attrs := w.attributesOf(n)
	id := w.minter.Mint(kind, w.path+":"+name)
	props := w.stack.WithParent(ir.Properties{})
	if len(attrs) > 0 {
		props["annotations"] = attributeNames(attrs)
	}
	el := w.out.AddElement(&ir.Element{ID: id, Kind: kind, Name: name, FilePath: w.path, Location: loc(n), Properties: props})

	bases := n.ChildByFieldName("bases")
	if bases == nil {
		bases = firstChildOfType(n, "base_list")
	}
	if bases != nil {
		for i := 0; i < int(bases.ChildCount()); i++ {
			c := bases.Child(i)
			if !c.IsNamed() {
				continue
			}
			base := w.text(c)
			if base == "" {
				continue
			}
			// C# convention: interface names start with "I"; anything else
			// is a base class.
			relKind := ir.RelImplements
			if !strings.HasPrefix(base, "I") {
				relKind = ir.RelInherits
			}
			w.out.AddRelationship(&ir.PotentialRelationship{SourceID: id, Kind: relKind, TargetPattern: base, Location: loc(c)})
		}
	}

	w.stack.Push(el)
	defer w.stack.Pop()
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
}

func (w *walker) handleMethod(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	attrs := w.attributesOf(n)
	params := w.paramTypes(n.ChildByFieldName("parameters"))
	id := w.minter.Mint(ir.KindMethod, w.path+":"+w.stack.Current().Name+"."+name+"("+params+")")
	props := w.stack.WithParent(ir.Properties{})
	if len(attrs) > 0 {
		props["annotations"] = attributeNames(attrs)
	}
	el := w.out.AddElement(&ir.Element{ID: id, Kind: ir.KindMethod, Name: name, FilePath: w.path, Location: loc(n), Properties: props})

	w.emitRouteAttributes(attrs, id, loc(n))

	w.stack.Push(el)
	defer w.stack.Pop()
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
}

func (w *walker) paramTypes(params *sitter.Node) string {
	if params == nil {
		return ""
	}
	var out []string
	for i := 0; i < int(params.ChildCount()); i++ {
		c := params.Child(i)
		if c.Type() != "parameter" {
			continue
		}
		if t := c.ChildByFieldName("type"); t != nil {
			out = append(out, w.text(t))
		}
	}
	return strings.Join(out, ",")
}

// emitRouteAttributes implements the ASP.NET routing-attribute rule:
// [HttpGet("/users")] -> ApiRouteDefinition with handlerId bound to the
// annotated method, plus a UsesAnnotation edge to the attribute.
func (w *walker) emitRouteAttributes(attrs []csharpAttribute, methodID ir.CanonicalId, l ir.Location) {
	for _, a := range attrs {
		verb, isRoute := routeAttrs[strings.ToLower(a.name)]
		if !isRoute {
			continue
		}
		if verb == "" {
			verb = "GET"
		}
		path := w.attributePath(a.args)
		routeID := w.minter.Mint(ir.KindApiRouteDefinition, verb+":"+path)
		w.out.AddElement(&ir.Element{
			ID: routeID, Kind: ir.KindApiRouteDefinition, Name: verb + " " + path, Location: l,
			Properties: ir.Properties{"httpMethod": verb, "pathPattern": path, "handlerId": methodID},
		})
		tag := "[" + a.name + "]"
		w.out.AddRelationship(&ir.PotentialRelationship{
			SourceID: methodID, Kind: ir.RelUsesAnnotation, TargetPattern: tag, Location: l,
			Properties: ir.Properties{"tags": []string{tag}},
		})
	}
}

func (w *walker) attributePath(args *sitter.Node) string {
	if s := w.findStringLiteral(args); s != nil {
		return w.stringLiteralValue(s)
	}
	return ""
}

// handleObjectCreation recognizes `new SqlCommand(...)` as a DatabaseQuery
// candidate when its first argument is a string literal.
func (w *walker) handleObjectCreation(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil || w.text(typeNode) != "SqlCommand" {
		return
	}
	args := n.ChildByFieldName("arguments")
	str := w.findStringLiteral(args)
	if str == nil {
		return
	}
	raw := w.stringLiteralValue(str)
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID: w.stack.Current().ID, Kind: ir.RelDatabaseQuery, TargetPattern: raw,
		Location: loc(n), Properties: ir.Properties{"rawSql": raw},
	})
}
