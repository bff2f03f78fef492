// Package python is the Python LanguageFrontend (spec §4.3): a concrete
// syntax tree walk over module/class_definition/function_definition nodes,
// pushing a container stack as the walker enters a class or function body,
// the way analyzer/node.go walks a lexical scope chain. Grounded on
// inspector/golang/inspector.go's walk shape and analyzer/node.go's
// call_expression handling, adapted to tree-sitter-python's grammar.
package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

type Frontend struct {
	parsers *frontend.ParserPool
}

func New() *Frontend {
	return &Frontend{parsers: frontend.NewParserPool(python.GetLanguage())}
}

func (f *Frontend) Language() ir.Language { return ir.LangPython }

// routeMethods maps a decorator's final dotted segment to its HTTP verb;
// "route" carries no implied verb and falls back to a methods= keyword
// argument or GET.
var routeMethods = map[string]string{
	"route": "", "get": "GET", "post": "POST", "put": "PUT",
	"delete": "DELETE", "patch": "PATCH",
}

func (f *Frontend) ConvertToIr(src frontend.Source, projectID string) *ir.FileIr {
	out := ir.NewFileIr(projectID, src.RelativePath, ir.LangPython)
	minter := ir.NewMinter(projectID)

	tree := f.parsers.Parse(src.Contents)
	if tree == nil || tree.RootNode() == nil {
		out.AddError("failed to parse Python source", ir.Location{})
		return out
	}
	root := tree.RootNode()

	fileID := minter.Mint(ir.KindFile, src.RelativePath)
	out.FileID = fileID
	fileEl := out.AddElement(&ir.Element{
		ID: fileID, Kind: ir.KindFile, Name: src.RelativePath, FilePath: src.RelativePath,
		Location:   loc(root),
		Properties: ir.Properties{"language": string(ir.LangPython)},
	})

	w := &walker{out: out, minter: minter, src: src.Contents, path: src.RelativePath, fileID: fileID, stack: frontend.NewContainerStack(fileEl)}
	w.walk(root)
	return out
}

type decoratorInfo struct {
	name     string
	argsNode *sitter.Node
	loc      ir.Location
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
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == t {
			return c
		}
	}
	return nil
}

// walk descends the tree uniformly at module, class-body and function-body
// level: class/function/import statements dispatch to their own handler
// (which recurses into their own body), call_expressions are inspected for
// the execute() database-query heuristic, and everything else is descended
// into looking for further definitions (spec's non-goal excludes exhaustive
// dataflow, so this never attempts full control-flow analysis).
func (w *walker) walk(n *sitter.Node) {
	switch n.Type() {
	case "decorated_definition":
		w.handleDecorated(n)
		return
	case "class_definition":
		w.handleClass(n)
		return
	case "function_definition":
		w.handleFunction(n, nil)
		return
	case "import_statement":
		w.handleImportStatement(n)
		return
	case "import_from_statement":
		w.handleFromImportStatement(n)
		return
	case "call":
		w.handleCall(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
}

func (w *walker) handleDecorated(n *sitter.Node) {
	var decorators []decoratorInfo
	var definition *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "decorator":
			if info, ok := w.decoratorInfo(c); ok {
				decorators = append(decorators, info)
			}
		case "function_definition", "class_definition":
			definition = c
		}
	}
	if definition == nil {
		return
	}
	if definition.Type() == "function_definition" {
		w.handleFunction(definition, decorators)
		return
	}
	w.handleClass(definition)
}

// decoratorInfo extracts the decorator's dotted name and, if it is a call,
// the argument list node carrying its path/methods.
func (w *walker) decoratorInfo(dec *sitter.Node) (decoratorInfo, bool) {
	var expr *sitter.Node
	for i := 0; i < int(dec.ChildCount()); i++ {
		if c := dec.Child(i); c.Type() != "@" {
			expr = c
			break
		}
	}
	if expr == nil {
		return decoratorInfo{}, false
	}
	info := decoratorInfo{loc: loc(dec)}
	if expr.Type() == "call" {
		info.name = w.text(expr.ChildByFieldName("function"))
		info.argsNode = expr.ChildByFieldName("arguments")
	} else {
		info.name = w.text(expr)
	}
	return info, true
}

func (w *walker) handleClass(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	id := w.minter.Mint(ir.KindClass, w.path+":"+name)
	el := w.out.AddElement(&ir.Element{
		ID: id, Kind: ir.KindClass, Name: name, FilePath: w.path,
		Location: loc(n), Properties: w.stack.WithParent(nil),
	})

	if bases := n.ChildByFieldName("superclasses"); bases != nil {
		for i := 0; i < int(bases.ChildCount()); i++ {
			c := bases.Child(i)
			if c.Type() != "identifier" && c.Type() != "attribute" {
				continue
			}
			w.out.AddRelationship(&ir.PotentialRelationship{
				SourceID: id, Kind: ir.RelInherits, TargetPattern: w.text(c), Location: loc(c),
			})
		}
	}

	w.stack.Push(el)
	defer w.stack.Pop()
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
}

func (w *walker) handleFunction(n *sitter.Node, decorators []decoratorInfo) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	isAsync := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "async" {
			isAsync = true
			break
		}
	}
	name := w.text(nameNode)
	params, implicit := w.extractParams(n.ChildByFieldName("parameters"))
	kind := ir.KindFunction
	if w.stack.Current().Kind == ir.KindClass {
		kind = ir.KindMethod
	}
	id := w.minter.Mint(kind, w.path+":"+w.qualify(name)+"("+params+")")
	props := w.stack.WithParent(ir.Properties{"isAsync": isAsync, "parameters": params})
	if len(implicit) > 0 {
		props["implicitParameters"] = implicit
	}
	el := w.out.AddElement(&ir.Element{ID: id, Kind: kind, Name: name, FilePath: w.path, Location: loc(n), Properties: props})

	if len(decorators) > 0 {
		w.emitRouteDecorators(decorators, id)
	}

	w.stack.Push(el)
	defer w.stack.Pop()
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
}

func (w *walker) qualify(name string) string {
	cur := w.stack.Current()
	if cur.Kind == ir.KindClass {
		return cur.Name + "." + name
	}
	return name
}

// extractParams walks a `parameters` node's children, excluding self/cls
// from the recorded parameter list but returning them separately (spec:
// "Exclude self/cls from parameter lists but record their position").
func (w *walker) extractParams(params *sitter.Node) (string, []string) {
	if params == nil {
		return "", nil
	}
	var kept []string
	var implicit []string
	idx := 0
	for i := 0; i < int(params.ChildCount()); i++ {
		c := params.Child(i)
		name := ""
		switch c.Type() {
		case "identifier":
			name = w.text(c)
		case "typed_parameter":
			if id := firstChildOfType(c, "identifier"); id != nil {
				name = w.text(id)
			}
		case "default_parameter", "typed_default_parameter":
			if id := c.ChildByFieldName("name"); id != nil {
				name = w.text(id)
			}
		case "list_splat_pattern":
			if id := firstChildOfType(c, "identifier"); id != nil {
				name = "*" + w.text(id)
			}
		case "dictionary_splat_pattern":
			if id := firstChildOfType(c, "identifier"); id != nil {
				name = "**" + w.text(id)
			}
		default:
			continue
		}
		if name == "" {
			continue
		}
		if idx == 0 && (name == "self" || name == "cls") {
			implicit = append(implicit, name)
		} else {
			kept = append(kept, name)
		}
		idx++
	}
	return strings.Join(kept, ","), implicit
}

// emitRouteDecorators implements spec's Python route-decorator rule:
// @app.route/@app.get/... -> ApiRouteDefinition with handlerId bound to
// the decorated function, plus a UsesAnnotation edge to the decorator.
func (w *walker) emitRouteDecorators(decorators []decoratorInfo, handlerID ir.CanonicalId) {
	for _, d := range decorators {
		parts := strings.Split(d.name, ".")
		verb := strings.ToLower(parts[len(parts)-1])
		method, isRoute := routeMethods[verb]
		if !isRoute {
			continue
		}
		path, kwMethod := w.decoratorArgs(d.argsNode)
		if method == "" {
			method = "GET"
			if kwMethod != "" {
				method = kwMethod
			}
		}
		routeID := w.minter.Mint(ir.KindApiRouteDefinition, method+":"+path)
		w.out.AddElement(&ir.Element{
			ID: routeID, Kind: ir.KindApiRouteDefinition, Name: method + " " + path,
			Location: d.loc,
			Properties: ir.Properties{
				"httpMethod": method, "pathPattern": path, "handlerId": handlerID,
			},
		})
		w.out.AddRelationship(&ir.PotentialRelationship{
			SourceID: handlerID, Kind: ir.RelUsesAnnotation, TargetPattern: d.name,
			Location:   d.loc,
			Properties: ir.Properties{"tags": []string{d.name}},
		})
	}
}

// decoratorArgs reads a decorator call's argument_list for its path (first
// positional string literal) and an explicit methods=[...] keyword
// argument, reading string content straight from the parsed nodes rather
// than re-scanning source text.
func (w *walker) decoratorArgs(args *sitter.Node) (path, method string) {
	if args == nil {
		return "", ""
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		c := args.Child(i)
		switch c.Type() {
		case "string":
			if path == "" {
				path = w.stringValue(c)
			}
		case "keyword_argument":
			nameNode := c.ChildByFieldName("name")
			valueNode := c.ChildByFieldName("value")
			if nameNode == nil || valueNode == nil || w.text(nameNode) != "methods" {
				continue
			}
			if item := firstChildOfType(valueNode, "string"); item != nil {
				method = strings.ToUpper(w.stringValue(item))
			}
		}
	}
	return path, method
}

// stringValue returns a Python string node's content without its quotes.
func (w *walker) stringValue(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if content := firstChildOfType(n, "string_content"); content != nil {
		return w.text(content)
	}
	raw := w.text(n)
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

func (w *walker) handleImportStatement(n *sitter.Node) {
	l := loc(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "dotted_name":
			name := w.text(c)
			w.emitImport(name, "", l)
		case "aliased_import":
			name := w.text(c.ChildByFieldName("name"))
			alias := w.text(c.ChildByFieldName("alias"))
			w.emitImport(name, alias, l)
		}
	}
}

func (w *walker) emitImport(name, alias string, l ir.Location) {
	props := ir.Properties{"moduleSpecifier": name, "importedEntityName": "*module*"}
	if alias != "" {
		props["alias"] = alias
	}
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID: w.fileID, Kind: ir.RelImports, TargetPattern: name, Location: l, Properties: props,
	})
}

func (w *walker) handleFromImportStatement(n *sitter.Node) {
	moduleNode := n.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	module := w.text(moduleNode)
	l := loc(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == moduleNode {
			continue
		}
		switch c.Type() {
		case "wildcard_import":
			w.out.AddRelationship(&ir.PotentialRelationship{
				SourceID: w.fileID, Kind: ir.RelImports, TargetPattern: module, Location: l,
				Properties: ir.Properties{"moduleSpecifier": module, "importedEntityName": "*"},
			})
		case "dotted_name":
			w.emitFromImport(module, w.text(c), "", l)
		case "aliased_import":
			name := w.text(c.ChildByFieldName("name"))
			alias := w.text(c.ChildByFieldName("alias"))
			w.emitFromImport(module, name, alias, l)
		}
	}
}

func (w *walker) emitFromImport(module, name, alias string, l ir.Location) {
	props := ir.Properties{"moduleSpecifier": module, "importedEntityName": name}
	if alias != "" {
		props["alias"] = alias
	}
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID: w.fileID, Kind: ir.RelImports, TargetPattern: module + "#" + name, Location: l, Properties: props,
	})
}

// handleCall recognizes the `<expr>.execute("SQL...")` idiom as a
// DatabaseQuery candidate (spec's non-goal excludes general call-graph
// resolution for Python, so no Calls edges are emitted here).
func (w *walker) handleCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return
	}
	attr := fn.ChildByFieldName("attribute")
	if attr == nil || w.text(attr) != "execute" {
		return
	}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	str := firstChildOfType(args, "string")
	if str == nil {
		return
	}
	raw := w.stringValue(str)
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID: w.stack.Current().ID, Kind: ir.RelDatabaseQuery, TargetPattern: raw,
		Location: loc(n), Properties: ir.Properties{"rawSql": raw},
	})
}
