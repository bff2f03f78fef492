// Package typescript is the shared TypeScript/TSX/JavaScript LanguageFrontend
// (SPEC_FULL.md §4.3). The grammar choice (typescript vs. tsx) comes from
// the caller's resolved Language, not from extension sniffing inside one
// grammar. Imports, class/interface heritage, and fetch/axios URL patterns
// are all walked off the real parsed tree (import_clause/class_heritage/
// call_expression nodes) the way frontend/golang walks Go's tree, rather
// than scanned textually the way analyzer/jsx_analyzer.go's placeholder
// ("TODO: Implement JSX parsing using tree-sitter") does for the teacher.
package typescript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

// Frontend converts TS/TSX/JS source into a FileIr. One Frontend instance
// is constructed per language tag (TypeScript vs TSX per spec §6's
// extension table, which maps both .ts and .js to LangTypeScript, and both
// .tsx and .jsx to LangTSX); within a tag, the grammar used to parse the
// source picks .js's own javascript grammar over the typescript grammar so
// a plain JS file is never rejected for TS-only syntax it doesn't have.
type Frontend struct {
	lang     ir.Language
	tsParser *frontend.ParserPool
	jsParser *frontend.ParserPool
}

// NewTypeScript returns the frontend registered for ir.LangTypeScript
// (handles both .ts and .js per spec §6's extension table).
func NewTypeScript() *Frontend {
	return &Frontend{
		lang:     ir.LangTypeScript,
		tsParser: frontend.NewParserPool(typescript.GetLanguage()),
		jsParser: frontend.NewParserPool(javascript.GetLanguage()),
	}
}

// NewTSX returns the frontend registered for ir.LangTSX (.tsx/.jsx).
func NewTSX() *Frontend {
	return &Frontend{
		lang:     ir.LangTSX,
		tsParser: frontend.NewParserPool(tsx.GetLanguage()),
		jsParser: frontend.NewParserPool(tsx.GetLanguage()),
	}
}

func (f *Frontend) Language() ir.Language { return f.lang }

func (f *Frontend) poolFor(ext string) *frontend.ParserPool {
	if ext == ".js" || ext == ".jsx" {
		return f.jsParser
	}
	return f.tsParser
}

var axiosVerbs = map[string]string{
	"get": "GET", "post": "POST", "put": "PUT", "delete": "DELETE",
	"patch": "PATCH", "head": "HEAD", "options": "OPTIONS",
}

func (f *Frontend) ConvertToIr(src frontend.Source, projectID string) *ir.FileIr {
	out := ir.NewFileIr(projectID, src.RelativePath, f.lang)
	minter := ir.NewMinter(projectID)

	tree := f.poolFor(src.Extension).Parse(src.Contents)
	if tree == nil || tree.RootNode() == nil {
		out.AddError("failed to parse TypeScript/JavaScript source", ir.Location{})
		return out
	}
	root := tree.RootNode()

	fileID := minter.Mint(ir.KindFile, src.RelativePath)
	out.FileID = fileID
	fileEl := out.AddElement(&ir.Element{
		ID: fileID, Kind: ir.KindFile, Name: src.RelativePath, FilePath: src.RelativePath,
		Location:   loc(root),
		Properties: ir.Properties{"language": string(f.lang)},
	})

	w := &walker{out: out, minter: minter, src: src.Contents, path: src.RelativePath, fileID: fileID, stack: frontend.NewContainerStack(fileEl)}
	w.walk(root)
	return out
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

func hasChildOfType(n *sitter.Node, t string) bool { return firstChildOfType(n, t) != nil }

func firstNamedChild(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.IsNamed() {
			return c
		}
	}
	return nil
}

// walk dispatches declarations, pushing the container stack for
// class/interface/function scopes, and inspects call_expression nodes
// anywhere for the fetch/axios ApiFetch heuristic (spec §4.3's URL-pattern
// extraction) since an HTTP call can appear inside any expression context,
// not just directly inside a method body.
func (w *walker) walk(n *sitter.Node) {
	switch n.Type() {
	case "import_statement":
		w.handleImport(n)
		return
	case "class_declaration":
		w.handleClass(n)
		return
	case "interface_declaration":
		w.handleInterface(n)
		return
	case "function_declaration":
		w.handleFunction(n)
		return
	case "method_definition":
		w.handleMethod(n)
		return
	case "lexical_declaration", "variable_declaration":
		w.handleVariableDeclaration(n)
		return
	case "call_expression":
		w.handleCall(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
}

// handleImport implements spec §4.3's per-binding import rule: one
// PotentialRelationship per imported binding — default imports use
// importedEntityName="default", namespace imports use "*", named imports
// target "<module>#<name>", side-effect imports emit a single relationship
// carrying only the module specifier.
func (w *walker) handleImport(n *sitter.Node) {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	module := w.stringValue(sourceNode)
	l := loc(n)

	clause := firstChildOfType(n, "import_clause")
	if clause == nil {
		w.out.AddRelationship(&ir.PotentialRelationship{
			SourceID: w.fileID, Kind: ir.RelImports, TargetPattern: module,
			Location: l, Properties: ir.Properties{"moduleSpecifier": module},
		})
		return
	}
	for i := 0; i < int(clause.ChildCount()); i++ {
		c := clause.Child(i)
		switch c.Type() {
		case "identifier":
			w.out.AddRelationship(&ir.PotentialRelationship{
				SourceID: w.fileID, Kind: ir.RelImports, TargetPattern: module, Location: l,
				Properties: ir.Properties{"moduleSpecifier": module, "importedEntityName": "default", "alias": w.text(c)},
			})
		case "namespace_import":
			alias := ""
			if id := firstChildOfType(c, "identifier"); id != nil {
				alias = w.text(id)
			}
			w.out.AddRelationship(&ir.PotentialRelationship{
				SourceID: w.fileID, Kind: ir.RelImports, TargetPattern: module, Location: l,
				Properties: ir.Properties{"moduleSpecifier": module, "importedEntityName": "*", "alias": alias},
			})
		case "named_imports":
			w.emitNamedImports(c, module, l)
		}
	}
}

func (w *walker) emitNamedImports(namedImports *sitter.Node, module string, l ir.Location) {
	for i := 0; i < int(namedImports.ChildCount()); i++ {
		spec := namedImports.Child(i)
		if spec.Type() != "import_specifier" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := w.text(nameNode)
		alias := ""
		if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
			alias = w.text(aliasNode)
		}
		props := ir.Properties{"moduleSpecifier": module, "importedEntityName": name}
		if alias != "" {
			props["alias"] = alias
		}
		w.out.AddRelationship(&ir.PotentialRelationship{
			SourceID: w.fileID, Kind: ir.RelImports, TargetPattern: module + "#" + name,
			Location: l, Properties: props,
		})
	}
}

func (w *walker) stringValue(n *sitter.Node) string {
	if s := firstChildOfType(n, "string_fragment"); s != nil {
		return w.text(s)
	}
	raw := w.text(n)
	if len(raw) >= 2 {
		q := raw[0]
		if (q == '\'' || q == '"' || q == '`') && raw[len(raw)-1] == q {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

func (w *walker) handleClass(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	id := w.minter.Mint(ir.KindClass, w.path+":"+name)
	el := w.out.AddElement(&ir.Element{ID: id, Kind: ir.KindClass, Name: name, FilePath: w.path, Location: loc(n), Properties: w.stack.WithParent(nil)})

	if heritage := firstChildOfType(n, "class_heritage"); heritage != nil {
		if ext := firstChildOfType(heritage, "extends_clause"); ext != nil {
			if v := ext.ChildByFieldName("value"); v != nil {
				w.out.AddRelationship(&ir.PotentialRelationship{SourceID: id, Kind: ir.RelInherits, TargetPattern: w.text(v), Location: loc(ext)})
			}
		}
		if impl := firstChildOfType(heritage, "implements_clause"); impl != nil {
			for i := 0; i < int(impl.ChildCount()); i++ {
				c := impl.Child(i)
				if !c.IsNamed() {
					continue
				}
				iface := w.text(c)
				if iface == "" {
					continue
				}
				w.out.AddRelationship(&ir.PotentialRelationship{SourceID: id, Kind: ir.RelImplements, TargetPattern: iface, Location: loc(c)})
			}
		}
	}

	w.stack.Push(el)
	defer w.stack.Pop()
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
}

func (w *walker) handleInterface(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	id := w.minter.Mint(ir.KindInterface, w.path+":"+name)
	w.out.AddElement(&ir.Element{ID: id, Kind: ir.KindInterface, Name: name, FilePath: w.path, Location: loc(n), Properties: w.stack.WithParent(nil)})

	if ext := firstChildOfType(n, "extends_type_clause"); ext != nil {
		for i := 0; i < int(ext.ChildCount()); i++ {
			c := ext.Child(i)
			if !c.IsNamed() {
				continue
			}
			base := w.text(c)
			if base == "" {
				continue
			}
			w.out.AddRelationship(&ir.PotentialRelationship{SourceID: id, Kind: ir.RelInherits, TargetPattern: base, Location: loc(c)})
		}
	}
}

func (w *walker) handleMethod(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	isAsync := hasChildOfType(n, "async")
	params := w.paramNames(n.ChildByFieldName("parameters"))
	className := w.stack.Current().Name
	id := w.minter.Mint(ir.KindMethod, w.path+":"+className+"."+name+"("+params+")")
	el := w.out.AddElement(&ir.Element{
		ID: id, Kind: ir.KindMethod, Name: name, FilePath: w.path, Location: loc(n),
		Properties: w.stack.WithParent(ir.Properties{"isAsync": isAsync}),
	})

	w.stack.Push(el)
	defer w.stack.Pop()
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
}

func (w *walker) handleFunction(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	isAsync := hasChildOfType(n, "async")
	params := w.paramNames(n.ChildByFieldName("parameters"))
	id := w.minter.Mint(ir.KindFunction, w.path+":"+name+"("+params+")")
	el := w.out.AddElement(&ir.Element{
		ID: id, Kind: ir.KindFunction, Name: name, FilePath: w.path, Location: loc(n),
		Properties: w.stack.WithParent(ir.Properties{"isAsync": isAsync}),
	})

	w.stack.Push(el)
	defer w.stack.Pop()
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
}

// handleVariableDeclaration catches `const name = (async)? (...) => {...}`,
// the arrow-function-as-top-level-function idiom.
func (w *walker) handleVariableDeclaration(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		d := n.Child(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		nameNode := d.ChildByFieldName("name")
		valueNode := d.ChildByFieldName("value")
		if valueNode == nil {
			continue
		}
		target := valueNode
		if target.Type() == "await_expression" {
			target = firstNamedChild(target)
		}
		if nameNode == nil || target == nil || target.Type() != "arrow_function" {
			// not a `const x = (async)? (...) => ...` binding; still walk the
			// value in case it contains a fetch/axios call of its own.
			w.walk(valueNode)
			continue
		}
		valueNode = target
		name := w.text(nameNode)
		isAsync := hasChildOfType(valueNode, "async")
		params := w.paramNames(valueNode.ChildByFieldName("parameters"))
		id := w.minter.Mint(ir.KindFunction, w.path+":"+name+"("+params+")")
		el := w.out.AddElement(&ir.Element{
			ID: id, Kind: ir.KindFunction, Name: name, FilePath: w.path, Location: loc(d),
			Properties: w.stack.WithParent(ir.Properties{"isAsync": isAsync}),
		})
		w.stack.Push(el)
		if body := valueNode.ChildByFieldName("body"); body != nil {
			w.walk(body)
		}
		w.stack.Pop()
	}
}

func (w *walker) paramNames(params *sitter.Node) string {
	if params == nil {
		return ""
	}
	if params.Type() == "identifier" {
		return w.text(params)
	}
	var names []string
	for i := 0; i < int(params.ChildCount()); i++ {
		c := params.Child(i)
		var nameNode *sitter.Node
		switch c.Type() {
		case "identifier":
			nameNode = c
		case "required_parameter", "optional_parameter":
			nameNode = c.ChildByFieldName("pattern")
		case "assignment_pattern":
			nameNode = c.ChildByFieldName("left")
		case "rest_pattern":
			nameNode = firstChildOfType(c, "identifier")
		default:
			continue
		}
		if nameNode == nil {
			continue
		}
		names = append(names, w.text(nameNode))
	}
	return strings.Join(names, ",")
}

// handleCall recognizes `fetch(...)` and `axios.<verb>(...)`/
// `axios.request(...)` calls as ApiFetch candidates (spec §4.3).
func (w *walker) handleCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	switch fn.Type() {
	case "identifier":
		if w.text(fn) == "fetch" {
			w.emitFetch(n)
		}
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil || w.text(obj) != "axios" {
			return
		}
		verb := strings.ToLower(w.text(prop))
		if verb == "request" {
			w.emitAxiosRequest(n)
		} else if method, ok := axiosVerbs[verb]; ok {
			w.emitAxiosMethod(n, method)
		}
	}
}

func nthArgExpr(args *sitter.Node, idx int) *sitter.Node {
	if args == nil {
		return nil
	}
	count := 0
	for i := 0; i < int(args.ChildCount()); i++ {
		c := args.Child(i)
		if !c.IsNamed() {
			continue
		}
		if count == idx {
			return c
		}
		count++
	}
	return nil
}

func (w *walker) emitFetch(n *sitter.Node) {
	args := n.ChildByFieldName("arguments")
	urlArg := nthArgExpr(args, 0)
	if urlArg == nil {
		return
	}
	url := w.reduceURLExpr(urlArg)
	method := "GET"
	if m := w.methodFromOptions(nthArgExpr(args, 1)); m != "" {
		method = m
	}
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID: w.stack.Current().ID, Kind: ir.RelApiFetch, TargetPattern: url, Location: loc(n),
		Properties: ir.Properties{"httpMethod": method, "urlPattern": url, "framework": "fetch"},
	})
}

func (w *walker) emitAxiosMethod(n *sitter.Node, method string) {
	args := n.ChildByFieldName("arguments")
	urlArg := nthArgExpr(args, 0)
	if urlArg == nil {
		return
	}
	url := w.reduceURLExpr(urlArg)
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID: w.stack.Current().ID, Kind: ir.RelApiFetch, TargetPattern: url, Location: loc(n),
		Properties: ir.Properties{"httpMethod": method, "urlPattern": url, "framework": "axios"},
	})
}

func (w *walker) emitAxiosRequest(n *sitter.Node) {
	args := n.ChildByFieldName("arguments")
	opts := nthArgExpr(args, 0)
	url := ""
	method := "GET"
	if opts != nil {
		if u := w.objectProperty(opts, "url"); u != nil {
			url = w.reduceURLExpr(u)
		}
		if m := w.methodFromOptions(opts); m != "" {
			method = m
		}
	}
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID: w.stack.Current().ID, Kind: ir.RelApiFetch, TargetPattern: url, Location: loc(n),
		Properties: ir.Properties{"httpMethod": method, "urlPattern": url, "framework": "axios"},
	})
}

func (w *walker) methodFromOptions(opts *sitter.Node) string {
	v := w.objectProperty(opts, "method")
	if v == nil {
		return ""
	}
	return strings.ToUpper(w.stringValue(v))
}

// objectProperty reads a `{ key: value, ... }` object expression's value
// for the given key.
func (w *walker) objectProperty(obj *sitter.Node, key string) *sitter.Node {
	if obj == nil || obj.Type() != "object" {
		return nil
	}
	for i := 0; i < int(obj.ChildCount()); i++ {
		c := obj.Child(i)
		if c.Type() != "pair" {
			continue
		}
		k := c.ChildByFieldName("key")
		if k == nil || w.propertyKeyName(k) != key {
			continue
		}
		return c.ChildByFieldName("value")
	}
	return nil
}

func (w *walker) propertyKeyName(k *sitter.Node) string {
	switch k.Type() {
	case "property_identifier", "identifier":
		return w.text(k)
	case "string":
		return w.stringValue(k)
	}
	return w.text(k)
}

// reduceURLExpr implements spec §4.3's "reduce template-string
// substitutions to {var} placeholders and concatenations recursively",
// walked off the real template_string/binary_expression nodes instead of
// balanced-paren text slicing.
func (w *walker) reduceURLExpr(n *sitter.Node) string {
	switch n.Type() {
	case "template_string":
		return w.reduceTemplateString(n)
	case "string":
		return w.stringValue(n)
	case "binary_expression":
		var parts []frontend.TemplatePart
		w.collectConcatParts(n, &parts)
		return frontend.ReduceTemplateParts(parts)
	default:
		return frontend.TemplatePlaceholder
	}
}

func (w *walker) reduceTemplateString(n *sitter.Node) string {
	var b strings.Builder
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "string_fragment":
			b.WriteString(w.text(c))
		case "template_substitution":
			b.WriteString(frontend.TemplatePlaceholder)
		}
	}
	return b.String()
}

func (w *walker) collectConcatParts(n *sitter.Node, parts *[]frontend.TemplatePart) {
	if n.Type() == "binary_expression" {
		op := n.ChildByFieldName("operator")
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		if op == nil || w.text(op) != "+" || left == nil || right == nil {
			*parts = append(*parts, frontend.TemplatePart{Literal: false})
			return
		}
		w.collectConcatParts(left, parts)
		w.collectConcatParts(right, parts)
		return
	}
	if n.Type() == "string" {
		*parts = append(*parts, frontend.TemplatePart{Literal: true, Text: w.stringValue(n)})
		return
	}
	*parts = append(*parts, frontend.TemplatePart{Literal: false})
}
