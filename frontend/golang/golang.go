// Package golang is the Go LanguageFrontend (spec §4.3): package as
// Package element and parent for contained types, struct/interface as
// Class/Interface, methods bound via receiver, embedding modeled as
// Inherits, and only textual `var _ Iface = (*T)(nil)` assertions treated
// as Implements candidates (spec's non-goal: no semantic interface
// satisfaction inference). Grounded on inspector/golang/inspector.go (file
// walk shape) and analyzer/golang_analyzer.go + analyzer/node.go (the
// tree-sitter walk template shared with the other frontends).
package golang

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

// Frontend converts Go source into a FileIr.
type Frontend struct {
	parsers *frontend.ParserPool
}

// New returns a Go Frontend with its own tree-sitter parser pool.
func New() *Frontend {
	return &Frontend{parsers: frontend.NewParserPool(golang.GetLanguage())}
}

func (f *Frontend) Language() ir.Language { return ir.LangGo }

func (f *Frontend) ConvertToIr(src frontend.Source, projectID string) *ir.FileIr {
	out := ir.NewFileIr(projectID, src.RelativePath, ir.LangGo)
	minter := ir.NewMinter(projectID)

	tree := f.parsers.Parse(src.Contents)
	if tree == nil || tree.RootNode() == nil {
		out.AddError("failed to parse Go source", ir.Location{})
		return out
	}
	root := tree.RootNode()
	code := src.Contents

	fileID := minter.Mint(ir.KindFile, src.RelativePath)
	out.FileID = fileID
	fileEl := out.AddElement(&ir.Element{
		ID:       fileID,
		Kind:     ir.KindFile,
		Name:     src.RelativePath,
		FilePath: src.RelativePath,
		Location: loc(root),
		Properties: ir.Properties{
			"language": string(ir.LangGo),
		},
	})

	w := &walker{f: f, out: out, minter: minter, src: code, path: src.RelativePath, stack: frontend.NewContainerStack(fileEl)}

	pkgName := w.findPackageName(root)
	if pkgName != "" {
		pkgID := minter.Mint(ir.KindPackage, pkgName)
		pkgEl := out.AddElement(&ir.Element{
			ID:       pkgID,
			Kind:     ir.KindPackage,
			Name:     pkgName,
			FilePath: src.RelativePath,
			Location: loc(root),
		})
		w.stack.Push(pkgEl)
		defer w.stack.Pop()
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		w.walkTop(root.Child(i))
	}
	return out
}

type walker struct {
	f      *Frontend
	out    *ir.FileIr
	minter *ir.Minter
	src    []byte
	path   string
	stack  *frontend.ContainerStack

	structFields map[string]map[string]string
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

func (w *walker) findPackageName(root *sitter.Node) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "package_clause" {
			if id := child.ChildByFieldName("name"); id != nil {
				return w.text(id)
			}
		}
	}
	return ""
}

// walkTop dispatches top-level declarations; nested walking for bodies is
// limited to what's needed for Calls (spec's non-goal excludes exhaustive
// dataflow, so function bodies are scanned for call_expression only).
func (w *walker) walkTop(n *sitter.Node) {
	switch n.Type() {
	case "import_declaration":
		w.handleImportDecl(n)
	case "function_declaration":
		w.handleFunction(n, "")
	case "method_declaration":
		w.handleMethod(n)
	case "type_declaration":
		w.handleTypeDecl(n)
	case "var_declaration", "const_declaration":
		w.handleVarDecl(n)
	}
}

func (w *walker) handleImportDecl(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "import_spec":
			w.emitImportSpec(child)
		case "import_spec_list":
			for j := 0; j < int(child.ChildCount()); j++ {
				if spec := child.Child(j); spec.Type() == "import_spec" {
					w.emitImportSpec(spec)
				}
			}
		}
	}
}

func (w *walker) emitImportSpec(spec *sitter.Node) {
	pathNode := spec.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	importPath := strings.Trim(w.text(pathNode), "\"")
	alias := ""
	if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
		alias = w.text(nameNode)
	}
	props := ir.Properties{"moduleSpecifier": importPath}
	if alias != "" {
		props["alias"] = alias
	}
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID:      w.stack.Current().ID,
		Kind:          ir.RelImports,
		TargetPattern: importPath,
		Location:      loc(spec),
		Properties:    props,
	})
}

func (w *walker) handleTypeDecl(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		if spec := n.Child(i); spec.Type() == "type_spec" {
			w.handleTypeSpec(spec)
		}
	}
}

func (w *walker) handleTypeSpec(spec *sitter.Node) {
	nameNode := spec.ChildByFieldName("name")
	typeNode := spec.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}
	name := w.text(nameNode)
	qualified := w.qualifiedName(name)
	switch typeNode.Type() {
	case "struct_type":
		w.emitStructOrInterface(spec, name, qualified, ir.KindClass, typeNode)
	case "interface_type":
		w.emitStructOrInterface(spec, name, qualified, ir.KindInterface, typeNode)
	default:
		id := w.minter.Mint(ir.KindTypeAlias, w.path+":"+qualified)
		w.out.AddElement(&ir.Element{
			ID: id, Kind: ir.KindTypeAlias, Name: name, FilePath: w.path,
			Location:   loc(spec),
			Properties: w.stack.WithParent(ir.Properties{"underlying": w.text(typeNode)}),
		})
	}
}

func (w *walker) emitStructOrInterface(spec *sitter.Node, name, qualified string, kind ir.ElementKind, typeNode *sitter.Node) {
	id := w.minter.Mint(kind, w.path+":"+qualified)
	el := w.out.AddElement(&ir.Element{
		ID: id, Kind: kind, Name: name, FilePath: w.path,
		Location:   loc(spec),
		Properties: w.stack.WithParent(ir.Properties{}),
	})
	w.stack.Push(el)
	defer w.stack.Pop()

	if kind == ir.KindClass {
		w.emitFields(typeNode, name)
	}
	if kind == ir.KindInterface {
		w.emitInterfaceMethods(typeNode)
	}
}

func (w *walker) emitFields(structType *sitter.Node, ownerName string) {
	body := fieldChild(structType)
	if body == nil {
		return
	}
	if w.structFields == nil {
		w.structFields = map[string]map[string]string{}
	}
	fieldTypes := map[string]string{}
	for i := 0; i < int(body.ChildCount()); i++ {
		decl := body.Child(i)
		if decl.Type() != "field_declaration" {
			continue
		}
		typeNode := decl.ChildByFieldName("type")
		typeText := w.text(typeNode)
		names := w.fieldNames(decl)
		if len(names) == 0 {
			// embedded field: the type itself is the name and is both a
			// Field and, because Go embedding grants the outer type the
			// embedded type's methods, an Inherits candidate.
			name := strings.TrimPrefix(typeText, "*")
			names = []string{name}
			w.out.AddRelationship(&ir.PotentialRelationship{
				SourceID:      w.minter.Mint(ir.KindClass, w.path+":"+w.qualifiedName(ownerName)),
				Kind:          ir.RelInherits,
				TargetPattern: name,
				Location:      loc(decl),
				Properties:    ir.Properties{"embedded": true},
			})
		}
		for _, name := range names {
			fieldTypes[name] = typeText
			fid := w.minter.Mint(ir.KindField, fmt.Sprintf("%s:%s.%s", w.path, ownerName, name))
			w.out.AddElement(&ir.Element{
				ID: fid, Kind: ir.KindField, Name: name, FilePath: w.path,
				Location:   loc(decl),
				Properties: ir.Properties{"parentId": w.stack.Current().ID, "type": typeText},
			})
		}
	}
	w.structFields[ownerName] = fieldTypes
}

func fieldChild(structType *sitter.Node) *sitter.Node {
	for i := 0; i < int(structType.ChildCount()); i++ {
		if c := structType.Child(i); c.Type() == "field_declaration_list" {
			return c
		}
	}
	return nil
}

func (w *walker) fieldNames(decl *sitter.Node) []string {
	var names []string
	for i := 0; i < int(decl.ChildCount()); i++ {
		c := decl.Child(i)
		if c.Type() == "field_identifier" {
			names = append(names, w.text(c))
		}
	}
	return names
}

func (w *walker) emitInterfaceMethods(ifaceType *sitter.Node) {
	body := fieldChild(ifaceType)
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		c := body.Child(i)
		if c.Type() == "method_elem" {
			if nameNode := c.ChildByFieldName("name"); nameNode != nil {
				name := w.text(nameNode)
				mid := w.minter.Mint(ir.KindMethod, fmt.Sprintf("%s:%s(%s)", w.path, w.qualifiedMethodName(name), ""))
				w.out.AddElement(&ir.Element{
					ID: mid, Kind: ir.KindMethod, Name: name, FilePath: w.path,
					Location:   loc(c),
					Properties: ir.Properties{"parentId": w.stack.Current().ID, "abstract": true},
				})
			}
		}
	}
}

func (w *walker) handleVarDecl(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		spec := n.Child(i)
		if spec.Type() != "var_spec" && spec.Type() != "const_spec" {
			continue
		}
		w.emitVarSpec(spec)
		w.detectInterfaceAssertion(spec)
	}
}

func (w *walker) emitVarSpec(spec *sitter.Node) {
	kind := ir.KindVariable
	var names []*sitter.Node
	for i := 0; i < int(spec.ChildCount()); i++ {
		if c := spec.Child(i); c.Type() == "identifier" {
			names = append(names, c)
		}
	}
	typeNode := spec.ChildByFieldName("type")
	for _, n := range names {
		name := w.text(n)
		id := w.minter.Mint(kind, fmt.Sprintf("%s:%s", w.path, w.qualifiedName(name)))
		props := w.stack.WithParent(ir.Properties{})
		if typeNode != nil {
			props["type"] = w.text(typeNode)
		}
		w.out.AddElement(&ir.Element{ID: id, Kind: kind, Name: name, FilePath: w.path, Location: loc(spec), Properties: props})
	}
}

// detectInterfaceAssertion recognizes the textual idiom `var _ Iface =
// (*T)(nil)` as an Implements candidate (spec's non-goal: only a lexical
// heuristic, never semantic inference of interface satisfaction).
func (w *walker) detectInterfaceAssertion(spec *sitter.Node) {
	typeNode := spec.ChildByFieldName("type")
	valueNode := spec.ChildByFieldName("value")
	if typeNode == nil || valueNode == nil {
		return
	}
	ifaceName := w.text(typeNode)
	valText := w.text(valueNode)
	if !strings.Contains(valText, "(") {
		return
	}
	baseType := strings.TrimPrefix(strings.TrimPrefix(valText, "("), "*")
	baseType = strings.SplitN(baseType, ")", 2)[0]
	if baseType == "" {
		return
	}
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID:      w.minter.Mint(ir.KindClass, w.path+":"+w.qualifiedName(baseType)),
		Kind:          ir.RelImplements,
		TargetPattern: ifaceName,
		Location:      loc(spec),
	})
}

func (w *walker) handleFunction(n *sitter.Node, receiverType string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	params := w.paramTypes(n.ChildByFieldName("parameters"))
	qualified := name
	if receiverType != "" {
		qualified = receiverType + "." + name
	}
	kind := ir.KindFunction
	if receiverType != "" {
		kind = ir.KindMethod
	}
	id := w.minter.Mint(kind, fmt.Sprintf("%s:%s(%s)", w.path, w.qualifiedName(qualified), strings.Join(params, ",")))
	props := w.stack.WithParent(ir.Properties{
		"parameters": params,
		"isAsync":    false,
	})
	if receiverType != "" {
		props["receiverType"] = receiverType
	}
	if results := n.ChildByFieldName("result"); results != nil {
		props["returnType"] = w.text(results)
	}
	el := w.out.AddElement(&ir.Element{ID: id, Kind: kind, Name: name, FilePath: w.path, Location: loc(n), Properties: props})

	w.stack.Push(el)
	defer w.stack.Pop()

	if body := n.ChildByFieldName("body"); body != nil {
		w.scanCalls(body)
	}
}

func (w *walker) handleMethod(n *sitter.Node) {
	recv := n.ChildByFieldName("receiver")
	receiverType := ""
	if recv != nil {
		receiverType = w.receiverTypeName(recv)
	}
	w.handleFunction(n, receiverType)
}

func (w *walker) receiverTypeName(recv *sitter.Node) string {
	for i := 0; i < int(recv.ChildCount()); i++ {
		c := recv.Child(i)
		if c.Type() == "parameter_declaration" {
			if t := c.ChildByFieldName("type"); t != nil {
				return strings.TrimPrefix(w.text(t), "*")
			}
		}
	}
	return ""
}

func (w *walker) paramTypes(params *sitter.Node) []string {
	var out []string
	if params == nil {
		return out
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		p := params.Child(i)
		if p.Type() != "parameter_declaration" && p.Type() != "variadic_parameter_declaration" {
			continue
		}
		if t := p.ChildByFieldName("type"); t != nil {
			out = append(out, w.text(t))
		}
	}
	return out
}

// scanCalls visits every node of a function body and emits a Calls
// candidate for each call_expression, without attempting full dataflow
// analysis (non-goal). It emits no ApiFetch or DatabaseQuery candidates.
func (w *walker) scanCalls(n *sitter.Node) {
	stack := []*sitter.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Type() == "call_expression" {
			w.handleCall(cur)
		}
		for i := 0; i < int(cur.ChildCount()); i++ {
			stack = append(stack, cur.Child(i))
		}
	}
}

func (w *walker) handleCall(call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return
	}
	callee := w.text(fn)
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID:      w.stack.Current().ID,
		Kind:          ir.RelCalls,
		TargetPattern: callee,
		Location:      loc(call),
	})
}

// qualifiedName returns name unchanged: Go top-level declarations have no
// enclosing type to join, and methods are qualified with their receiver
// type by qualifiedMethodName instead.
func (w *walker) qualifiedName(name string) string {
	return name
}

func (w *walker) qualifiedMethodName(name string) string {
	return w.stack.Current().Name + "." + name
}
