// Package cpp is the C/C++ LanguageFrontend (SPEC_FULL.md §4.3): a concrete
// syntax tree walk over namespace/class/struct/function declarations.
// Heritage (`: public Base`) becomes Inherits, walked off the real
// `base_class_clause` node, and a top-level declaration or expression
// statement whose text looks like a registration-macro call (see
// macroDeclRe) is recorded as a GenericElement, per spec.md's explicit
// allowance for that kind. Other constructs the walker does not classify
// (template declarations among them) are not recorded. Grounded on the
// same base-type-list walk shape inspector/golang/declaration.go applies to
// Go embedding, since `: public Base` mirrors "walk the base-type list".
package cpp

import (
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	cppsitter "github.com/smacker/go-tree-sitter/cpp"

	"github.com/viant/codegraph/frontend"
	"github.com/viant/codegraph/ir"
)

type Frontend struct {
	parsers *frontend.ParserPool
	lang    ir.Language
}

// New returns a frontend for .cpp/.hpp/.cc/.hh sources (ir.LangCPP). A
// second constructor, NewC, reuses the same walker for .c/.h sources since
// the walk below never depends on syntax (classes, namespaces) that a
// plain C file wouldn't have.
func New() *Frontend {
	return &Frontend{parsers: frontend.NewParserPool(cppsitter.GetLanguage()), lang: ir.LangCPP}
}

func NewC() *Frontend {
	return &Frontend{parsers: frontend.NewParserPool(cppsitter.GetLanguage()), lang: ir.LangC}
}

func (f *Frontend) Language() ir.Language { return f.lang }

// macroDeclRe classifies a top-level declaration the walker couldn't place
// as a class/struct/function as a registration-macro-style invocation
// (e.g. `REGISTER_PLUGIN(MyPlugin);`), which C++'s "most vexing parse" rule
// parses as an ordinary declaration node.
var macroDeclRe = regexp.MustCompile(`(?s)^[A-Z][A-Z0-9_]{3,}\s*\([^)]*\)\s*;?\s*$`)

func (f *Frontend) ConvertToIr(src frontend.Source, projectID string) *ir.FileIr {
	out := ir.NewFileIr(projectID, src.RelativePath, f.lang)
	minter := ir.NewMinter(projectID)

	tree := f.parsers.Parse(src.Contents)
	if tree == nil || tree.RootNode() == nil {
		out.AddError("failed to parse C/C++ source", ir.Location{})
		return out
	}
	root := tree.RootNode()

	fileID := minter.Mint(ir.KindFile, src.RelativePath)
	out.FileID = fileID
	out.AddElement(&ir.Element{
		ID: fileID, Kind: ir.KindFile, Name: src.RelativePath, FilePath: src.RelativePath,
		Location:   loc(root),
		Properties: ir.Properties{"language": string(f.lang)},
	})

	w := &walker{out: out, minter: minter, src: src.Contents, path: src.RelativePath, fileID: fileID}
	w.walkTop(root, fileID)
	return out
}

type walker struct {
	out    *ir.FileIr
	minter *ir.Minter
	src    []byte
	path   string
	fileID ir.CanonicalId
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

func firstChildOfTypes(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

// findClassOrStruct locates a class_specifier/struct_specifier inside a
// standalone top-level `declaration` node (how tree-sitter-cpp represents
// `class Dog : public Animal { ... };` when it isn't a typedef).
func findClassOrStruct(n *sitter.Node) *sitter.Node {
	if t := n.ChildByFieldName("type"); t != nil && (t.Type() == "class_specifier" || t.Type() == "struct_specifier") {
		return t
	}
	return firstChildOfTypes(n, "class_specifier", "struct_specifier")
}

// walkTop dispatches the direct children of a translation unit or namespace
// body; only top-level constructs (including registration macros, via
// walkTopChild) are classified here; methods/fields of a class are handled
// by their own pass so free functions never race with control-flow statements
// inside a body for the name slot (unlike a line-regex scan, an
// if/for/while never even produces a function_definition node).
func (w *walker) walkTop(n *sitter.Node, parentID ir.CanonicalId) {
	for i := 0; i < int(n.ChildCount()); i++ {
		w.walkTopChild(n.Child(i), parentID)
	}
}

func (w *walker) walkTopChild(c *sitter.Node, parentID ir.CanonicalId) {
	switch c.Type() {
	case "preproc_include":
		w.handleInclude(c)
	case "namespace_definition":
		w.handleNamespace(c, parentID)
	case "function_definition":
		w.handleFunction(c, parentID, false, "")
	case "class_specifier", "struct_specifier":
		w.handleClassOrStruct(c, parentID)
	case "declaration":
		if spec := findClassOrStruct(c); spec != nil {
			w.handleClassOrStruct(spec, parentID)
		} else if macroDeclRe.MatchString(strings.TrimSpace(w.text(c))) {
			w.emitGeneric(c, parentID)
		}
	case "expression_statement":
		if macroDeclRe.MatchString(strings.TrimSpace(w.text(c))) {
			w.emitGeneric(c, parentID)
		}
	}
}

func (w *walker) handleInclude(n *sitter.Node) {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	raw := strings.Trim(w.text(pathNode), "<>\"")
	if raw == "" {
		return
	}
	w.out.AddRelationship(&ir.PotentialRelationship{
		SourceID: w.fileID, Kind: ir.RelImports, TargetPattern: raw, Location: loc(n),
		Properties: ir.Properties{"moduleSpecifier": raw},
	})
}

func (w *walker) handleNamespace(n *sitter.Node, fileID ir.CanonicalId) {
	body := n.ChildByFieldName("body")
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	parentID := fileID
	if name != "" {
		id := w.minter.Mint(ir.KindPackage, name)
		w.out.AddElement(&ir.Element{
			ID: id, Kind: ir.KindPackage, Name: name, FilePath: w.path,
			Location: loc(n), Properties: ir.Properties{"parentId": fileID},
		})
		parentID = id
	}
	if body != nil {
		w.walkTop(body, parentID)
	}
}

func (w *walker) handleClassOrStruct(n *sitter.Node, parentID ir.CanonicalId) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	id := w.minter.Mint(ir.KindClass, w.path+":"+name)
	w.out.AddElement(&ir.Element{
		ID: id, Kind: ir.KindClass, Name: name, FilePath: w.path,
		Location: loc(n), Properties: ir.Properties{"parentId": parentID},
	})

	bases := n.ChildByFieldName("base_class_clause")
	if bases == nil {
		bases = firstChildOfTypes(n, "base_class_clause")
	}
	if bases != nil {
		for i := 0; i < int(bases.ChildCount()); i++ {
			c := bases.Child(i)
			if !c.IsNamed() || c.Type() == "access_specifier" {
				continue
			}
			base := w.text(c)
			if base == "" {
				continue
			}
			w.out.AddRelationship(&ir.PotentialRelationship{SourceID: id, Kind: ir.RelInherits, TargetPattern: base, Location: loc(c)})
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			if c := body.Child(i); c.Type() == "function_definition" {
				w.handleFunction(c, id, true, name)
			}
		}
	}
}

func (w *walker) handleFunction(n *sitter.Node, parentID ir.CanonicalId, isMethod bool, className string) {
	nameNode := w.functionDeclaratorName(n.ChildByFieldName("declarator"))
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	if name == "" {
		return
	}
	kind := ir.KindFunction
	key := w.path + ":" + name
	if isMethod {
		kind = ir.KindMethod
		key = w.path + ":" + className + "." + name
	}
	id := w.minter.Mint(kind, key)
	w.out.AddElement(&ir.Element{
		ID: id, Kind: kind, Name: name, FilePath: w.path,
		Location: loc(n), Properties: ir.Properties{"parentId": parentID},
	})
}

// functionDeclaratorName descends through pointer/reference declarators to
// the function_declarator and returns its own inner declarator (the actual
// function or method name).
func (w *walker) functionDeclaratorName(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			return d.ChildByFieldName("declarator")
		case "pointer_declarator", "reference_declarator":
			d = d.ChildByFieldName("declarator")
		default:
			return nil
		}
	}
	return nil
}

func (w *walker) emitGeneric(n *sitter.Node, parentID ir.CanonicalId) {
	raw := strings.TrimSpace(w.text(n))
	if raw == "" {
		return
	}
	l := loc(n)
	id := w.minter.Mint(ir.KindGenericElement, w.path+":"+raw+":"+strconv.Itoa(l.StartLine))
	w.out.AddElement(&ir.Element{
		ID: id, Kind: ir.KindGenericElement, Name: raw, FilePath: w.path,
		Location: l, Properties: ir.Properties{"parentId": parentID},
	})
}
