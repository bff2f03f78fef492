package frontend

import "github.com/viant/codegraph/ir"

// ContainerStack tracks the enclosing scope while a frontend walks a parse
// tree (spec §4.3, §9 "Scope handling during tree walks"): push on element
// creation, pop on subtree completion. Every created element that becomes a
// scope (File, Package, Class, Interface, Function, Method) pushes itself so
// nested elements can read Current().ID into their properties.parentId.
// Grounded on analyzer/node.go's explicit scope-chain walk (linage.Scope),
// here reduced to the single field the IR schema actually needs.
type ContainerStack struct {
	frames []*ir.Element
}

// NewContainerStack returns a stack seeded with a root element (typically
// the File element).
func NewContainerStack(root *ir.Element) *ContainerStack {
	return &ContainerStack{frames: []*ir.Element{root}}
}

// Push enters a new containing scope.
func (s *ContainerStack) Push(el *ir.Element) {
	s.frames = append(s.frames, el)
}

// Pop exits the current scope, returning to its parent.
func (s *ContainerStack) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Current returns the innermost open scope.
func (s *ContainerStack) Current() *ir.Element {
	return s.frames[len(s.frames)-1]
}

// WithParent sets props["parentId"] to the current scope's id and returns
// props, for convenience at element-creation sites.
func (s *ContainerStack) WithParent(props ir.Properties) ir.Properties {
	if props == nil {
		props = ir.Properties{}
	}
	props["parentId"] = s.Current().ID
	return props
}
