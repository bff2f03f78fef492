package frontend

import (
	"regexp"
	"strings"
)

// annotationPattern matches "@key" or "@key=value"/"@key:value" tokens
// inside a comment line, grounded on analyzer/meta.go's annRe.
var annotationPattern = regexp.MustCompile(`@([\w.-]+)(?:[=:]([^\s]+))?`)

// ParseCommentAnnotations extracts @key/@key=value pairs from a block of
// comment text (// line comments, # line comments, or /* */ / docstring
// bodies with the syntax stripped by the caller). Shared by every frontend
// that wants lightweight decorator-like metadata out of a plain comment,
// grounded on analyzer/meta.go's extractAnnotations comment-scan branch.
func ParseCommentAnnotations(commentText string) map[string]string {
	var out map[string]string
	for _, line := range strings.Split(commentText, "\n") {
		for _, m := range annotationPattern.FindAllStringSubmatch(line, -1) {
			if out == nil {
				out = map[string]string{}
			}
			key := m[1]
			val := ""
			if len(m) > 2 {
				val = m[2]
			}
			out[key] = val
		}
	}
	return out
}

// TemplatePlaceholder is substituted for any non-literal interpolation when
// reducing a template string / concatenation to a URL pattern (spec §4.3:
// "reduce template-string substitutions to {var} placeholders and
// concatenations recursively").
const TemplatePlaceholder = "{var}"

// TemplatePart is one segment of a template string or concatenation: a
// literal text segment, or (Literal false) a non-literal interpolation.
type TemplatePart struct {
	Literal bool
	Text    string
}

// ReduceTemplateParts joins literal segments and placeholders for
// non-literal ones into a single URL pattern, e.g.
// ReduceTemplateParts([]TemplatePart{{Literal:true,Text:"/api/users/"},{Literal:false}})
// -> "/api/users/{var}". It joins an already flattened part list; walking
// nested templates/concatenations into that list is left to the caller
// (the TypeScript fetch/axios detector does it).
func ReduceTemplateParts(parts []TemplatePart) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Literal {
			b.WriteString(p.Text)
		} else {
			b.WriteString(TemplatePlaceholder)
		}
	}
	return b.String()
}
