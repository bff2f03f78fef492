// Package frontend defines the LanguageFrontend contract (spec §4.3) and a
// Factory that dispatches a FileSource to the right per-language frontend
// by extension (spec §6). Grounded on inspector/inspector.go's Inspector
// interface and Factory.GetInspector dispatch-by-extension pattern.
package frontend

import (
	"path/filepath"
	"strings"

	"github.com/viant/codegraph/ir"
)

// Source is the FileSource external input (spec §6).
type Source struct {
	AbsolutePath     string
	RelativePath     string
	Extension        string
	Contents         []byte
	DeclaredLanguage ir.Language
}

// Frontend converts one file's bytes into a FileIr. Implementations never
// return a nil FileIr: a ParseError is recovered locally into a
// zero-element FileIr plus a ParseError-shaped entry (spec §7).
type Frontend interface {
	// Language returns the language tag this frontend emits into every FileIr.
	Language() ir.Language
	// ConvertToIr lowers src into a FileIr scoped to projectID.
	ConvertToIr(src Source, projectID string) *ir.FileIr
}

// Factory dispatches a Source to the Frontend registered for its language,
// derived from the fixed extension table (spec §6) unless DeclaredLanguage
// overrides it.
type Factory struct {
	byLanguage map[ir.Language]Frontend
}

// NewFactory builds a Factory from a set of frontends, keyed by the
// language each one declares.
func NewFactory(frontends ...Frontend) *Factory {
	f := &Factory{byLanguage: map[ir.Language]Frontend{}}
	for _, fe := range frontends {
		f.byLanguage[fe.Language()] = fe
	}
	return f
}

// Register adds or replaces the frontend used for a language.
func (f *Factory) Register(fe Frontend) {
	f.byLanguage[fe.Language()] = fe
}

// LanguageFor resolves the extension/declared-language pair into the fixed
// language tag of spec §6, preferring an explicit DeclaredLanguage.
func LanguageFor(src Source) ir.Language {
	if src.DeclaredLanguage != "" {
		return src.DeclaredLanguage
	}
	ext := src.Extension
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(src.RelativePath))
	}
	return ir.LanguageForExtension(ext)
}

// Get returns the Frontend for a Source's resolved language, and false if
// the language is Unknown or has no registered frontend (the file is
// skipped per spec §6: "anything else is Unknown and skipped").
func (f *Factory) Get(src Source) (Frontend, bool) {
	lang := LanguageFor(src)
	if lang == ir.LangUnknown {
		return nil, false
	}
	fe, ok := f.byLanguage[lang]
	return fe, ok
}

// Convert resolves and invokes the right frontend for src, returning
// (nil, false) if the file's language is unsupported so the caller can
// count it among "skipped files" in the driver's summary (spec §7).
func (f *Factory) Convert(src Source, projectID string) (*ir.FileIr, bool) {
	fe, ok := f.Get(src)
	if !ok {
		return nil, false
	}
	return fe.ConvertToIr(src, projectID), true
}
