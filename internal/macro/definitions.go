// Package macro resolves the macro symbol table of a tool document: the
// tokens the tool declares itself plus the tokens contributed by each
// imported macros file.
package macro

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/toolshed-labs/macrols/internal/protocol"
	"github.com/toolshed-labs/macrols/internal/tool"
	"github.com/toolshed-labs/macrols/internal/workspace"
	"github.com/toolshed-labs/macrols/internal/xml"
)

// TokenDefinition is a named token and the location of its declaring
// element's name. Immutable once created.
type TokenDefinition struct {
	Name     string
	Location protocol.Location
}

// ImportResolution is the closed two-variant resolution state of an import.
// A missing or unparsable import target is Unresolved and contributes no
// tokens and no navigable location.
type ImportResolution interface {
	isResolution()
}

// ResolvedImport carries the capabilities of an import whose target file
// exists and parses.
type ResolvedImport struct {
	URI      string
	Document *xml.Document
	Tokens   map[string]TokenDefinition
}

func (ResolvedImport) isResolution() {}

// UnresolvedImport marks an import whose target could not be loaded.
type UnresolvedImport struct{}

func (UnresolvedImport) isResolution() {}

// ImportedMacrosFile is one <import> declaration of the tool document.
type ImportedMacrosFile struct {
	// FileName is the literal import reference as written in the tool document.
	FileName   string
	Resolution ImportResolution
}

// Resolved returns the resolved capabilities of the import, if any.
func (f *ImportedMacrosFile) Resolved() (ResolvedImport, bool) {
	r, ok := f.Resolution.(ResolvedImport)
	return r, ok
}

// ToolMacroDefinitions is the resolved symbol table for one tool document.
type ToolMacroDefinitions struct {
	ToolDocument *xml.Document

	// Imports holds one entry per distinct literal import reference, in
	// document order. Two imports with the same literal reference collapse
	// into one entry and the later one overwrites the earlier.
	Imports []*ImportedMacrosFile

	// Tokens is the aggregated token table: the tool's own tokens first,
	// then each import's tokens merged in import order. Later imports
	// overwrite colliding names (last writer wins).
	Tokens map[string]TokenDefinition
}

// Import returns the import entry for the literal file reference, or nil.
func (d *ToolMacroDefinitions) Import(fileName string) *ImportedMacrosFile {
	for _, f := range d.Imports {
		if f.FileName == fileName {
			return f
		}
	}
	return nil
}

// TokenDefinition returns the aggregated definition for a token name.
func (d *ToolMacroDefinitions) TokenDefinition(name string) (TokenDefinition, bool) {
	def, ok := d.Tokens[name]
	return def, ok
}

// GoToImportDefinition returns the location of the imported file's root
// element name, if the import resolved to a document with a root element.
func (d *ToolMacroDefinitions) GoToImportDefinition(fileName string) (protocol.Location, bool) {
	imported := d.Import(fileName)
	if imported == nil {
		return protocol.Location{}, false
	}
	resolved, ok := imported.Resolved()
	if !ok || resolved.Document == nil || resolved.Document.Root == nil {
		return protocol.Location{}, false
	}
	return protocol.Location{
		URI:   resolved.URI,
		Range: resolved.Document.NameRange(resolved.Document.Root),
	}, true
}

// DefinitionsProvider builds ToolMacroDefinitions for tool documents.
// Each call re-resolves from scratch so the result always reflects current
// file-system and editor state; nothing is cached across calls.
type DefinitionsProvider struct {
	store  *workspace.Store
	logger *slog.Logger
}

// NewDefinitionsProvider creates a provider backed by the given document store.
func NewDefinitionsProvider(store *workspace.Store, logger *slog.Logger) *DefinitionsProvider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DefinitionsProvider{store: store, logger: logger}
}

// Resolve builds the symbol table for the tool document. Missing or
// unparsable import targets degrade to Unresolved entries; resolution
// itself never fails.
func (p *DefinitionsProvider) Resolve(toolDoc *xml.Document) *ToolMacroDefinitions {
	tokens := tokenDefinitions(toolDoc)
	imports := p.resolveImports(toolDoc)

	for _, imported := range imports {
		if resolved, ok := imported.Resolved(); ok {
			for name, def := range resolved.Tokens {
				tokens[name] = def
			}
		}
	}

	return &ToolMacroDefinitions{
		ToolDocument: toolDoc,
		Imports:      imports,
		Tokens:       tokens,
	}
}

// resolveImports scans the tool document's <import> declarations and loads
// each referenced file, in document order.
func (p *DefinitionsProvider) resolveImports(toolDoc *xml.Document) []*ImportedMacrosFile {
	toolDir := filepath.Dir(workspace.URIToPath(toolDoc.URI))

	var imports []*ImportedMacrosFile
	byName := make(map[string]*ImportedMacrosFile)

	for _, el := range toolDoc.FindAll(tool.TagImport) {
		fileName := strings.TrimSpace(el.TextContent())
		if fileName == "" {
			continue
		}

		entry := &ImportedMacrosFile{
			FileName:   fileName,
			Resolution: p.resolveImportTarget(filepath.Join(toolDir, fileName)),
		}

		// A repeated literal reference overwrites the earlier entry in
		// place; the entry keeps its original position.
		if existing, ok := byName[fileName]; ok {
			*existing = *entry
			continue
		}
		byName[fileName] = entry
		imports = append(imports, entry)
	}

	return imports
}

// resolveImportTarget loads and parses one import target path.
func (p *DefinitionsProvider) resolveImportTarget(path string) ImportResolution {
	if _, err := os.Stat(path); err != nil {
		p.logger.Debug("Import target missing", "path", path)
		return UnresolvedImport{}
	}

	uri := workspace.PathToURI(path)
	doc, err := p.store.Fetch(uri)
	if err != nil {
		p.logger.Debug("Import target unreadable", "path", path, "error", err)
		return UnresolvedImport{}
	}

	parsed, err := xml.Parse(uri, doc.Content)
	if err != nil {
		p.logger.Debug("Import target failed to parse", "path", path, "error", err)
		return UnresolvedImport{}
	}

	return ResolvedImport{
		URI:      uri,
		Document: parsed,
		Tokens:   tokenDefinitions(parsed),
	}
}

// tokenDefinitions scans a document for <token> declarations. The sigil is
// stripped from the declared name, so @THREADS@ keys as THREADS.
func tokenDefinitions(doc *xml.Document) map[string]TokenDefinition {
	defs := make(map[string]TokenDefinition)
	for _, el := range doc.FindAll(tool.TagToken) {
		name, ok := el.Attribute("name")
		if !ok {
			continue
		}
		name = strings.ReplaceAll(name, tool.TokenSigil, "")
		if name == "" {
			continue
		}
		defs[name] = TokenDefinition{
			Name: name,
			Location: protocol.Location{
				URI:   doc.URI,
				Range: doc.NameRange(el),
			},
		}
	}
	return defs
}
