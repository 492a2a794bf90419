package refactor

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/toolshed-labs/macrols/internal/format"
	"github.com/toolshed-labs/macrols/internal/macro"
	"github.com/toolshed-labs/macrols/internal/protocol"
	"github.com/toolshed-labs/macrols/internal/tool"
	"github.com/toolshed-labs/macrols/internal/workspace"
	"github.com/toolshed-labs/macrols/internal/xml"
)

// DefaultMacrosFileName is the file created by the create-and-import strategy.
const DefaultMacrosFileName = "macros.xml"

// Synthesizer turns an extraction candidate into edit sets. All edits in one
// set are computed against the original document snapshots so they can be
// applied in any order.
type Synthesizer struct {
	store  *workspace.Store
	logger *slog.Logger
}

// NewSynthesizer creates a synthesizer backed by the given document store.
func NewSynthesizer(store *workspace.Store, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synthesizer{store: store, logger: logger}
}

// LocalChanges computes the local-extraction edit set: add the macro
// definition to the tool's own macros container (creating the container if
// absent) and replace the selection with an expand reference.
func (s *Synthesizer) LocalChanges(t *tool.Document, m MacroData, selection protocol.Range) (map[string][]protocol.TextEdit, error) {
	var edits []protocol.TextEdit

	if macrosEl := t.MacrosElement(); macrosEl == nil {
		edit, err := s.editCreateMacrosSection(t, m)
		if err != nil {
			return nil, err
		}
		edits = append(edits, edit)
	} else {
		edit, err := s.insertChildEdit(t.XML, macrosEl, macroDefinitionXML(m), false)
		if err != nil {
			return nil, err
		}
		edits = append(edits, edit)
	}

	edits = append(edits, s.editReplaceSelectionWithExpand(t.XML, m, selection))
	return map[string][]protocol.TextEdit{t.XML.URI: edits}, nil
}

// ExternalChanges computes the edit set that inserts the macro definition as
// the last child of an imported macros file's root element and replaces the
// selection in the tool document.
func (s *Synthesizer) ExternalChanges(t *tool.Document, resolved macro.ResolvedImport, m MacroData, selection protocol.Range) (map[string][]protocol.TextEdit, error) {
	root := resolved.Document.Root
	if root == nil {
		return nil, fmt.Errorf("imported macros file %s has no root element", resolved.URI)
	}

	external, err := s.insertChildEdit(resolved.Document, root, macroDefinitionXML(m), false)
	if err != nil {
		return nil, err
	}

	return map[string][]protocol.TextEdit{
		t.XML.URI:    {s.editReplaceSelectionWithExpand(t.XML, m, selection)},
		resolved.URI: {external},
	}, nil
}

// ExternalChangesNewFile computes the create-and-import edit set: a file
// creation directive, the whole content of the new macros file at version 0,
// and a versioned modification of the tool document that imports the new
// file and replaces the selection.
func (s *Synthesizer) ExternalChangesNewFile(t *tool.Document, newFileName string, m MacroData, selection protocol.Range) ([]any, error) {
	basePath := filepath.Dir(workspace.URIToPath(t.XML.URI))
	newFileURI := workspace.PathToURI(filepath.Join(basePath, newFileName))

	content, err := format.Fragment(newMacrosFileXML(m))
	if err != nil {
		return nil, err
	}

	importEdit, err := s.editCreateImportSection(t, newFileName)
	if err != nil {
		return nil, err
	}

	toolVersion := 0
	if doc := s.store.Get(t.XML.URI); doc != nil {
		toolVersion = doc.Version
	}

	start := protocol.Position{Line: 0, Character: 0}
	return []any{
		protocol.CreateFile{Kind: protocol.ResourceOperationKindCreate, URI: newFileURI},
		protocol.TextDocumentEdit{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: newFileURI},
				Version:                0,
			},
			Edits: []protocol.TextEdit{{
				Range:   protocol.Range{Start: start, End: start},
				NewText: content,
			}},
		},
		protocol.TextDocumentEdit{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: t.XML.URI},
				Version:                toolVersion,
			},
			Edits: []protocol.TextEdit{
				importEdit,
				s.editReplaceSelectionWithExpand(t.XML, m, selection),
			},
		},
	}, nil
}

// editReplaceSelectionWithExpand replaces the selection with a reference
// element. The replacement is anchored to the start of the selection's line
// so it consumes the existing indentation, and is re-indented to match it.
func (s *Synthesizer) editReplaceSelectionWithExpand(doc *xml.Document, m MacroData, selection protocol.Range) protocol.TextEdit {
	indentation := doc.LineIndentation(int(selection.Start.Line))
	return protocol.TextEdit{
		Range: protocol.Range{
			Start: protocol.Position{Line: selection.Start.Line, Character: 0},
			End:   selection.End,
		},
		NewText: fmt.Sprintf(`%s<%s macro="%s"/>`, indentation, tool.TagExpand, m.Name),
	}
}

// editCreateMacrosSection synthesizes a new macros container holding the
// macro definition at the preferred insertion point of the tool document.
func (s *Synthesizer) editCreateMacrosSection(t *tool.Document, m MacroData) (protocol.TextEdit, error) {
	insertPos := findMacrosInsertPosition(t)
	snippet := fmt.Sprintf("<%s>\n%s\n</%s>", tool.TagMacros, macroDefinitionXML(m), tool.TagMacros)
	adapted, err := s.adaptFormat(t.XML, insertPos, snippet, true)
	if err != nil {
		return protocol.TextEdit{}, err
	}
	return protocol.TextEdit{
		Range:   protocol.Range{Start: insertPos, End: insertPos},
		NewText: adapted,
	}, nil
}

// editCreateImportSection adds an import declaration for the named macros
// file, creating the macros container first when the tool has none.
func (s *Synthesizer) editCreateImportSection(t *tool.Document, macrosFileName string) (protocol.TextEdit, error) {
	importXML := fmt.Sprintf("<%s>%s</%s>", tool.TagImport, macrosFileName, tool.TagImport)

	if macrosEl := t.MacrosElement(); macrosEl != nil {
		return s.insertChildEdit(t.XML, macrosEl, importXML, true)
	}

	insertPos := findMacrosInsertPosition(t)
	snippet := fmt.Sprintf("<%s>\n%s\n</%s>", tool.TagMacros, importXML, tool.TagMacros)
	adapted, err := s.adaptFormat(t.XML, insertPos, snippet, true)
	if err != nil {
		return protocol.TextEdit{}, err
	}
	return protocol.TextEdit{
		Range:   protocol.Range{Start: insertPos, End: insertPos},
		NewText: adapted,
	}, nil
}

// insertChildEdit inserts a snippet as the first or last child of an
// element. A self-closing element is rewritten in place: the edit replaces
// its "/>" tail with the content and an explicit close tag so the edited
// document still parses.
func (s *Synthesizer) insertChildEdit(doc *xml.Document, el *xml.Element, snippet string, atStart bool) (protocol.TextEdit, error) {
	if el.SelfClosing {
		tailStart := doc.OffsetToPosition(el.End - 2)
		adapted, err := s.adaptFormat(doc, tailStart, snippet, true)
		if err != nil {
			return protocol.TextEdit{}, err
		}
		elementIndent := doc.LineIndentation(int(doc.OffsetToPosition(el.Start).Line))
		return protocol.TextEdit{
			Range:   protocol.Range{Start: tailStart, End: doc.OffsetToPosition(el.End)},
			NewText: fmt.Sprintf(">%s\n%s</%s>", adapted, elementIndent, el.Name),
		}, nil
	}

	var insertPos protocol.Position
	if atStart {
		insertPos = doc.PositionBeforeFirstChild(el)
	} else {
		insertPos = doc.PositionAfterLastChild(el)
	}
	adapted, err := s.adaptFormat(doc, insertPos, snippet, true)
	if err != nil {
		return protocol.TextEdit{}, err
	}
	return protocol.TextEdit{
		Range:   protocol.Range{Start: insertPos, End: insertPos},
		NewText: adapted,
	}, nil
}

// findMacrosInsertPosition returns where a synthesized macros container goes:
// after the cross-reference section if present, else after the description,
// else at the start of the tool root's content.
func findMacrosInsertPosition(t *tool.Document) protocol.Position {
	if section := t.FindElement(tool.TagXrefs); section != nil {
		return t.XML.PositionAfter(section)
	}
	if section := t.FindElement(tool.TagDescription); section != nil {
		return t.XML.PositionAfter(section)
	}
	return t.ContentStartOfRoot()
}

// adaptFormat runs a snippet through the formatter and re-indents it to
// match the insertion context: the snippet is formatted, stripped of
// trailing whitespace, indented to the anchor line's indentation, and
// prefixed with a newline when it is inserted on a fresh line. The anchor
// is the insertion line itself for fresh-line inserts and the line before
// it for inline inserts.
func (s *Synthesizer) adaptFormat(doc *xml.Document, insertPos protocol.Position, snippet string, newLine bool) (string, error) {
	formatted, err := format.Fragment(snippet)
	if err != nil {
		return "", err
	}
	formatted = strings.TrimRight(formatted, " \t\r\n")

	referenceLine := int(insertPos.Line)
	if !newLine {
		referenceLine--
	}
	indent := doc.LineIndentation(referenceLine)

	indented := indent + strings.ReplaceAll(formatted, "\n", "\n"+indent)
	if newLine {
		return "\n" + indented, nil
	}
	return indented, nil
}

// macroDefinitionXML wraps the candidate content in a macro definition element.
func macroDefinitionXML(m MacroData) string {
	return fmt.Sprintf("<%s name=%q>\n%s\n</%s>", tool.TagXML, m.Name, m.Content, tool.TagXML)
}

// newMacrosFileXML is the full content of a freshly created macros file.
func newMacrosFileXML(m MacroData) string {
	return fmt.Sprintf("<%s>\n%s\n</%s>", tool.TagMacros, macroDefinitionXML(m), tool.TagMacros)
}
