package lsp

import (
	"encoding/json"
	"strings"

	"github.com/toolshed-labs/macrols/internal/protocol"
	"github.com/toolshed-labs/macrols/internal/tool"
	"github.com/toolshed-labs/macrols/internal/workspace"
	"github.com/toolshed-labs/macrols/internal/xml"
)

// handleDefinition handles the textDocument/definition request.
func (s *Server) handleDefinition(msg *JSONRPCMessage) error {
	var params protocol.DefinitionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: -32602, Message: err.Error()})
		return err
	}

	location := s.getDefinition(params)
	s.sendResponse(msg.ID, location, nil)
	return nil
}

// getDefinition resolves the cursor position to a macro symbol definition:
// a @TOKEN@ reference resolves to its declaring <token> element, the text
// of an <import> declaration resolves to the imported file's root element.
func (s *Server) getDefinition(params protocol.DefinitionParams) *protocol.Location {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}

	parsed, err := xml.Parse(doc.URI, doc.Content)
	if err != nil {
		return nil
	}

	definitions := s.refactor.Definitions(parsed)

	if name, ok := tokenReferenceAt(doc, params.Position); ok {
		if def, found := definitions.TokenDefinition(name); found {
			loc := def.Location
			return &loc
		}
		return nil
	}

	if fileName, ok := importReferenceAt(parsed, params.Position); ok {
		if loc, found := definitions.GoToImportDefinition(fileName); found {
			return &loc
		}
	}

	return nil
}

// tokenReferenceAt returns the token name when the cursor sits inside a
// sigil-delimited reference such as @THREADS@.
func tokenReferenceAt(doc *workspace.Document, pos protocol.Position) (string, bool) {
	line := doc.GetLine(int(pos.Line))
	cursor := int(pos.Character)
	if cursor > len(line) {
		cursor = len(line)
	}

	start := strings.LastIndex(line[:cursor], tool.TokenSigil)
	if start < 0 {
		return "", false
	}
	rest := line[start+1:]
	end := strings.Index(rest, tool.TokenSigil)
	if end < 0 {
		return "", false
	}
	if start+1+end < cursor {
		// The reference closed before the cursor
		return "", false
	}

	name := rest[:end]
	if name == "" || strings.ContainsAny(name, " \t") {
		// Two unrelated sigils on one line enclose ordinary text
		return "", false
	}
	return name, true
}

// importReferenceAt returns the literal import file name when the cursor
// sits inside the content of an <import> element.
func importReferenceAt(doc *xml.Document, pos protocol.Position) (string, bool) {
	offset := doc.PositionToOffset(pos)
	for _, el := range doc.FindAll(tool.TagImport) {
		if offset >= el.OpenTagEnd && offset <= el.ContentEnd {
			fileName := strings.TrimSpace(el.TextContent())
			if fileName != "" {
				return fileName, true
			}
		}
	}
	return "", false
}
