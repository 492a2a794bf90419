package lsp

import (
	encxml "encoding/xml"
	"errors"

	"github.com/toolshed-labs/macrols/internal/protocol"
	"github.com/toolshed-labs/macrols/internal/xml"
)

// publishDiagnostics parses the document and reports well-formedness errors.
// A clean parse clears any previously published diagnostics.
func (s *Server) publishDiagnostics(uri string) {
	doc := s.documents.Get(uri)
	if doc == nil {
		return
	}

	diagnostics := []protocol.Diagnostic{}
	if _, err := xml.Parse(uri, doc.Content); err != nil {
		diagnostics = append(diagnostics, parseErrorDiagnostic(err))
	}

	s.sendNotification("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// parseErrorDiagnostic converts a parse error into a diagnostic anchored to
// the reported line when the underlying decoder provides one.
func parseErrorDiagnostic(err error) protocol.Diagnostic {
	var line uint32
	var syntaxErr *encxml.SyntaxError
	if errors.As(err, &syntaxErr) && syntaxErr.Line > 0 {
		line = uint32(syntaxErr.Line - 1)
	}

	pos := protocol.Position{Line: line, Character: 0}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: pos, End: pos},
		Severity: protocol.DiagnosticSeverityError,
		Source:   "macrols",
		Message:  err.Error(),
	}
}
