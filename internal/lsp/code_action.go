package lsp

import (
	"encoding/json"

	"github.com/toolshed-labs/macrols/internal/protocol"
	"github.com/toolshed-labs/macrols/internal/xml"
)

// handleCodeAction handles the textDocument/codeAction request.
func (s *Server) handleCodeAction(msg *JSONRPCMessage) error {
	var params protocol.CodeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: -32602, Message: err.Error()})
		return err
	}

	actions := s.getCodeActions(params)
	s.sendResponse(msg.ID, actions, nil)
	return nil
}

// getCodeActions returns the extract-to-macro actions for the selection.
// A document that does not parse, or a selection with no extraction
// candidate, yields an empty list.
func (s *Server) getCodeActions(params protocol.CodeActionParams) []protocol.CodeAction {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}

	parsed, err := xml.Parse(doc.URI, doc.Content)
	if err != nil {
		s.logger.Debug("Document does not parse, no code actions", "uri", doc.URI, "error", err)
		return nil
	}

	return s.refactor.AvailableActions(parsed, params.Range)
}
