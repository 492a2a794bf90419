package refactor

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/toolshed-labs/macrols/internal/macro"
	"github.com/toolshed-labs/macrols/internal/protocol"
	"github.com/toolshed-labs/macrols/internal/tool"
	"github.com/toolshed-labs/macrols/internal/workspace"
	"github.com/toolshed-labs/macrols/internal/xml"
)

// Service orchestrates extraction planning, symbol resolution, and edit
// synthesis into presentable code actions.
type Service struct {
	provider    *macro.DefinitionsProvider
	synthesizer *Synthesizer
	logger      *slog.Logger
}

// NewService creates a refactoring service backed by the given document store.
func NewService(store *workspace.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		provider:    macro.NewDefinitionsProvider(store, logger),
		synthesizer: NewSynthesizer(store, logger),
		logger:      logger,
	}
}

// Definitions resolves the macro symbol table for a tool document.
func (s *Service) Definitions(doc *xml.Document) *macro.ToolMacroDefinitions {
	return s.provider.Resolve(doc)
}

// AvailableActions returns the candidate extract-to-macro actions for the
// selection, external destinations first. An unextractable selection yields
// an empty list, never an error.
func (s *Service) AvailableActions(doc *xml.Document, selection protocol.Range) []protocol.CodeAction {
	m, ok := PlanExtraction(doc, selection)
	if !ok {
		return nil
	}

	definitions := s.provider.Resolve(doc)
	t := tool.FromXML(doc)

	actions := s.externalActions(t, definitions, m, selection)
	actions = append(actions, s.localActions(t, m, selection)...)
	return actions
}

// localActions produces the extract-to-local-macro action.
func (s *Service) localActions(t *tool.Document, m MacroData, selection protocol.Range) []protocol.CodeAction {
	changes, err := s.synthesizer.LocalChanges(t, m, selection)
	if err != nil {
		s.logger.Warn("Local extraction failed", "macro", m.Name, "error", err)
		return nil
	}
	return []protocol.CodeAction{{
		Title: "Extract to local macro",
		Kind:  protocol.CodeActionKindRefactorExtract,
		Edit:  &protocol.WorkspaceEdit{Changes: changes},
	}}
}

// externalActions produces one action per resolved imported macros file, or
// a single create-and-import action when the tool imports nothing.
func (s *Service) externalActions(t *tool.Document, definitions *macro.ToolMacroDefinitions, m MacroData, selection protocol.Range) []protocol.CodeAction {
	if len(definitions.Imports) == 0 {
		documentChanges, err := s.synthesizer.ExternalChangesNewFile(t, DefaultMacrosFileName, m, selection)
		if err != nil {
			s.logger.Warn("Create-and-import extraction failed", "macro", m.Name, "error", err)
			return nil
		}
		return []protocol.CodeAction{{
			Title: fmt.Sprintf("Extract to macro, create and import %s", DefaultMacrosFileName),
			Kind:  protocol.CodeActionKindRefactorExtract,
			Edit:  &protocol.WorkspaceEdit{DocumentChanges: documentChanges},
		}}
	}

	var actions []protocol.CodeAction
	for _, imported := range definitions.Imports {
		resolved, ok := imported.Resolved()
		if !ok {
			s.logger.Debug("Skipping unresolved import", "file", imported.FileName)
			continue
		}
		changes, err := s.synthesizer.ExternalChanges(t, resolved, m, selection)
		if err != nil {
			s.logger.Warn("External extraction failed", "file", imported.FileName, "macro", m.Name, "error", err)
			continue
		}
		actions = append(actions, protocol.CodeAction{
			Title: fmt.Sprintf("Extract to macro in %s", imported.FileName),
			Kind:  protocol.CodeActionKindRefactorExtract,
			Edit:  &protocol.WorkspaceEdit{Changes: changes},
		})
	}
	return actions
}
