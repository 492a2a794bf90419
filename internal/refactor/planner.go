// Package refactor computes extract-to-macro code actions for tool
// documents: it validates a user selection, resolves the tool's macro
// imports, and synthesizes coordinated multi-document edit sets.
package refactor

import (
	"strings"

	"github.com/toolshed-labs/macrols/internal/protocol"
	"github.com/toolshed-labs/macrols/internal/tool"
	"github.com/toolshed-labs/macrols/internal/xml"
)

// MacroData is an extraction candidate: the macro name derived from the
// selected element's tag and the trimmed original markup of the selection.
type MacroData struct {
	Name    string
	Content string
}

// minSelectionLength is the shortest text that can denote an element (<a/>).
const minSelectionLength = 5

// PlanExtraction validates that the selection denotes a single well-formed,
// extractable element and derives the macro candidate from it. A selection
// that is too short, not tag-delimited, unparsable, or rooted at a reserved
// structural tag yields no candidate; none of those are errors.
func PlanExtraction(doc *xml.Document, selection protocol.Range) (MacroData, bool) {
	text := doc.TextInRange(selection)
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minSelectionLength {
		return MacroData{}, false
	}
	if trimmed[0] != '<' || trimmed[len(trimmed)-1] != '>' {
		return MacroData{}, false
	}

	frag, err := xml.ParseFragment(trimmed)
	if err != nil {
		return MacroData{}, false
	}

	if !tool.ClassifyTag(frag.Root.Name).Extractable() {
		return MacroData{}, false
	}

	return MacroData{Name: frag.Root.Name, Content: trimmed}, true
}
