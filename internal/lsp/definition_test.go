package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/toolshed-labs/macrols/internal/protocol"
	"github.com/toolshed-labs/macrols/internal/workspace"
)

func TestTokenReferenceAt(t *testing.T) {
	store := workspace.NewStore()
	store.Open("file:///tool.xml", `<command>echo @THREADS@ and @GENOME@</command>`, 1)
	doc := store.Get("file:///tool.xml")

	tests := []struct {
		name     string
		char     uint32
		expected string
		found    bool
	}{
		{"inside first reference", 18, "THREADS", true},
		{"at reference start", 15, "THREADS", true},
		{"inside second reference", 30, "GENOME", true},
		{"between references", 25, "", false},
		{"before any sigil", 5, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := tokenReferenceAt(doc, protocol.Position{Line: 0, Character: tt.char})
			if ok != tt.found {
				t.Fatalf("expected found=%v, got %v", tt.found, ok)
			}
			if name != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, name)
			}
		})
	}
}

func TestGetDefinition_Token(t *testing.T) {
	dir := t.TempDir()
	macrosPath := filepath.Join(dir, "macros.xml")
	if err := os.WriteFile(macrosPath, []byte(`<macros>
    <token name="@THREADS@">4</token>
</macros>`), 0o644); err != nil {
		t.Fatal(err)
	}

	toolSource := `<tool id="t" name="T">
    <macros>
        <import>macros.xml</import>
    </macros>
    <command>echo @THREADS@</command>
</tool>`
	toolURI := workspace.PathToURI(filepath.Join(dir, "tool.xml"))

	s, _ := newTestServer("")
	s.documents.Open(toolURI, toolSource, 1)

	loc := s.getDefinition(protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: toolURI},
			Position:     protocol.Position{Line: 4, Character: 20},
		},
	})
	if loc == nil {
		t.Fatal("expected a definition location")
	}
	if loc.URI != workspace.PathToURI(macrosPath) {
		t.Errorf("expected definition in macros file, got %q", loc.URI)
	}
	if loc.Range.Start.Line != 1 {
		t.Errorf("expected definition on line 1, got %d", loc.Range.Start.Line)
	}
}

func TestGetDefinition_Import(t *testing.T) {
	dir := t.TempDir()
	macrosPath := filepath.Join(dir, "macros.xml")
	if err := os.WriteFile(macrosPath, []byte(`<macros/>`), 0o644); err != nil {
		t.Fatal(err)
	}

	toolSource := `<tool id="t" name="T">
    <macros>
        <import>macros.xml</import>
    </macros>
</tool>`
	toolURI := workspace.PathToURI(filepath.Join(dir, "tool.xml"))

	s, _ := newTestServer("")
	s.documents.Open(toolURI, toolSource, 1)

	loc := s.getDefinition(protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: toolURI},
			Position:     protocol.Position{Line: 2, Character: 20},
		},
	})
	if loc == nil {
		t.Fatal("expected a definition location")
	}
	if loc.URI != workspace.PathToURI(macrosPath) {
		t.Errorf("expected imported file, got %q", loc.URI)
	}
	// The imported file's root element name
	if loc.Range.Start.Character != 1 || loc.Range.End.Character != 7 {
		t.Errorf("unexpected range: %+v", loc.Range)
	}
}

func TestGetDefinition_NoResult(t *testing.T) {
	s, _ := newTestServer("")
	s.documents.Open("file:///tool.xml", `<tool id="t" name="T">
    <command>echo hello</command>
</tool>`, 1)

	tests := []struct {
		name string
		uri  string
		pos  protocol.Position
	}{
		{"plain text position", "file:///tool.xml", protocol.Position{Line: 1, Character: 16}},
		{"unknown document", "file:///other.xml", protocol.Position{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := s.getDefinition(protocol.DefinitionParams{
				TextDocumentPositionParams: protocol.TextDocumentPositionParams{
					TextDocument: protocol.TextDocumentIdentifier{URI: tt.uri},
					Position:     tt.pos,
				},
			})
			if loc != nil {
				t.Errorf("expected no location, got %+v", loc)
			}
		})
	}
}

func TestGetDefinition_UnresolvedImport(t *testing.T) {
	dir := t.TempDir()
	toolSource := `<tool id="t" name="T">
    <macros>
        <import>missing.xml</import>
    </macros>
</tool>`
	toolURI := workspace.PathToURI(filepath.Join(dir, "tool.xml"))

	s, _ := newTestServer("")
	s.documents.Open(toolURI, toolSource, 1)

	loc := s.getDefinition(protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: toolURI},
			Position:     protocol.Position{Line: 2, Character: 20},
		},
	})
	if loc != nil {
		t.Errorf("expected no location for unresolved import, got %+v", loc)
	}
}
