package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/toolshed-labs/macrols/internal/protocol"
)

func TestStore_OpenGetClose(t *testing.T) {
	store := NewStore()

	store.Open("file:///test.xml", "<tool/>", 1)

	doc := store.Get("file:///test.xml")
	if doc == nil {
		t.Fatal("expected document to be found")
	}
	if doc.Content != "<tool/>" {
		t.Errorf("expected content '<tool/>', got %q", doc.Content)
	}
	if doc.Version != 1 {
		t.Errorf("expected version 1, got %d", doc.Version)
	}

	store.Close("file:///test.xml")
	if store.Get("file:///test.xml") != nil {
		t.Error("expected document to be removed after close")
	}
}

func TestStore_Update(t *testing.T) {
	store := NewStore()

	store.Open("file:///test.xml", "<tool/>", 1)
	store.Update("file:///test.xml", "<tool></tool>", 2)

	doc := store.Get("file:///test.xml")
	if doc.Content != "<tool></tool>" {
		t.Errorf("expected updated content, got %q", doc.Content)
	}
	if doc.Version != 2 {
		t.Errorf("expected version 2, got %d", doc.Version)
	}

	// Updating an unknown URI is a no-op
	store.Update("file:///other.xml", "x", 1)
	if store.Get("file:///other.xml") != nil {
		t.Error("expected update of unknown URI to be ignored")
	}
}

func TestStore_Fetch(t *testing.T) {
	store := NewStore()

	// Open documents win over disk
	store.Open("file:///open.xml", "<tool/>", 3)
	doc, err := store.Fetch("file:///open.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Version != 3 {
		t.Errorf("expected open document at version 3, got %d", doc.Version)
	}

	// Unknown URIs fall back to disk at version 0
	dir := t.TempDir()
	path := filepath.Join(dir, "macros.xml")
	if err := os.WriteFile(path, []byte("<macros/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err = store.Fetch(PathToURI(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content != "<macros/>" {
		t.Errorf("expected disk content, got %q", doc.Content)
	}
	if doc.Version != 0 {
		t.Errorf("expected disk snapshot at version 0, got %d", doc.Version)
	}
	if store.Get(PathToURI(path)) != nil {
		t.Error("expected disk snapshot not to be registered in the store")
	}

	// Missing files surface the error
	if _, err := store.Fetch(PathToURI(filepath.Join(dir, "missing.xml"))); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDocument_Positions(t *testing.T) {
	store := NewStore()
	store.Open("file:///test.xml", "line one\nline two\nline three", 1)
	doc := store.Get("file:///test.xml")

	tests := []struct {
		name     string
		pos      protocol.Position
		expected int
	}{
		{"start of document", protocol.Position{Line: 0, Character: 0}, 0},
		{"middle of first line", protocol.Position{Line: 0, Character: 4}, 4},
		{"start of second line", protocol.Position{Line: 1, Character: 0}, 9},
		{"past last line", protocol.Position{Line: 10, Character: 0}, 28},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := doc.PositionToOffset(tt.pos); got != tt.expected {
				t.Errorf("expected offset %d, got %d", tt.expected, got)
			}
		})
	}

	pos := doc.OffsetToPosition(9)
	if pos.Line != 1 || pos.Character != 0 {
		t.Errorf("expected {1, 0}, got %+v", pos)
	}
	pos = doc.OffsetToPosition(100)
	if pos.Line != 2 {
		t.Errorf("expected clamp to last line, got %+v", pos)
	}
}

func TestDocument_GetLine(t *testing.T) {
	store := NewStore()
	store.Open("file:///test.xml", "first\nsecond\nthird", 1)
	doc := store.Get("file:///test.xml")

	tests := []struct {
		line     int
		expected string
	}{
		{0, "first"},
		{1, "second"},
		{2, "third"},
		{3, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := doc.GetLine(tt.line); got != tt.expected {
			t.Errorf("line %d: expected %q, got %q", tt.line, tt.expected, got)
		}
	}
}

func TestDocument_GetTextInRange(t *testing.T) {
	store := NewStore()
	store.Open("file:///test.xml", "<tool>\n    <param/>\n</tool>", 1)
	doc := store.Get("file:///test.xml")

	r := protocol.Range{
		Start: protocol.Position{Line: 1, Character: 4},
		End:   protocol.Position{Line: 1, Character: 12},
	}
	if got := doc.GetTextInRange(r); got != "<param/>" {
		t.Errorf("expected '<param/>', got %q", got)
	}

	empty := protocol.Range{
		Start: protocol.Position{Line: 1, Character: 4},
		End:   protocol.Position{Line: 1, Character: 4},
	}
	if got := doc.GetTextInRange(empty); got != "" {
		t.Errorf("expected empty string for empty range, got %q", got)
	}
}

func TestURIConversion(t *testing.T) {
	if got := URIToPath("file:///home/user/tool.xml"); got != "/home/user/tool.xml" {
		t.Errorf("unexpected path: %q", got)
	}
	if got := URIToPath("/already/a/path"); got != "/already/a/path" {
		t.Errorf("unexpected path: %q", got)
	}
	if got := PathToURI("/home/user/tool.xml"); got != "file:///home/user/tool.xml" {
		t.Errorf("unexpected uri: %q", got)
	}
	if got := PathToURI("file:///home/user/tool.xml"); got != "file:///home/user/tool.xml" {
		t.Errorf("unexpected uri: %q", got)
	}
}
