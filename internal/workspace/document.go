// Package workspace manages the text documents a refactoring pass can see:
// documents opened by the editor plus read-only snapshots loaded from disk.
package workspace

import (
	"os"
	"strings"
	"sync"

	"github.com/toolshed-labs/macrols/internal/protocol"
)

// Document represents a text document snapshot.
type Document struct {
	URI     string // Document URI (file:///path/to/tool.xml)
	Content string // Full document content
	Version int    // Version number, incremented on each change
	Lines   []int  // Byte offsets of line starts for fast position lookups
}

// Store manages open documents in memory.
type Store struct {
	mu        sync.RWMutex
	documents map[string]*Document
}

// NewStore creates a new document store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]*Document),
	}
}

// Open adds or updates a document in the store.
func (s *Store) Open(uri string, content string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[uri] = &Document{
		URI:     uri,
		Content: content,
		Version: version,
		Lines:   computeLineOffsets(content),
	}
}

// Close removes a document from the store.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, uri)
}

// Get retrieves an open document by URI.
func (s *Store) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.documents[uri]
}

// Update modifies an existing document's content.
func (s *Store) Update(uri string, content string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.documents[uri]; ok {
		doc.Content = content
		doc.Version = version
		doc.Lines = computeLineOffsets(content)
	}
}

// Fetch returns the open document for the URI, or a read-only snapshot
// loaded from disk at version 0. Disk snapshots are not registered in the
// store; a resolution pass must never mutate what it merely reads.
func (s *Store) Fetch(uri string) (*Document, error) {
	if doc := s.Get(uri); doc != nil {
		return doc, nil
	}

	content, err := os.ReadFile(URIToPath(uri))
	if err != nil {
		return nil, err
	}
	return &Document{
		URI:     uri,
		Content: string(content),
		Version: 0,
		Lines:   computeLineOffsets(string(content)),
	}, nil
}

// List returns all open document URIs.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uris := make([]string, 0, len(s.documents))
	for uri := range s.documents {
		uris = append(uris, uri)
	}
	return uris
}

// computeLineOffsets calculates byte offsets for each line start.
func computeLineOffsets(content string) []int {
	offsets := []int{0} // First line starts at offset 0

	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}

	return offsets
}

// PositionToOffset converts a Position to a byte offset in the document.
func (d *Document) PositionToOffset(pos protocol.Position) int {
	if d == nil || len(d.Lines) == 0 {
		return 0
	}

	line := int(pos.Line)
	if line >= len(d.Lines) {
		return len(d.Content)
	}

	offset := d.Lines[line] + int(pos.Character)
	if offset > len(d.Content) {
		return len(d.Content)
	}

	return offset
}

// OffsetToPosition converts a byte offset to a Position.
func (d *Document) OffsetToPosition(offset int) protocol.Position {
	if d == nil || len(d.Lines) == 0 {
		return protocol.Position{}
	}

	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Content) {
		offset = len(d.Content)
	}

	line := 0
	for i, lineOffset := range d.Lines {
		if lineOffset > offset {
			break
		}
		line = i
	}

	character := offset - d.Lines[line]
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(character),
	}
}

// GetLine returns the content of a specific line.
func (d *Document) GetLine(line int) string {
	if d == nil || line < 0 || line >= len(d.Lines) {
		return ""
	}

	start := d.Lines[line]
	end := len(d.Content)

	if line+1 < len(d.Lines) {
		end = d.Lines[line+1] - 1 // Exclude newline
		if end < start {
			end = start
		}
	}

	return d.Content[start:end]
}

// GetTextInRange returns the text within a range.
func (d *Document) GetTextInRange(r protocol.Range) string {
	start := d.PositionToOffset(r.Start)
	end := d.PositionToOffset(r.End)
	if start >= end || start >= len(d.Content) {
		return ""
	}
	return d.Content[start:end]
}

// URIToPath converts a file:// URI to a file system path.
func URIToPath(uri string) string {
	const prefix = "file://"
	if strings.HasPrefix(uri, prefix) {
		return uri[len(prefix):]
	}
	return uri
}

// PathToURI converts a file system path to a file:// URI.
func PathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}
