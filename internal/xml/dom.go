// Package xml provides a position-aware XML document model for tool and
// macros documents. Every element in the tree carries the byte offsets of
// its tags in the original source, so edits can be anchored to textual
// ranges that survive independent application.
package xml

import (
	"github.com/toolshed-labs/macrols/internal/protocol"
)

// Attr is a single element attribute, in source order.
type Attr struct {
	Name  string
	Value string
}

// Node is one ordered content item of an element: a child element, a run
// of character data, or a comment.
type Node interface {
	node()
}

// Text is a run of character data.
type Text struct {
	Data string
}

func (Text) node() {}

// Comment is an XML comment. Data excludes the <!-- --> delimiters.
type Comment struct {
	Data string
}

func (Comment) node() {}

func (*Element) node() {}

// Element is a node of the parsed tree. All offsets are byte offsets into
// the owning Document's source.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Parent   *Element

	// Nodes holds the element's content in document order: child elements
	// interleaved with text runs and comments. Children is the element-only
	// subsequence.
	Nodes []Node

	// SelfClosing reports whether the element was written as <name/>.
	SelfClosing bool

	// Start is the offset of '<' of the open tag.
	Start int
	// OpenTagEnd is the offset just past '>' of the open tag.
	OpenTagEnd int
	// ContentEnd is the offset where the close tag begins. For self-closing
	// elements it equals OpenTagEnd.
	ContentEnd int
	// End is the offset just past the final '>' of the element.
	End int

	text string
}

// Attribute returns the value of the named attribute.
func (e *Element) Attribute(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// TextContent returns the concatenated character data directly under the element.
func (e *Element) TextContent() string {
	return e.text
}

// Document is an immutable parsed snapshot of one XML file.
type Document struct {
	URI    string
	Source string
	Root   *Element

	lines []int
}

// FindAll returns all elements with the given tag name, in document order.
func (d *Document) FindAll(name string) []*Element {
	var out []*Element
	var walk func(e *Element)
	walk = func(e *Element) {
		if e.Name == name {
			out = append(out, e)
		}
		for _, c := range e.Children {
			walk(c)
		}
	}
	if d.Root != nil {
		walk(d.Root)
	}
	return out
}

// Find returns the first element with the given tag name, or nil.
func (d *Document) Find(name string) *Element {
	all := d.FindAll(name)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// NameRange returns the range of the element's tag name inside its open tag.
func (d *Document) NameRange(e *Element) protocol.Range {
	start := e.Start + 1 // past '<'
	return protocol.Range{
		Start: d.OffsetToPosition(start),
		End:   d.OffsetToPosition(start + len(e.Name)),
	}
}

// PositionAfterLastChild returns the position where a new last child can be
// inserted: after the last child element if any, otherwise right after the
// open tag.
func (d *Document) PositionAfterLastChild(e *Element) protocol.Position {
	if n := len(e.Children); n > 0 {
		return d.OffsetToPosition(e.Children[n-1].End)
	}
	return d.OffsetToPosition(e.OpenTagEnd)
}

// PositionBeforeFirstChild returns the position where a new first child can
// be inserted: before the first child element if any, otherwise right after
// the open tag.
func (d *Document) PositionBeforeFirstChild(e *Element) protocol.Position {
	if len(e.Children) > 0 {
		return d.OffsetToPosition(e.Children[0].Start)
	}
	return d.OffsetToPosition(e.OpenTagEnd)
}

// PositionAfter returns the position just past the element's final '>'.
func (d *Document) PositionAfter(e *Element) protocol.Position {
	return d.OffsetToPosition(e.End)
}

// ContentStart returns the position where the element's content begins.
func (d *Document) ContentStart(e *Element) protocol.Position {
	return d.OffsetToPosition(e.OpenTagEnd)
}

// LineIndentation returns the leading whitespace of the given zero-based
// line. Out-of-range lines yield the empty string.
func (d *Document) LineIndentation(line int) string {
	if line < 0 || line >= len(d.lines) {
		return ""
	}
	start := d.lines[line]
	i := start
	for i < len(d.Source) && (d.Source[i] == ' ' || d.Source[i] == '\t') {
		i++
	}
	return d.Source[start:i]
}

// TextInRange returns the source text covered by the range.
func (d *Document) TextInRange(r protocol.Range) string {
	start := d.PositionToOffset(r.Start)
	end := d.PositionToOffset(r.End)
	if start >= end || start >= len(d.Source) {
		return ""
	}
	return d.Source[start:end]
}

// PositionToOffset converts a position to a byte offset in the source.
func (d *Document) PositionToOffset(pos protocol.Position) int {
	if len(d.lines) == 0 {
		return 0
	}
	line := int(pos.Line)
	if line >= len(d.lines) {
		return len(d.Source)
	}
	offset := d.lines[line] + int(pos.Character)
	if offset > len(d.Source) {
		return len(d.Source)
	}
	return offset
}

// OffsetToPosition converts a byte offset to a position.
func (d *Document) OffsetToPosition(offset int) protocol.Position {
	if len(d.lines) == 0 {
		return protocol.Position{}
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.Source) {
		offset = len(d.Source)
	}
	line := 0
	for i, lineOffset := range d.lines {
		if lineOffset > offset {
			break
		}
		line = i
	}
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(offset - d.lines[line]),
	}
}

// computeLineOffsets calculates byte offsets for each line start.
func computeLineOffsets(content string) []int {
	offsets := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}
