package xml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Parse builds a position-aware document tree from XML source text.
// The source is kept verbatim on the returned Document; all element
// offsets point into it.
func Parse(uri, source string) (*Document, error) {
	dec := xml.NewDecoder(strings.NewReader(source))

	doc := &Document{
		URI:    uri,
		Source: source,
		lines:  computeLineOffsets(source),
	}

	var stack []*Element
	rootClosed := false

	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", uri, err)
		}
		end := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("parse %s: unexpected element <%s> after document end", uri, t.Name.Local)
			}
			el := &Element{
				Name:       t.Name.Local,
				Attrs:      convertAttrs(t.Attr),
				Start:      int(start),
				OpenTagEnd: int(end),
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
				parent.Nodes = append(parent.Nodes, el)
				el.Parent = parent
			} else {
				doc.Root = el
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse %s: unexpected close tag </%s>", uri, t.Name.Local)
			}
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			el.ContentEnd = int(start)
			el.End = int(end)
			// The decoder synthesizes the close of a self-closing element
			// without consuming input.
			if start == end {
				el.SelfClosing = true
				el.ContentEnd = el.OpenTagEnd
				el.End = el.OpenTagEnd
			}
			if len(stack) == 0 {
				rootClosed = true
			}

		case xml.CharData:
			if len(stack) == 0 {
				if !isIgnorableOutsideRoot(string(t)) {
					return nil, fmt.Errorf("parse %s: character data outside root element", uri)
				}
				continue
			}
			el := stack[len(stack)-1]
			el.text += string(t)
			// The decoder splits character data at CDATA boundaries;
			// adjacent runs collapse into one node.
			if n := len(el.Nodes); n > 0 {
				if prev, ok := el.Nodes[n-1].(Text); ok {
					el.Nodes[n-1] = Text{Data: prev.Data + string(t)}
					continue
				}
			}
			el.Nodes = append(el.Nodes, Text{Data: string(t)})

		case xml.Comment:
			if len(stack) > 0 {
				el := stack[len(stack)-1]
				el.Nodes = append(el.Nodes, Comment{Data: string(t)})
			}
		}
	}

	if doc.Root == nil {
		return nil, fmt.Errorf("parse %s: %w", uri, io.ErrUnexpectedEOF)
	}
	if !rootClosed {
		return nil, fmt.Errorf("parse %s: %w", uri, io.ErrUnexpectedEOF)
	}

	return doc, nil
}

// ParseFragment parses standalone markup that is not backed by a file.
func ParseFragment(source string) (*Document, error) {
	return Parse("", source)
}

func convertAttrs(attrs []xml.Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(attrs))
	for i, a := range attrs {
		name := a.Name.Local
		if a.Name.Space != "" {
			name = a.Name.Space + ":" + a.Name.Local
		}
		out[i] = Attr{Name: name, Value: a.Value}
	}
	return out
}

func isIgnorableOutsideRoot(data string) bool {
	for _, r := range data {
		if r == '\uFEFF' {
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
