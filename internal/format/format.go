// Package format pretty-prints XML fragments so extracted macros match the
// house style regardless of how the source selection was written.
package format

import (
	"fmt"
	"strings"

	"github.com/toolshed-labs/macrols/internal/xml"
)

// indentUnit is the indentation step used by Galaxy tool documents.
const indentUnit = "    "

// Fragment formats a standalone XML fragment. The output is deterministic
// and idempotent: formatting already-formatted text yields the same text.
func Fragment(text string) (string, error) {
	doc, err := xml.ParseFragment(strings.TrimSpace(text))
	if err != nil {
		return "", fmt.Errorf("format fragment: %w", err)
	}

	var b strings.Builder
	writeElement(&b, doc.Root, 0)
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func writeElement(b *strings.Builder, e *xml.Element, depth int) {
	indent := strings.Repeat(indentUnit, depth)

	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(e.Name)
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(a.Value))
		b.WriteByte('"')
	}

	nodes := significantNodes(e)
	if len(nodes) == 0 {
		b.WriteString("/>\n")
		return
	}
	if text, ok := soleText(nodes); ok {
		b.WriteByte('>')
		b.WriteString(escapeText(text))
		b.WriteString("</")
		b.WriteString(e.Name)
		b.WriteString(">\n")
		return
	}

	b.WriteString(">\n")
	for _, n := range nodes {
		switch n := n.(type) {
		case *xml.Element:
			writeElement(b, n, depth+1)
		case xml.Text:
			b.WriteString(indent)
			b.WriteString(indentUnit)
			b.WriteString(escapeText(strings.TrimSpace(n.Data)))
			b.WriteByte('\n')
		case xml.Comment:
			b.WriteString(indent)
			b.WriteString(indentUnit)
			b.WriteString("<!--")
			b.WriteString(n.Data)
			b.WriteString("-->\n")
		}
	}
	b.WriteString(indent)
	b.WriteString("</")
	b.WriteString(e.Name)
	b.WriteString(">\n")
}

// significantNodes returns the element's content in document order with
// whitespace-only text runs dropped.
func significantNodes(e *xml.Element) []xml.Node {
	var out []xml.Node
	for _, n := range e.Nodes {
		if t, ok := n.(xml.Text); ok && strings.TrimSpace(t.Data) == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

// soleText reports whether the content is a single text run, which is kept
// inline on the element's own line.
func soleText(nodes []xml.Node) (string, bool) {
	if len(nodes) != 1 {
		return "", false
	}
	t, ok := nodes[0].(xml.Text)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(t.Data), true
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = escapeText(s)
	return strings.ReplaceAll(s, `"`, "&quot;")
}
