// Package tool provides a structural view over Galaxy-style tool XML
// documents: the reserved tag vocabulary and the queries the refactoring
// engine needs to navigate a tool file.
package tool

import (
	"github.com/toolshed-labs/macrols/internal/protocol"
	"github.com/toolshed-labs/macrols/internal/xml"
)

// Reserved structural tag names.
const (
	TagTool        = "tool"
	TagMacros      = "macros"
	TagMacro       = "macro"
	TagXML         = "xml"
	TagExpand      = "expand"
	TagImport      = "import"
	TagToken       = "token"
	TagDescription = "description"
	TagXrefs       = "xrefs"
)

// TokenSigil wraps token names in source declarations, e.g. @THREADS@.
const TokenSigil = "@"

// TagRole classifies a tag name into the closed set of structural roles the
// refactoring engine branches on.
type TagRole int

const (
	// RoleContent is any tag with no structural meaning; content elements
	// are the only ones that can be extracted into a macro.
	RoleContent TagRole = iota
	RoleToolRoot
	RoleMacrosContainer
	RoleMacroDefinition
	RoleMacroReference
	RoleImport
	RoleToken
)

// ClassifyTag maps a tag name to its structural role.
func ClassifyTag(name string) TagRole {
	switch name {
	case TagTool:
		return RoleToolRoot
	case TagMacros:
		return RoleMacrosContainer
	case TagMacro, TagXML:
		return RoleMacroDefinition
	case TagExpand:
		return RoleMacroReference
	case TagImport:
		return RoleImport
	case TagToken:
		return RoleToken
	default:
		return RoleContent
	}
}

// Extractable reports whether an element with this role may be wrapped in a
// macro definition. Structural elements cannot themselves become macros.
func (r TagRole) Extractable() bool {
	switch r {
	case RoleToolRoot, RoleMacrosContainer, RoleMacroDefinition:
		return false
	default:
		return true
	}
}

// Document wraps a parsed XML document with tool-specific queries.
type Document struct {
	XML *xml.Document
}

// FromXML creates a tool view over a parsed document.
func FromXML(doc *xml.Document) *Document {
	return &Document{XML: doc}
}

// MacrosElement returns the tool's <macros> container, or nil.
func (d *Document) MacrosElement() *xml.Element {
	return d.FindElement(TagMacros)
}

// FindElement returns the first element with the given tag, or nil.
func (d *Document) FindElement(name string) *xml.Element {
	return d.XML.Find(name)
}

// ContentStartOfRoot returns the position where the tool root's content
// begins. It is the fallback insertion point for a synthesized macros
// container.
func (d *Document) ContentStartOfRoot() protocol.Position {
	if root := d.XML.Root; root != nil {
		return d.XML.ContentStart(root)
	}
	return protocol.Position{}
}
