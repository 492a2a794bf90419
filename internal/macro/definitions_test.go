package macro

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolshed-labs/macrols/internal/workspace"
	"github.com/toolshed-labs/macrols/internal/xml"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func parseToolFile(t *testing.T, path, content string) *xml.Document {
	t.Helper()
	doc, err := xml.Parse(workspace.PathToURI(path), content)
	require.NoError(t, err)
	return doc
}

func newProvider() *DefinitionsProvider {
	return NewDefinitionsProvider(workspace.NewStore(), nil)
}

func TestResolve_OwnTokens(t *testing.T) {
	dir := t.TempDir()
	source := `<tool id="t" name="T">
    <macros>
        <token name="@THREADS@">4</token>
        <token name="@VERSION@">1.0</token>
    </macros>
</tool>`
	toolPath := writeFile(t, dir, "tool.xml", source)
	doc := parseToolFile(t, toolPath, source)

	definitions := newProvider().Resolve(doc)

	assert.Empty(t, definitions.Imports)
	assert.Len(t, definitions.Tokens, 2)

	// Sigil is stripped: the table keys on the bare name.
	def, ok := definitions.TokenDefinition("THREADS")
	require.True(t, ok)
	assert.Equal(t, "THREADS", def.Name)
	assert.Equal(t, doc.URI, def.Location.URI)
	assert.Equal(t, uint32(2), def.Location.Range.Start.Line)

	_, ok = definitions.TokenDefinition("@THREADS@")
	assert.False(t, ok)
}

func TestResolve_ImportedTokens(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "macros.xml", `<macros>
    <token name="@GENOME@">hg38</token>
</macros>`)
	source := `<tool id="t" name="T">
    <macros>
        <import>macros.xml</import>
    </macros>
</tool>`
	toolPath := writeFile(t, dir, "tool.xml", source)
	doc := parseToolFile(t, toolPath, source)

	definitions := newProvider().Resolve(doc)

	require.Len(t, definitions.Imports, 1)
	imported := definitions.Import("macros.xml")
	require.NotNil(t, imported)
	resolved, ok := imported.Resolved()
	require.True(t, ok)
	assert.Equal(t, workspace.PathToURI(filepath.Join(dir, "macros.xml")), resolved.URI)
	assert.Len(t, resolved.Tokens, 1)

	def, ok := definitions.TokenDefinition("GENOME")
	require.True(t, ok)
	assert.Equal(t, resolved.URI, def.Location.URI)
}

func TestResolve_LastImportWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "first.xml", `<macros>
    <token name="@GENOME@">hg19</token>
</macros>`)
	writeFile(t, dir, "second.xml", `<macros>
    <token name="@GENOME@">hg38</token>
</macros>`)
	source := `<tool id="t" name="T">
    <macros>
        <import>first.xml</import>
        <import>second.xml</import>
    </macros>
</tool>`
	toolPath := writeFile(t, dir, "tool.xml", source)
	doc := parseToolFile(t, toolPath, source)

	definitions := newProvider().Resolve(doc)

	require.Len(t, definitions.Imports, 2)
	assert.Equal(t, "first.xml", definitions.Imports[0].FileName)
	assert.Equal(t, "second.xml", definitions.Imports[1].FileName)

	def, ok := definitions.TokenDefinition("GENOME")
	require.True(t, ok)
	assert.Equal(t, workspace.PathToURI(filepath.Join(dir, "second.xml")), def.Location.URI)
}

func TestResolve_ToolTokenOverwrittenByImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "macros.xml", `<macros>
    <token name="@THREADS@">8</token>
</macros>`)
	source := `<tool id="t" name="T">
    <macros>
        <token name="@THREADS@">4</token>
        <import>macros.xml</import>
    </macros>
</tool>`
	toolPath := writeFile(t, dir, "tool.xml", source)
	doc := parseToolFile(t, toolPath, source)

	definitions := newProvider().Resolve(doc)

	def, ok := definitions.TokenDefinition("THREADS")
	require.True(t, ok)
	assert.Equal(t, workspace.PathToURI(filepath.Join(dir, "macros.xml")), def.Location.URI)
}

func TestResolve_MissingImport(t *testing.T) {
	dir := t.TempDir()
	source := `<tool id="t" name="T">
    <macros>
        <import>nowhere.xml</import>
    </macros>
</tool>`
	toolPath := writeFile(t, dir, "tool.xml", source)
	doc := parseToolFile(t, toolPath, source)

	definitions := newProvider().Resolve(doc)

	require.Len(t, definitions.Imports, 1)
	_, ok := definitions.Imports[0].Resolved()
	assert.False(t, ok)
	assert.Empty(t, definitions.Tokens)

	_, ok = definitions.GoToImportDefinition("nowhere.xml")
	assert.False(t, ok)
}

func TestResolve_UnparsableImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.xml", "<macros><token</macros>")
	source := `<tool id="t" name="T">
    <macros>
        <import>broken.xml</import>
    </macros>
</tool>`
	toolPath := writeFile(t, dir, "tool.xml", source)
	doc := parseToolFile(t, toolPath, source)

	definitions := newProvider().Resolve(doc)

	require.Len(t, definitions.Imports, 1)
	_, ok := definitions.Imports[0].Resolved()
	assert.False(t, ok)
}

func TestResolve_DuplicateImportLiteralKeepsPosition(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.xml", `<macros>
    <token name="@A@">1</token>
</macros>`)
	writeFile(t, dir, "other.xml", `<macros>
    <token name="@B@">2</token>
</macros>`)
	source := `<tool id="t" name="T">
    <macros>
        <import>shared.xml</import>
        <import>other.xml</import>
        <import>shared.xml</import>
    </macros>
</tool>`
	toolPath := writeFile(t, dir, "tool.xml", source)
	doc := parseToolFile(t, toolPath, source)

	definitions := newProvider().Resolve(doc)

	// The repeated literal collapses into the original slot.
	require.Len(t, definitions.Imports, 2)
	assert.Equal(t, "shared.xml", definitions.Imports[0].FileName)
	assert.Equal(t, "other.xml", definitions.Imports[1].FileName)
	assert.Len(t, definitions.Tokens, 2)
}

func TestResolve_PrefersOpenDocumentOverDisk(t *testing.T) {
	dir := t.TempDir()
	macrosPath := writeFile(t, dir, "macros.xml", `<macros>
    <token name="@DISK@">1</token>
</macros>`)
	source := `<tool id="t" name="T">
    <macros>
        <import>macros.xml</import>
    </macros>
</tool>`
	toolPath := writeFile(t, dir, "tool.xml", source)
	doc := parseToolFile(t, toolPath, source)

	store := workspace.NewStore()
	store.Open(workspace.PathToURI(macrosPath), `<macros>
    <token name="@EDITOR@">2</token>
</macros>`, 5)

	definitions := NewDefinitionsProvider(store, nil).Resolve(doc)

	_, ok := definitions.TokenDefinition("EDITOR")
	assert.True(t, ok)
	_, ok = definitions.TokenDefinition("DISK")
	assert.False(t, ok)
}

func TestGoToImportDefinition(t *testing.T) {
	dir := t.TempDir()
	macrosPath := writeFile(t, dir, "macros.xml", `<macros>
    <token name="@A@">1</token>
</macros>`)
	source := `<tool id="t" name="T">
    <macros>
        <import>macros.xml</import>
    </macros>
</tool>`
	toolPath := writeFile(t, dir, "tool.xml", source)
	doc := parseToolFile(t, toolPath, source)

	definitions := newProvider().Resolve(doc)

	loc, ok := definitions.GoToImportDefinition("macros.xml")
	require.True(t, ok)
	assert.Equal(t, workspace.PathToURI(macrosPath), loc.URI)
	// Location is the root element's tag name.
	assert.Equal(t, uint32(0), loc.Range.Start.Line)
	assert.Equal(t, uint32(1), loc.Range.Start.Character)
	assert.Equal(t, uint32(7), loc.Range.End.Character)

	_, ok = definitions.GoToImportDefinition("unknown.xml")
	assert.False(t, ok)
}

func TestResolve_IgnoresBlankAndUnnamedDeclarations(t *testing.T) {
	dir := t.TempDir()
	source := `<tool id="t" name="T">
    <macros>
        <import>   </import>
        <token>orphan</token>
        <token name="@@">empty</token>
        <token name="@OK@">kept</token>
    </macros>
</tool>`
	toolPath := writeFile(t, dir, "tool.xml", source)
	doc := parseToolFile(t, toolPath, source)

	definitions := newProvider().Resolve(doc)

	assert.Empty(t, definitions.Imports)
	assert.Len(t, definitions.Tokens, 1)
	_, ok := definitions.TokenDefinition("OK")
	assert.True(t, ok)
}
