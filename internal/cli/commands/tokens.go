package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/toolshed-labs/macrols/internal/cli/config"
	"github.com/toolshed-labs/macrols/internal/macro"
	"github.com/toolshed-labs/macrols/internal/workspace"
	"github.com/toolshed-labs/macrols/internal/xml"
)

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tokens <tool-file>",
		Short: "Show the resolved macro token table of a tool document",
		Long: `Resolve a tool document's macro imports and print the aggregated
token table: the tool's own tokens plus the tokens contributed by each
imported macros file (later imports overwrite colliding names).`,
		Example: `  # Inspect the tokens visible to a tool
  macrols tokens tools/trimmer/trimmer.xml

  # JSON output
  macrols tokens --output json tools/trimmer/trimmer.xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = config.DefaultOutput
			}
			return runTokens(cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format (table|json)")
	return cmd
}

func runTokens(cmd *cobra.Command, path string, output string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read tool file: %w", err)
	}

	uri := workspace.PathToURI(absPath)
	doc, err := xml.Parse(uri, string(content))
	if err != nil {
		return err
	}

	provider := macro.NewDefinitionsProvider(workspace.NewStore(), config.GetLogger(cmd.Context()))
	definitions := provider.Resolve(doc)

	switch output {
	case "json":
		return renderTokensJSON(cmd.OutOrStdout(), definitions)
	default:
		return renderTokensTable(cmd.OutOrStdout(), definitions)
	}
}

func renderTokensTable(w io.Writer, definitions *macro.ToolMacroDefinitions) error {
	if len(definitions.Imports) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"IMPORT", "STATUS"})
		for _, imported := range definitions.Imports {
			status := "missing"
			if _, ok := imported.Resolved(); ok {
				status = "resolved"
			}
			t.AppendRow(table.Row{imported.FileName, status})
		}
		t.Render()
	}

	if len(definitions.Tokens) == 0 {
		_, _ = fmt.Fprintln(w, "(0 tokens)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"TOKEN", "DEFINED IN", "LINE"})
	for _, def := range sortedTokens(definitions) {
		t.AppendRow(table.Row{
			def.Name,
			workspace.URIToPath(def.Location.URI),
			def.Location.Range.Start.Line + 1,
		})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d tokens)\n", len(definitions.Tokens))
	return nil
}

func renderTokensJSON(w io.Writer, definitions *macro.ToolMacroDefinitions) error {
	type tokenInfo struct {
		Name string `json:"name"`
		URI  string `json:"uri"`
		Line uint32 `json:"line"`
	}
	type importInfo struct {
		FileName string `json:"fileName"`
		Resolved bool   `json:"resolved"`
	}

	out := struct {
		Imports []importInfo `json:"imports"`
		Tokens  []tokenInfo  `json:"tokens"`
	}{
		Imports: []importInfo{},
		Tokens:  []tokenInfo{},
	}
	for _, imported := range definitions.Imports {
		_, resolved := imported.Resolved()
		out.Imports = append(out.Imports, importInfo{FileName: imported.FileName, Resolved: resolved})
	}
	for _, def := range sortedTokens(definitions) {
		out.Tokens = append(out.Tokens, tokenInfo{
			Name: def.Name,
			URI:  def.Location.URI,
			Line: def.Location.Range.Start.Line,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func sortedTokens(definitions *macro.ToolMacroDefinitions) []macro.TokenDefinition {
	tokens := make([]macro.TokenDefinition, 0, len(definitions.Tokens))
	for _, def := range definitions.Tokens {
		tokens = append(tokens, def)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Name < tokens[j].Name })
	return tokens
}
