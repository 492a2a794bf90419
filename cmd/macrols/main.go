// Command macrols is the macro language server for tool XML documents.
package main

import (
	"os"

	"github.com/toolshed-labs/macrols/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
