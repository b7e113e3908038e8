// Package main is the entry point for the bartrack CLI.
//
// Usage:
//
//	bartrack [flags] <command> [args]
//
// Commands:
//
//	track     - Streaming bar tracking from stdin (one frame per line)
//	decode    - Batch decoding of a recording (beats + features files)
//	patterns  - Inspect and convert pattern model files
//	version   - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/00001101-xt/bartrack/cmd/bartrack/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
