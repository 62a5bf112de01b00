// Package main provides the entry point for the oxdb CLI.
package main

import (
	"os"

	"github.com/ox-ai/oxdb-lite/cmd/oxdb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
