// Package main provides the entry point for the indexfoundryctl CLI.
package main

import (
	"os"

	"github.com/indexfoundry/indexfoundry/cmd/indexfoundryctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
