// Package main provides the entry point for the symtab CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/symtab/cmd/symtab/commands"
	"github.com/Sumatoshi-tech/symtab/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
