// Package commands implements CLI command handlers for symtab.
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the symtab command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "symtab",
		Short: "symtab - string interning toolkit",
		Long: `symtab interns token corpora into dense integer symbols and reports
storage and deduplication behavior.

Commands:
  stats     Intern a corpus and report dedup statistics
  dump      Intern a corpus and print the stored strings
  version   Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "",
		"Config file (default: ./symtab.yaml or $HOME/.config/symtab/symtab.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(NewStatsCommand())
	rootCmd.AddCommand(NewDumpCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// configPath reads the persistent --config flag. Commands executed outside
// the root tree (tests) fall back to the default search path.
func configPath(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return ""
	}

	return path
}

// isSilent reports whether progress output is suppressed, either by the
// command's own --silent flag or the persistent --quiet flag.
func isSilent(cmd *cobra.Command, silentFlag bool) bool {
	if silentFlag {
		return true
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return false
	}

	return quiet
}

func progressf(silent bool, writer io.Writer, format string, args ...any) {
	if silent {
		return
	}

	_, _ = fmt.Fprintf(writer, "progress: "+format+"\n", args...)
}
