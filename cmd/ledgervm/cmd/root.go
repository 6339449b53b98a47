package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ledgervm",
	Short: "A deterministic smart-contract execution core",
	Long: `ledgervm parses, type-checks, and evaluates contracts written in a
small Lisp-family contract language, against a SQLite-backed persistence
layer with nested savepoints.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command, printing any returned error in red before
// returning it so main can translate it into exit code 1 (spec §6.1: "Exit
// code is 0 on success, 1 on any failure").
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		return err
	}
	return nil
}
