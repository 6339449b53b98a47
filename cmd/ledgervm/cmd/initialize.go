package cmd

import (
	"github.com/fatih/color"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/spf13/cobra"
)

var initializeCmd = &cobra.Command{
	Use:   "initialize <path>",
	Short: "Create a fresh store file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		st, err := store.Initialize(args[0])
		if err != nil {
			return err
		}
		defer st.Close()
		color.Green("initialized %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initializeCmd)
}
