package cmd

import (
	"fmt"

	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/spf13/cobra"
)

var blockHeightCmd = &cobra.Command{
	Use:   "get_block_height <path>",
	Short: "Print the current simulated block height",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		st, err := store.Open(args[0])
		if err != nil {
			return err
		}
		defer st.Close()

		sp, err := st.BeginOuter()
		if err != nil {
			return err
		}
		height, err := sp.BlockHeight()
		sp.Rollback()
		if err != nil {
			return err
		}
		fmt.Println(height)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(blockHeightCmd)
}
