package cmd

import (
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/spf13/cobra"
)

var mineBlockCmd = &cobra.Command{
	Use:   "mine_block <time> <path>",
	Short: "Append a block to the simulated block ledger",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		blockTime, err := parseUint64Arg(args[0], "time")
		if err != nil {
			return err
		}
		st, err := store.Open(args[1])
		if err != nil {
			return err
		}
		defer st.Close()

		sp, err := st.BeginOuter()
		if err != nil {
			return err
		}
		if _, err := sp.MineBlock(int64(blockTime)); err != nil {
			sp.Rollback()
			return err
		}
		return sp.Commit()
	},
}

func init() {
	rootCmd.AddCommand(mineBlockCmd)
}
