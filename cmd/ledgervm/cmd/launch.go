package cmd

import (
	"github.com/fatih/color"
	"github.com/ledgervm/ledgervm/internal/semantic"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/spf13/cobra"
)

var launchCmd = &cobra.Command{
	Use:   "launch <name> <file> <path>",
	Short: "Type-check a contract and persist it atomically",
	Args:  cobra.ExactArgs(3),
	RunE: func(_ *cobra.Command, args []string) error {
		name, file, path := args[0], args[1], args[2]

		source, err := readSource(file)
		if err != nil {
			return err
		}
		exprs, err := parseProgram(source, file)
		if err != nil {
			color.Red("%s", err)
			return err
		}

		st, err := store.Open(path)
		if err != nil {
			return err
		}
		defer st.Close()

		outer, err := st.BeginOuter()
		if err != nil {
			return err
		}
		sp, err := outer.Nest()
		if err != nil {
			outer.Rollback()
			return err
		}

		analysis, err := semantic.Analyze(sp, name, exprs)
		if err != nil {
			sp.Rollback()
			outer.Rollback()
			color.Red("%s", err)
			return err
		}

		contract := buildContract(source, analysis)
		if err := sp.PutContract(contract, analysis.InitialVarValues); err != nil {
			sp.Rollback()
			outer.Rollback()
			color.Red("%s", err)
			return err
		}

		j, err := analysis.ToJSON()
		if err != nil {
			sp.Rollback()
			outer.Rollback()
			return err
		}
		if err := sp.PutAnalysis(name, j); err != nil {
			sp.Rollback()
			outer.Rollback()
			return err
		}

		if err := sp.Commit(); err != nil {
			outer.Rollback()
			return err
		}
		if err := outer.Commit(); err != nil {
			return err
		}

		color.Green("launched %s", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(launchCmd)
}
