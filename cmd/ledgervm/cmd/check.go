package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/ledgervm/ledgervm/internal/semantic"
	"github.com/spf13/cobra"
)

var (
	checkPath           string
	checkOutputAnalysis bool
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Parse and type-check a contract without persisting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		file := args[0]
		source, err := readSource(file)
		if err != nil {
			return err
		}
		exprs, err := parseProgram(source, file)
		if err != nil {
			color.Red("%s", err)
			return err
		}

		st, cleanup, err := openOrTempStore(checkPath)
		if err != nil {
			return err
		}
		defer cleanup()

		outer, err := st.BeginOuter()
		if err != nil {
			return err
		}
		sp, err := outer.ReadOnlyChild()
		if err != nil {
			outer.Rollback()
			return err
		}

		name := contractNameFromPath(file)
		analysis, err := semantic.Analyze(sp, name, exprs)
		sp.Rollback()
		outer.Rollback()
		if err != nil {
			color.Red("%s", err)
			return err
		}

		if checkOutputAnalysis {
			j, err := analysis.ToJSON()
			if err != nil {
				return err
			}
			fmt.Println(j)
		} else {
			color.Green("%s: ok", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkPath, "path", "", "store file used to resolve contract-call? targets")
	checkCmd.Flags().BoolVar(&checkOutputAnalysis, "output_analysis", false, "print the structured analysis record instead of a diagnostic")
}
