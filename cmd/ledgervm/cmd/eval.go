package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/ledgervm/ledgervm/internal/interp"
	"github.com/ledgervm/ledgervm/internal/semantic"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/ledgervm/ledgervm/internal/value"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <contract> <program> <path>",
	Short: "Read-only evaluation of a program against a launched contract",
	Args:  cobra.ExactArgs(3),
	RunE: func(_ *cobra.Command, args []string) error {
		contractName, program, path := args[0], args[1], args[2]

		exprs, err := parseProgram(program, "<eval>")
		if err != nil {
			color.Red("%s", err)
			return err
		}
		if len(exprs) != 1 {
			err := fmt.Errorf("eval expects exactly one expression, got %d", len(exprs))
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
		sp, err := outer.ReadOnlyChild()
		if err != nil {
			outer.Rollback()
			return err
		}
		defer func() { sp.Rollback(); outer.Rollback() }()

		contract, found, err := sp.GetContract(contractName)
		if err != nil {
			return err
		}
		if !found {
			err := fmt.Errorf("no such contract: %s", contractName)
			color.Red("%s", err)
			return err
		}

		if _, err := semantic.CheckExpr(sp, analysisViewFromContract(contract), exprs[0]); err != nil {
			color.Red("%s", err)
			return err
		}

		root := interp.NewEnvironment()
		root.SeedGlobals(contract.Constants)
		e := interp.NewEval(sp, contract, zeroPrincipal(), true)
		result, err := e.EvalTop(exprs[0], root)
		if err != nil {
			color.Red("%s", err)
			return err
		}
		fmt.Println(result.String())
		return nil
	},
}

var evalRawCmd = &cobra.Command{
	Use:   "eval_raw <program>",
	Short: "Type-check and evaluate a program with no contract and no store",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		exprs, err := parseProgram(args[0], "<eval_raw>")
		if err != nil {
			color.Red("%s", err)
			return err
		}
		if len(exprs) != 1 {
			err := fmt.Errorf("eval_raw expects exactly one expression, got %d", len(exprs))
			color.Red("%s", err)
			return err
		}

		st, cleanup, err := openOrTempStore("")
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
		defer func() { sp.Rollback(); outer.Rollback() }()

		empty := &store.Contract{
			Name:      "eval_raw",
			Functions: map[string]*store.Function{},
			Maps:      map[string]store.MapSchema{},
			Vars:      map[string]*value.Type{},
			Constants: map[string]value.Value{},
		}
		emptyAnalysis := &semantic.ContractAnalysis{
			ContractName: empty.Name,
			Functions:    map[string]*semantic.FunctionSig{},
			Maps:         empty.Maps,
			Vars:         empty.Vars,
			Constants:    map[string]*value.Type{},
		}

		if _, err := semantic.CheckExpr(sp, emptyAnalysis, exprs[0]); err != nil {
			color.Red("%s", err)
			return err
		}

		root := interp.NewEnvironment()
		e := interp.NewEval(sp, empty, zeroPrincipal(), true)
		result, err := e.EvalTop(exprs[0], root)
		if err != nil {
			color.Red("%s", err)
			return err
		}
		fmt.Println(result.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(evalRawCmd)
}
