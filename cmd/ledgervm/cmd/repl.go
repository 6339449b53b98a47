package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/interp"
	"github.com/ledgervm/ledgervm/internal/parser"
	"github.com/ledgervm/ledgervm/internal/semantic"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/ledgervm/ledgervm/internal/value"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Read a program expression at a time from stdin, type-check, and evaluate it",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		st, cleanup, err := openOrTempStore("")
		if err != nil {
			return err
		}
		defer cleanup()

		contract := &store.Contract{
			Name:      "repl",
			Functions: map[string]*store.Function{},
			Maps:      map[string]store.MapSchema{},
			Vars:      map[string]*value.Type{},
			Constants: map[string]value.Value{},
		}
		ca := &semantic.ContractAnalysis{
			ContractName: contract.Name,
			Functions:    map[string]*semantic.FunctionSig{},
			Maps:         contract.Maps,
			Vars:         contract.Vars,
			Constants:    map[string]*value.Type{},
		}

		root := interp.NewEnvironment()
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			exprs, errs := parser.Parse(line, "<repl>")
			if len(errs) > 0 {
				color.Red("%s", errs[0])
				continue
			}
			if len(exprs) != 1 {
				color.Red("expected exactly one expression, got %d", len(exprs))
				continue
			}

			if err := replEval(st, contract, ca, root, exprs[0]); err != nil {
				color.Red("%s", err)
			}
		}
		return scanner.Err()
	},
}

// replEval runs one expression in its own read-only savepoint, so a failed
// evaluation never poisons the REPL's persistent Environment bindings.
func replEval(st *store.Store, contract *store.Contract, ca *semantic.ContractAnalysis, root *interp.Environment, expr ast.Expr) error {
	outer, err := st.BeginOuter()
	if err != nil {
		return err
	}
	defer outer.Rollback()
	sp, err := outer.ReadOnlyChild()
	if err != nil {
		return err
	}
	defer sp.Rollback()

	if _, err := semantic.CheckExpr(sp, ca, expr); err != nil {
		return err
	}

	ev := interp.NewEval(sp, contract, zeroPrincipal(), true)
	result, err := ev.EvalTop(expr, root)
	if err != nil {
		return err
	}
	fmt.Println(result.String())
	return nil
}

func init() {
	rootCmd.AddCommand(replCmd)
}
