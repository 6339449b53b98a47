package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/interp"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/ledgervm/ledgervm/internal/value"
	"github.com/spf13/cobra"
)

var executeCmd = &cobra.Command{
	Use:   "execute <path> <contract> <fn> <sender> [args...]",
	Short: "Invoke a public function, committing its effects unless it returns (err ...)",
	Args:  cobra.MinimumNArgs(4),
	RunE: func(_ *cobra.Command, args []string) error {
		path, contractName, fnName, senderText := args[0], args[1], args[2], args[3]
		argTexts := args[4:]

		sender, err := parsePrincipalArg(senderText)
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

		result, runErr := runExecute(sp, contractName, fnName, argTexts, sender)
		if runErr != nil {
			sp.Rollback()
			outer.Rollback()
			color.Red("%s", runErr)
			return runErr
		}

		if result.Kind == value.KindResponse && !result.RespCommitted {
			sp.Rollback()
			outer.Rollback()
			fmt.Println(result.String())
			return nil
		}

		if err := sp.Commit(); err != nil {
			outer.Rollback()
			return err
		}
		if err := outer.Commit(); err != nil {
			return err
		}
		fmt.Println(result.String())
		return nil
	},
}

func runExecute(sp *store.Savepoint, contractName, fnName string, argTexts []string, sender value.Principal) (value.Value, error) {
	contract, found, err := sp.GetContract(contractName)
	if err != nil {
		return value.Value{}, err
	}
	if !found {
		return value.Value{}, fmt.Errorf("no such contract: %s", contractName)
	}

	fn, ok := contract.Functions[fnName]
	if !ok {
		return value.Value{}, fmt.Errorf("no such function: %s.%s", contractName, fnName)
	}
	if fn.Kind == store.Private {
		return value.Value{}, fmt.Errorf("%s.%s is private and cannot be invoked directly", contractName, fnName)
	}
	if len(argTexts) != len(fn.Params) {
		return value.Value{}, fmt.Errorf("%s.%s expects %d argument(s), got %d", contractName, fnName, len(fn.Params), len(argTexts))
	}

	args := make([]ast.Expr, len(argTexts))
	for i, text := range argTexts {
		argVal, err := parseSingleLiteral(text, fmt.Sprintf("argument %d", i+1))
		if err != nil {
			return value.Value{}, err
		}
		argType := value.TypeOf(argVal)
		if _, ok := value.Unify(argType, fn.Params[i].Type); !ok {
			return value.Value{}, fmt.Errorf("argument %d: cannot use %s where %s is expected", i+1, argType.String(), fn.Params[i].Type.String())
		}
		args[i] = &ast.AtomValue{Value: argVal}
	}

	call := &ast.List{Children: append([]ast.Expr{&ast.Atom{Name: fnName}}, args...)}

	e := interp.NewEval(sp, contract, sender, false)
	root := interp.NewEnvironment()
	root.SeedGlobals(contract.Constants)
	return e.EvalTop(call, root)
}

func init() {
	rootCmd.AddCommand(executeCmd)
}
