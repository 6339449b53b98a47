package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/parser"
	"github.com/ledgervm/ledgervm/internal/semantic"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/ledgervm/ledgervm/internal/value"
)

// readSource loads a contract file's text.
func readSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}

// parseProgram parses source into its top-level expressions, collapsing the
// parser's accumulated errors into one.
func parseProgram(source, filename string) ([]ast.Expr, error) {
	exprs, errs := parser.Parse(source, filename)
	if len(errs) > 0 {
		var sb strings.Builder
		for _, e := range errs {
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
		return nil, fmt.Errorf("parse error(s) in %s:\n%s", filename, sb.String())
	}
	return exprs, nil
}

// parseSingleLiteral parses text as exactly one expression that is already
// an AtomValue — used for `sender` and each `execute` arg, which spec §9
// restricts to literal values rather than arbitrary expressions.
func parseSingleLiteral(text, label string) (value.Value, error) {
	exprs, errs := parser.Parse(text, label)
	if len(errs) > 0 {
		return value.Value{}, fmt.Errorf("%s: %s", label, errs[0].Error())
	}
	if len(exprs) != 1 {
		return value.Value{}, fmt.Errorf("%s must be exactly one expression, got %d", label, len(exprs))
	}
	av, ok := exprs[0].(*ast.AtomValue)
	if !ok {
		return value.Value{}, fmt.Errorf("%s must reduce to a literal value, not %q", label, exprs[0].String())
	}
	return av.Value, nil
}

func parsePrincipalArg(text string) (value.Principal, error) {
	v, err := parseSingleLiteral(text, "sender")
	if err != nil {
		return value.Principal{}, err
	}
	if v.Kind != value.KindPrincipal {
		return value.Principal{}, fmt.Errorf("sender must be a quoted principal literal, got %q", text)
	}
	return v.Principal, nil
}

// contractNameFromPath derives a default contract name from a file's base
// name, used by `check` when the façade table gives it no explicit name.
func contractNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// openOrTempStore opens path if non-empty, otherwise materializes a
// throwaway store so operations that don't name a persistent file (`check`
// without --path, `eval_raw`, `repl`) still have a savepoint tree to run
// against — contract-call? resolution and the block ledger need one even
// when no durable state is being built.
func openOrTempStore(path string) (st *store.Store, cleanup func(), err error) {
	if path != "" {
		st, err = store.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	}
	f, err := os.CreateTemp("", "ledgervm-*.db")
	if err != nil {
		return nil, nil, err
	}
	tmpPath := f.Name()
	f.Close()
	os.Remove(tmpPath)
	st, err = store.Initialize(tmpPath)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { st.Close(); os.Remove(tmpPath) }, nil
}

// buildContract turns a completed ContractAnalysis into the store.Contract
// shape PutContract expects (spec §3.3).
func buildContract(source string, ca *semantic.ContractAnalysis) *store.Contract {
	c := &store.Contract{
		Name:              ca.ContractName,
		Source:            source,
		Functions:         map[string]*store.Function{},
		Maps:              ca.Maps,
		Vars:              map[string]*value.Type{},
		Constants:         ca.ConstantValues,
		FungibleTokens:    ca.FungibleTokens,
		NonFungibleTokens: ca.NonFungibleTokens,
	}
	for name, sig := range ca.Functions {
		params := make([]store.Param, len(sig.ParamNames))
		for i, pn := range sig.ParamNames {
			params[i] = store.Param{Name: pn, Type: sig.ParamTypes[i]}
		}
		c.Functions[name] = &store.Function{
			Name:       sig.Name,
			Kind:       sig.Kind,
			Params:     params,
			ReturnType: sig.ReturnType,
			Body:       sig.Body,
		}
	}
	for name, t := range ca.Vars {
		c.Vars[name] = t
	}
	return c
}

// analysisViewFromContract rebuilds a minimal ContractAnalysis-shaped type
// environment from an already-persisted contract, so `eval` can typecheck
// an ad-hoc expression against a launched contract's maps/vars/functions
// without re-running the full analyzer over its source.
func analysisViewFromContract(c *store.Contract) *semantic.ContractAnalysis {
	ca := &semantic.ContractAnalysis{
		ContractName: c.Name,
		Functions:    map[string]*semantic.FunctionSig{},
		Maps:         c.Maps,
		Vars:         c.Vars,
		Constants:    map[string]*value.Type{},
	}
	for name, fn := range c.Functions {
		paramTypes := make([]*value.Type, len(fn.Params))
		paramNames := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			paramTypes[i] = p.Type
			paramNames[i] = p.Name
		}
		ca.Functions[name] = &semantic.FunctionSig{
			Name:       fn.Name,
			Kind:       fn.Kind,
			ParamNames: paramNames,
			ParamTypes: paramTypes,
			ReturnType: fn.ReturnType,
		}
	}
	for name, v := range c.Constants {
		ca.Constants[name] = value.TypeOf(v)
	}
	return ca
}

func parseUint64Arg(text, label string) (uint64, error) {
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a non-negative integer: %w", label, err)
	}
	return n, nil
}

func zeroPrincipal() value.Principal { return value.Principal{} }
