package interp

import (
	"fmt"

	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/ledgervm/ledgervm/internal/value"
)

// earlyReturn unwinds an in-progress call when `try` or `asserts!` short
// circuits (spec §4.3: "short-circuit evaluation applies to... unwrap,
// asserts!"). It is caught at the nearest function-call boundary, or at
// the host entry point for top-level expressions.
type earlyReturn struct{ V value.Value }

func (e *earlyReturn) Error() string { return "early return: " + e.V.String() }

// Eval is one call's worth of evaluator state: the contract context it is
// bound to, the persistence savepoint it writes through, the sender
// principal, the call stack (for recursion detection), and the read-only
// flag (spec §3.4 "Environment (per call)").
type Eval struct {
	SP        *store.Savepoint
	Contract  *store.Contract
	Sender    value.Principal
	CallStack []string
	ReadOnly  bool
}

// NewEval constructs the root Environment for a single invocation.
func NewEval(sp *store.Savepoint, contract *store.Contract, sender value.Principal, readOnly bool) *Eval {
	return &Eval{SP: sp, Contract: contract, Sender: sender, ReadOnly: readOnly}
}

func (e *Eval) hasCall(name string) bool {
	for _, n := range e.CallStack {
		if n == name {
			return true
		}
	}
	return false
}

func (e *Eval) withCall(name string, readOnly bool) *Eval {
	cs := make([]string, len(e.CallStack)+1)
	copy(cs, e.CallStack)
	cs[len(e.CallStack)] = name
	return &Eval{SP: e.SP, Contract: e.Contract, Sender: e.Sender, CallStack: cs, ReadOnly: readOnly}
}

// EvalTop evaluates a top-level expression (used by eval/eval_raw/repl/
// execute), catching any earlyReturn that escapes a bare `try`/`asserts!`
// not nested inside a function call.
func (e *Eval) EvalTop(expr ast.Expr, local *Environment) (value.Value, error) {
	v, err := e.Eval(expr, local)
	if er, ok := err.(*earlyReturn); ok {
		return er.V, nil
	}
	return v, err
}

// Eval walks one symbolic expression (spec §4.3).
func (e *Eval) Eval(expr ast.Expr, local *Environment) (value.Value, error) {
	switch node := expr.(type) {
	case *ast.AtomValue:
		return node.Value, nil
	case *ast.Atom:
		v, ok := local.Get(node.Name)
		if !ok {
			return value.Value{}, &UndefinedVariableError{Name: node.Name}
		}
		return v, nil
	case *ast.List:
		return e.evalList(node, local)
	default:
		return value.Value{}, fmt.Errorf("interp: unknown expression node %T", expr)
	}
}

func (e *Eval) evalList(l *ast.List, local *Environment) (value.Value, error) {
	if len(l.Children) == 0 {
		return value.Value{}, fmt.Errorf("interp: cannot evaluate an empty form")
	}
	head, ok := l.Children[0].(*ast.Atom)
	if !ok {
		return value.Value{}, fmt.Errorf("interp: a call's head must be an identifier")
	}
	name := head.Name
	args := l.Children[1:]

	if sf, ok := specialForms[name]; ok {
		return sf(e, local, args)
	}
	if fn, ok := e.Contract.Functions[name]; ok {
		return e.applyFunction(fn, local, args)
	}
	if bf, ok := builtins[name]; ok {
		vals := make([]value.Value, len(args))
		for i, a := range args {
			v, err := e.Eval(a, local)
			if err != nil {
				return value.Value{}, err
			}
			vals[i] = v
		}
		return bf(e, vals)
	}
	return value.Value{}, &UndefinedFunctionError{Name: name}
}

// applyNamed resolves a bare function name (used by filter/fold/map, spec
// §4.3: "f must be an Atom naming a ... function").
func (e *Eval) applyNamed(name string, argVals []value.Value) (value.Value, error) {
	if fn, ok := e.Contract.Functions[name]; ok {
		return e.applyFunctionValues(fn, argVals)
	}
	if bf, ok := builtins[name]; ok {
		return bf(e, argVals)
	}
	return value.Value{}, &UndefinedFunctionError{Name: name}
}

func (e *Eval) applyFunction(fn *store.Function, local *Environment, argExprs []ast.Expr) (value.Value, error) {
	if len(argExprs) != len(fn.Params) {
		return value.Value{}, &ArgumentCountMismatchError{Name: fn.Name, Expected: len(fn.Params), Found: len(argExprs)}
	}
	argVals := make([]value.Value, len(argExprs))
	for i, a := range argExprs {
		v, err := e.Eval(a, local)
		if err != nil {
			return value.Value{}, err
		}
		argVals[i] = v
	}
	return e.applyFunctionValues(fn, argVals)
}

// applyFunctionValues pushes fn onto the call stack (failing on recursion,
// spec §4.3), binds parameters in a fresh frame, and evaluates the body.
func (e *Eval) applyFunctionValues(fn *store.Function, argVals []value.Value) (value.Value, error) {
	if len(argVals) != len(fn.Params) {
		return value.Value{}, &ArgumentCountMismatchError{Name: fn.Name, Expected: len(fn.Params), Found: len(argVals)}
	}
	if e.hasCall(fn.Name) {
		return value.Value{}, &RecursionDetectedError{Name: fn.Name}
	}
	callReadOnly := e.ReadOnly || fn.Kind == store.ReadOnly
	callee := e.withCall(fn.Name, callReadOnly)

	root := NewEnvironment()
	root.SeedGlobals(e.Contract.Constants)
	frame := NewEnclosedEnvironment(root)
	for i, p := range fn.Params {
		if err := frame.Define(p.Name, argVals[i]); err != nil {
			return value.Value{}, err
		}
	}
	result, err := callee.Eval(fn.Body, frame)
	if er, ok := err.(*earlyReturn); ok {
		return er.V, nil
	}
	return result, err
}
