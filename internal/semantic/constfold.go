package semantic

import (
	"fmt"

	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/value"
)

// foldConst evaluates the pure, literal-foldable subset of the expression
// language against already-computed constants. define-constant and
// define-data-var initializers must be foldable this way: both are
// evaluated once, at analysis time, before any contract savepoint exists.
// This deliberately does not reuse interp.Eval, which assumes a live
// *store.Savepoint for state-accessing special forms (map-get?, var-get,
// contract-call?, ...) that have no meaning before a contract exists.
func foldConst(consts map[string]value.Value, e ast.Expr) (value.Value, error) {
	switch node := e.(type) {
	case *ast.AtomValue:
		return node.Value, nil
	case *ast.Atom:
		if v, ok := consts[node.Name]; ok {
			return v, nil
		}
		return value.Value{}, &UndefinedVariableError{Name: node.Name}
	case *ast.List:
		return foldConstList(consts, node)
	default:
		return value.Value{}, fmt.Errorf("semantic: unsupported expression node %T in a constant initializer", e)
	}
}

func foldConstList(consts map[string]value.Value, l *ast.List) (value.Value, error) {
	if len(l.Children) == 0 {
		return value.Value{}, fmt.Errorf("semantic: empty form in a constant initializer")
	}
	head, ok := l.Children[0].(*ast.Atom)
	if !ok {
		return value.Value{}, fmt.Errorf("semantic: a constant initializer's head must be an identifier")
	}
	args := l.Children[1:]

	foldAll := func() ([]value.Value, error) {
		out := make([]value.Value, len(args))
		for i, a := range args {
			v, err := foldConst(consts, a)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	switch head.Name {
	case "if":
		if len(args) != 3 {
			return value.Value{}, &ArgumentCountMismatchError{Name: "if", Expected: 3, Found: len(args)}
		}
		cond, err := foldConst(consts, args[0])
		if err != nil {
			return value.Value{}, err
		}
		if cond.Kind != value.KindBool {
			return value.Value{}, &TypeError{Expected: "bool", Found: cond.Kind.String()}
		}
		if cond.Bool {
			return foldConst(consts, args[1])
		}
		return foldConst(consts, args[2])
	case "not":
		vals, err := foldAll()
		if err != nil {
			return value.Value{}, err
		}
		if len(vals) != 1 || vals[0].Kind != value.KindBool {
			return value.Value{}, &TypeError{Expected: "bool", Found: "other"}
		}
		return value.Bool(!vals[0].Bool), nil
	case "and", "or":
		for _, a := range args {
			v, err := foldConst(consts, a)
			if err != nil {
				return value.Value{}, err
			}
			if v.Kind != value.KindBool {
				return value.Value{}, &TypeError{Expected: "bool", Found: v.Kind.String()}
			}
			if head.Name == "and" && !v.Bool {
				return value.Bool(false), nil
			}
			if head.Name == "or" && v.Bool {
				return value.Bool(true), nil
			}
		}
		return value.Bool(head.Name == "and"), nil
	case "is-eq":
		vals, err := foldAll()
		if err != nil {
			return value.Value{}, err
		}
		if len(vals) < 2 {
			return value.Value{}, &ArgumentCountMismatchError{Name: "is-eq", Expected: 2, Found: len(vals)}
		}
		for _, v := range vals[1:] {
			if !value.Equal(vals[0], v) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	case "+", "-", "*", "/", "mod", "pow":
		vals, err := foldAll()
		if err != nil {
			return value.Value{}, err
		}
		return foldArith(head.Name, vals)
	case ">", "<", ">=", "<=":
		vals, err := foldAll()
		if err != nil {
			return value.Value{}, err
		}
		if len(vals) != 2 || vals[0].Kind != value.KindInt || vals[1].Kind != value.KindInt {
			return value.Value{}, &TypeError{Expected: "int", Found: "other"}
		}
		c := vals[0].Int.Cmp(vals[1].Int)
		switch head.Name {
		case ">":
			return value.Bool(c > 0), nil
		case "<":
			return value.Bool(c < 0), nil
		case ">=":
			return value.Bool(c >= 0), nil
		default:
			return value.Bool(c <= 0), nil
		}
	case "ok":
		vals, err := foldAll()
		if err != nil {
			return value.Value{}, err
		}
		return value.ResponseOk(vals[0]), nil
	case "err":
		vals, err := foldAll()
		if err != nil {
			return value.Value{}, err
		}
		return value.ResponseErr(vals[0]), nil
	case "some":
		vals, err := foldAll()
		if err != nil {
			return value.Value{}, err
		}
		return value.OptionalSome(vals[0]), nil
	case "none":
		return value.OptionalNone(value.AnyType()), nil
	case "list":
		vals, err := foldAll()
		if err != nil {
			return value.Value{}, err
		}
		if len(vals) == 0 {
			return value.NewList(nil, value.NoType(), 0)
		}
		entry := value.TypeOf(vals[0])
		for _, v := range vals[1:] {
			u, ok := value.Unify(entry, value.TypeOf(v))
			if !ok {
				return value.Value{}, &ListConstructionError{Detail: "constant list elements do not unify"}
			}
			entry = u
		}
		return value.NewList(vals, entry, uint32(len(vals)))
	case "tuple":
		order := make([]string, 0, len(args))
		fields := make(map[string]value.Value, len(args))
		for _, a := range args {
			pair, ok := a.(*ast.List)
			if !ok || len(pair.Children) != 2 {
				return value.Value{}, &TypeError{Expected: "(name expr) field", Found: a.String()}
			}
			nameAtom, ok := pair.Children[0].(*ast.Atom)
			if !ok {
				return value.Value{}, &TypeError{Expected: "identifier", Found: pair.Children[0].String()}
			}
			v, err := foldConst(consts, pair.Children[1])
			if err != nil {
				return value.Value{}, err
			}
			order = append(order, nameAtom.Name)
			fields[nameAtom.Name] = v
		}
		return value.NewTuple(order, fields), nil
	case "get":
		if len(args) != 2 {
			return value.Value{}, &ArgumentCountMismatchError{Name: "get", Expected: 2, Found: len(args)}
		}
		field, ok := args[0].(*ast.Atom)
		if !ok {
			return value.Value{}, &TypeError{Expected: "identifier", Found: args[0].String()}
		}
		tv, err := foldConst(consts, args[1])
		if err != nil {
			return value.Value{}, err
		}
		if tv.Kind != value.KindTuple {
			return value.Value{}, &TypeError{Expected: "tuple", Found: tv.Kind.String()}
		}
		fv, ok := tv.Tuple[field.Name]
		if !ok {
			return value.Value{}, &UndefinedVariableError{Name: field.Name}
		}
		return fv, nil
	default:
		return value.Value{}, fmt.Errorf("semantic: %q is not a constant-foldable form", head.Name)
	}
}

func foldArith(op string, vals []value.Value) (value.Value, error) {
	if len(vals) < 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: op, Expected: 2, Found: len(vals)}
	}
	for _, v := range vals {
		if v.Kind != value.KindInt {
			return value.Value{}, &TypeError{Expected: "int", Found: v.Kind.String()}
		}
	}
	var step func(a, b value.Value) (value.Value, error)
	switch op {
	case "+":
		step = value.AddInt
	case "-":
		step = value.SubInt
	case "*":
		step = value.MulInt
	case "/":
		step = value.DivInt
	case "mod":
		step = value.ModInt
	case "pow":
		step = value.PowInt
	}
	acc := vals[0]
	var err error
	for _, v := range vals[1:] {
		acc, err = step(acc, v)
		if err != nil {
			return value.Value{}, err
		}
	}
	return acc, nil
}
