package semantic

import (
	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/ledgervm/ledgervm/internal/value"
)

// exprCtx threads the read-only flag and a shared "did this body perform a
// mutation" flag through a single function body's type check, the same way
// interp.Eval threads ReadOnly through a call (spec §4.2/§4.3 symmetry).
type exprCtx struct {
	readOnly bool
	mutated  *bool
}

// mutatingForms names every special form that writes through the
// persistence layer (spec §4.3 "Mutating builtins"). contract-call? is
// treated conservatively: calling anything but an explicitly read-only
// target counts as mutating, since the analyzer cannot see into another
// contract's own body to prove otherwise.
var mutatingForms = map[string]bool{
	"var-set":       true,
	"map-set!":      true,
	"map-insert!":   true,
	"map-delete!":   true,
	"ft-mint?":      true,
	"ft-transfer?":  true,
	"nft-mint?":     true,
	"nft-transfer?": true,
}

func (az *analyzer) markMutating(ctx exprCtx, form string) error {
	if ctx.mutated != nil {
		*ctx.mutated = true
	}
	if ctx.readOnly {
		return &ReadOnlyViolationError{Function: az.currentFn, Builtin: form}
	}
	return nil
}

func (az *analyzer) infer(env *typeEnv, ctx exprCtx, e ast.Expr) (*value.Type, error) {
	switch node := e.(type) {
	case *ast.AtomValue:
		return value.TypeOf(node.Value), nil
	case *ast.Atom:
		if t, ok := env.get(node.Name); ok {
			return t, nil
		}
		return nil, &UndefinedVariableError{Name: node.Name}
	case *ast.List:
		return az.inferList(env, ctx, node)
	default:
		return nil, &TypeError{Expected: "expression", Found: "unknown node"}
	}
}

func (az *analyzer) inferAll(env *typeEnv, ctx exprCtx, exprs []ast.Expr) ([]*value.Type, error) {
	out := make([]*value.Type, len(exprs))
	for i, e := range exprs {
		t, err := az.infer(env, ctx, e)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func wantTypeAtom(e ast.Expr) (*ast.Atom, error) {
	a, ok := e.(*ast.Atom)
	if !ok {
		return nil, &TypeError{Expected: "identifier", Found: e.String()}
	}
	return a, nil
}

func (az *analyzer) inferList(env *typeEnv, ctx exprCtx, l *ast.List) (*value.Type, error) {
	if len(l.Children) == 0 {
		return nil, &TypeError{Expected: "a non-empty form", Found: "()"}
	}
	head, ok := l.Children[0].(*ast.Atom)
	if !ok {
		return nil, &TypeError{Expected: "identifier", Found: l.Children[0].String()}
	}
	name := head.Name
	args := l.Children[1:]

	if mutatingForms[name] {
		if err := az.markMutating(ctx, name); err != nil {
			return nil, err
		}
	}

	switch name {
	case "if":
		if len(args) != 3 {
			return nil, &ArgumentCountMismatchError{Name: "if", Expected: 3, Found: len(args)}
		}
		condT, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if condT.Kind != value.KindBool {
			return nil, &TypeError{Expected: "bool", Found: condT.String()}
		}
		thenT, err := az.infer(env, ctx, args[1])
		if err != nil {
			return nil, err
		}
		elseT, err := az.infer(env, ctx, args[2])
		if err != nil {
			return nil, err
		}
		u, ok := value.Unify(thenT, elseT)
		if !ok {
			return nil, &TypeError{Expected: thenT.String(), Found: elseT.String()}
		}
		return u, nil

	case "let":
		if len(args) < 2 {
			return nil, &ArgumentCountMismatchError{Name: "let", Expected: 2, Found: len(args)}
		}
		bindings, ok := args[0].(*ast.List)
		if !ok {
			return nil, &TypeError{Expected: "binding list", Found: args[0].String()}
		}
		frame := enclosedTypeEnv(env)
		for _, b := range bindings.Children {
			pair, ok := b.(*ast.List)
			if !ok || len(pair.Children) != 2 {
				return nil, &TypeError{Expected: "(name expr) binding", Found: b.String()}
			}
			nameAtom, err := wantTypeAtom(pair.Children[0])
			if err != nil {
				return nil, err
			}
			t, err := az.infer(env, ctx, pair.Children[1])
			if err != nil {
				return nil, err
			}
			if err := frame.define(nameAtom.Name, t); err != nil {
				return nil, err
			}
		}
		var result *value.Type
		for _, body := range args[1:] {
			t, err := az.infer(frame, ctx, body)
			if err != nil {
				return nil, err
			}
			result = t
		}
		return result, nil

	case "begin":
		if len(args) == 0 {
			return nil, &ArgumentCountMismatchError{Name: "begin", Expected: 1, Found: 0}
		}
		ts, err := az.inferAll(env, ctx, args)
		if err != nil {
			return nil, err
		}
		return ts[len(ts)-1], nil

	case "ok":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: "ok", Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		return value.ResponseType(t, value.NoType()), nil

	case "err":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: "err", Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		return value.ResponseType(value.NoType(), t), nil

	case "some":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: "some", Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		return value.OptionalType(t), nil

	case "none":
		if len(args) != 0 {
			return nil, &ArgumentCountMismatchError{Name: "none", Expected: 0, Found: len(args)}
		}
		return value.OptionalType(value.AnyType()), nil

	case "unwrap", "unwrap-err":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: name, Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case value.KindOptional:
			if name == "unwrap-err" {
				return nil, &TypeError{Expected: "response", Found: "optional"}
			}
			return t.Inner, nil
		case value.KindResponse:
			if name == "unwrap" {
				return t.Ok, nil
			}
			return t.Err, nil
		default:
			return nil, &TypeError{Expected: "optional or response", Found: t.String()}
		}

	case "try":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: "try", Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case value.KindOptional:
			return t.Inner, nil
		case value.KindResponse:
			return t.Ok, nil
		default:
			return nil, &TypeError{Expected: "optional or response", Found: t.String()}
		}

	case "asserts!":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "asserts!", Expected: 2, Found: len(args)}
		}
		condT, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if condT.Kind != value.KindBool {
			return nil, &TypeError{Expected: "bool", Found: condT.String()}
		}
		if _, err := az.infer(env, ctx, args[1]); err != nil {
			return nil, err
		}
		return value.BoolType(), nil

	case "match":
		if len(args) == 0 {
			return nil, &ArgumentCountMismatchError{Name: "match", Expected: 4, Found: 0}
		}
		subT, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		switch subT.Kind {
		case value.KindOptional:
			if len(args) != 4 {
				return nil, &ArgumentCountMismatchError{Name: "match (optional)", Expected: 4, Found: len(args)}
			}
			someName, err := wantTypeAtom(args[1])
			if err != nil {
				return nil, err
			}
			frame := enclosedTypeEnv(env)
			if err := frame.define(someName.Name, subT.Inner); err != nil {
				return nil, err
			}
			someT, err := az.infer(frame, ctx, args[2])
			if err != nil {
				return nil, err
			}
			noneT, err := az.infer(env, ctx, args[3])
			if err != nil {
				return nil, err
			}
			u, ok := value.Unify(someT, noneT)
			if !ok {
				return nil, &TypeError{Expected: someT.String(), Found: noneT.String()}
			}
			return u, nil
		case value.KindResponse:
			if len(args) != 5 {
				return nil, &ArgumentCountMismatchError{Name: "match (response)", Expected: 5, Found: len(args)}
			}
			okName, err := wantTypeAtom(args[1])
			if err != nil {
				return nil, err
			}
			okFrame := enclosedTypeEnv(env)
			if err := okFrame.define(okName.Name, subT.Ok); err != nil {
				return nil, err
			}
			okT, err := az.infer(okFrame, ctx, args[2])
			if err != nil {
				return nil, err
			}
			errName, err := wantTypeAtom(args[3])
			if err != nil {
				return nil, err
			}
			errFrame := enclosedTypeEnv(env)
			if err := errFrame.define(errName.Name, subT.Err); err != nil {
				return nil, err
			}
			errT, err := az.infer(errFrame, ctx, args[4])
			if err != nil {
				return nil, err
			}
			u, ok := value.Unify(okT, errT)
			if !ok {
				return nil, &TypeError{Expected: okT.String(), Found: errT.String()}
			}
			return u, nil
		default:
			return nil, &TypeError{Expected: "optional or response", Found: subT.String()}
		}

	case "and", "or":
		for _, a := range args {
			t, err := az.infer(env, ctx, a)
			if err != nil {
				return nil, err
			}
			if t.Kind != value.KindBool {
				return nil, &TypeError{Expected: "bool", Found: t.String()}
			}
		}
		return value.BoolType(), nil

	case "not":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: "not", Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if t.Kind != value.KindBool {
			return nil, &TypeError{Expected: "bool", Found: t.String()}
		}
		return value.BoolType(), nil

	case "get":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "get", Expected: 2, Found: len(args)}
		}
		field, err := wantTypeAtom(args[0])
		if err != nil {
			return nil, err
		}
		t, err := az.infer(env, ctx, args[1])
		if err != nil {
			return nil, err
		}
		if t.Kind != value.KindTuple {
			return nil, &TypeError{Expected: "tuple", Found: t.String()}
		}
		ft, ok := t.Fields[field.Name]
		if !ok {
			return nil, &UndefinedVariableError{Name: field.Name}
		}
		return ft, nil

	case "tuple":
		order := make([]string, 0, len(args))
		fields := make(map[string]*value.Type, len(args))
		for _, a := range args {
			pair, ok := a.(*ast.List)
			if !ok || len(pair.Children) != 2 {
				return nil, &TypeError{Expected: "(name expr) field", Found: a.String()}
			}
			nameAtom, err := wantTypeAtom(pair.Children[0])
			if err != nil {
				return nil, err
			}
			t, err := az.infer(env, ctx, pair.Children[1])
			if err != nil {
				return nil, err
			}
			order = append(order, nameAtom.Name)
			fields[nameAtom.Name] = t
		}
		return value.TupleType(order, fields), nil

	case "print":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: "print", Expected: 1, Found: len(args)}
		}
		return az.infer(env, ctx, args[0])

	case "as-contract":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: "as-contract", Expected: 1, Found: len(args)}
		}
		return az.infer(env, ctx, args[0])

	case "at-block":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "at-block", Expected: 2, Found: len(args)}
		}
		heightT, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if heightT.Kind != value.KindInt {
			return nil, &TypeError{Expected: "int", Found: heightT.String()}
		}
		// at-block forces the read-only flag on for its sub-expression
		// (spec §4.3); any mutating form underneath raises
		// ReadOnlyViolation here rather than escaping as a runtime-only
		// failure.
		return az.infer(env, exprCtx{readOnly: true, mutated: ctx.mutated}, args[1])

	case "list":
		ts, err := az.inferAll(env, ctx, args)
		if err != nil {
			return nil, err
		}
		if len(ts) == 0 {
			return value.ListType(value.NoType(), 0), nil
		}
		entry := ts[0]
		for _, t := range ts[1:] {
			u, ok := value.Unify(entry, t)
			if !ok {
				return nil, &ListConstructionError{Detail: "elements do not unify to a common type"}
			}
			entry = u
		}
		return value.ListType(entry, uint32(len(ts))), nil

	case "filter":
		return az.inferFilterFoldMap(env, ctx, args, "filter")
	case "fold":
		return az.inferFilterFoldMap(env, ctx, args, "fold")
	case "map":
		return az.inferFilterFoldMap(env, ctx, args, "map")

	case "map-get?":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "map-get?", Expected: 2, Found: len(args)}
		}
		mapName, err := wantTypeAtom(args[0])
		if err != nil {
			return nil, err
		}
		schema, ok := az.ca.Maps[mapName.Name]
		if !ok {
			return nil, &UndefinedVariableError{Name: mapName.Name}
		}
		keyT, err := az.infer(env, ctx, args[1])
		if err != nil {
			return nil, err
		}
		if _, ok := value.Unify(keyT, schema.Key); !ok {
			return nil, &TypeError{Expected: schema.Key.String(), Found: keyT.String()}
		}
		return value.OptionalType(schema.Value), nil

	case "map-set!", "map-insert!":
		if len(args) != 3 {
			return nil, &ArgumentCountMismatchError{Name: name, Expected: 3, Found: len(args)}
		}
		mapName, err := wantTypeAtom(args[0])
		if err != nil {
			return nil, err
		}
		schema, ok := az.ca.Maps[mapName.Name]
		if !ok {
			return nil, &UndefinedVariableError{Name: mapName.Name}
		}
		keyT, err := az.infer(env, ctx, args[1])
		if err != nil {
			return nil, err
		}
		if _, ok := value.Unify(keyT, schema.Key); !ok {
			return nil, &TypeError{Expected: schema.Key.String(), Found: keyT.String()}
		}
		valT, err := az.infer(env, ctx, args[2])
		if err != nil {
			return nil, err
		}
		if _, ok := value.Unify(valT, schema.Value); !ok {
			return nil, &TypeError{Expected: schema.Value.String(), Found: valT.String()}
		}
		return value.BoolType(), nil

	case "map-delete!":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "map-delete!", Expected: 2, Found: len(args)}
		}
		mapName, err := wantTypeAtom(args[0])
		if err != nil {
			return nil, err
		}
		schema, ok := az.ca.Maps[mapName.Name]
		if !ok {
			return nil, &UndefinedVariableError{Name: mapName.Name}
		}
		keyT, err := az.infer(env, ctx, args[1])
		if err != nil {
			return nil, err
		}
		if _, ok := value.Unify(keyT, schema.Key); !ok {
			return nil, &TypeError{Expected: schema.Key.String(), Found: keyT.String()}
		}
		return value.BoolType(), nil

	case "var-get":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: "var-get", Expected: 1, Found: len(args)}
		}
		varName, err := wantTypeAtom(args[0])
		if err != nil {
			return nil, err
		}
		t, ok := az.ca.Vars[varName.Name]
		if !ok {
			return nil, &UndefinedVariableError{Name: varName.Name}
		}
		return t, nil

	case "var-set":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "var-set", Expected: 2, Found: len(args)}
		}
		varName, err := wantTypeAtom(args[0])
		if err != nil {
			return nil, err
		}
		declared, ok := az.ca.Vars[varName.Name]
		if !ok {
			return nil, &UndefinedVariableError{Name: varName.Name}
		}
		valT, err := az.infer(env, ctx, args[1])
		if err != nil {
			return nil, err
		}
		if _, ok := value.Unify(valT, declared); !ok {
			return nil, &TypeError{Expected: declared.String(), Found: valT.String()}
		}
		return value.BoolType(), nil

	case "contract-call?":
		return az.inferContractCall(env, ctx, args)

	case "ft-mint?":
		if len(args) != 3 {
			return nil, &ArgumentCountMismatchError{Name: "ft-mint?", Expected: 3, Found: len(args)}
		}
		if _, err := wantTypeAtom(args[0]); err != nil {
			return nil, err
		}
		if t, err := az.infer(env, ctx, args[1]); err != nil {
			return nil, err
		} else if t.Kind != value.KindInt {
			return nil, &TypeError{Expected: "int", Found: t.String()}
		}
		if t, err := az.infer(env, ctx, args[2]); err != nil {
			return nil, err
		} else if t.Kind != value.KindPrincipal {
			return nil, &TypeError{Expected: "principal", Found: t.String()}
		}
		return value.ResponseType(value.BoolType(), value.IntType()), nil

	case "ft-transfer?", "nft-transfer?":
		if len(args) != 4 {
			return nil, &ArgumentCountMismatchError{Name: name, Expected: 4, Found: len(args)}
		}
		if _, err := wantTypeAtom(args[0]); err != nil {
			return nil, err
		}
		if _, err := az.infer(env, ctx, args[1]); err != nil {
			return nil, err
		}
		if t, err := az.infer(env, ctx, args[2]); err != nil {
			return nil, err
		} else if t.Kind != value.KindPrincipal {
			return nil, &TypeError{Expected: "principal", Found: t.String()}
		}
		if t, err := az.infer(env, ctx, args[3]); err != nil {
			return nil, err
		} else if t.Kind != value.KindPrincipal {
			return nil, &TypeError{Expected: "principal", Found: t.String()}
		}
		return value.ResponseType(value.BoolType(), value.IntType()), nil

	case "ft-get-balance":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "ft-get-balance", Expected: 2, Found: len(args)}
		}
		if _, err := wantTypeAtom(args[0]); err != nil {
			return nil, err
		}
		if t, err := az.infer(env, ctx, args[1]); err != nil {
			return nil, err
		} else if t.Kind != value.KindPrincipal {
			return nil, &TypeError{Expected: "principal", Found: t.String()}
		}
		return value.IntType(), nil

	case "nft-mint?":
		if len(args) != 3 {
			return nil, &ArgumentCountMismatchError{Name: "nft-mint?", Expected: 3, Found: len(args)}
		}
		if _, err := wantTypeAtom(args[0]); err != nil {
			return nil, err
		}
		if _, err := az.infer(env, ctx, args[1]); err != nil {
			return nil, err
		}
		if t, err := az.infer(env, ctx, args[2]); err != nil {
			return nil, err
		} else if t.Kind != value.KindPrincipal {
			return nil, &TypeError{Expected: "principal", Found: t.String()}
		}
		return value.ResponseType(value.BoolType(), value.IntType()), nil

	case "nft-get-owner":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "nft-get-owner", Expected: 2, Found: len(args)}
		}
		if _, err := wantTypeAtom(args[0]); err != nil {
			return nil, err
		}
		if _, err := az.infer(env, ctx, args[1]); err != nil {
			return nil, err
		}
		return value.OptionalType(value.PrincipalType()), nil

	default:
		return az.inferCall(env, ctx, name, args)
	}
}

// inferFilterFoldMap handles `filter`/`fold`/`map` (spec §4.3): f must be a
// bare name, never an expression that evaluates to a function.
func (az *analyzer) inferFilterFoldMap(env *typeEnv, ctx exprCtx, args []ast.Expr, form string) (*value.Type, error) {
	switch form {
	case "filter":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "filter", Expected: 2, Found: len(args)}
		}
	case "map":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "map", Expected: 2, Found: len(args)}
		}
	case "fold":
		if len(args) != 3 {
			return nil, &ArgumentCountMismatchError{Name: "fold", Expected: 3, Found: len(args)}
		}
	}
	fnName, err := wantTypeAtom(args[0])
	if err != nil {
		return nil, err
	}
	listT, err := az.infer(env, ctx, args[1])
	if err != nil {
		return nil, err
	}
	if listT.Kind != value.KindList {
		return nil, &TypeError{Expected: "list", Found: listT.String()}
	}

	switch form {
	case "filter":
		_, retT, err := az.resolveNamedFunction(fnName.Name, []*value.Type{listT.Entry})
		if err != nil {
			return nil, err
		}
		if retT.Kind != value.KindBool {
			return nil, &TypeError{Expected: "bool", Found: retT.String()}
		}
		return listT, nil
	case "map":
		_, retT, err := az.resolveNamedFunction(fnName.Name, []*value.Type{listT.Entry})
		if err != nil {
			return nil, err
		}
		return value.ListType(retT, listT.MaxLen), nil
	default: // fold
		initT, err := az.infer(env, ctx, args[2])
		if err != nil {
			return nil, err
		}
		_, retT, err := az.resolveNamedFunction(fnName.Name, []*value.Type{listT.Entry, initT})
		if err != nil {
			return nil, err
		}
		return retT, nil
	}
}

// resolveNamedFunction resolves f in `filter`/`fold`/`map` against either a
// contract function or a small fixed table of unary/binary builtins that
// make sense as combinator targets (spec §4.3 "f must be an Atom naming a
// ... function"). It returns the resolved parameter types and return type.
func (az *analyzer) resolveNamedFunction(name string, argTypes []*value.Type) ([]*value.Type, *value.Type, error) {
	if fn, err := az.resolveFunction(name); err == nil {
		if len(fn.ParamTypes) != len(argTypes) {
			return nil, nil, &ArgumentCountMismatchError{Name: name, Expected: len(fn.ParamTypes), Found: len(argTypes)}
		}
		for i, pt := range fn.ParamTypes {
			if _, ok := value.Unify(pt, argTypes[i]); !ok {
				return nil, nil, &TypeError{Expected: pt.String(), Found: argTypes[i].String()}
			}
		}
		return fn.ParamTypes, fn.ReturnType, nil
	}
	if sig, ok := combinatorBuiltins[name]; ok && len(sig.params) == len(argTypes) {
		for i, pt := range sig.params {
			if pt == nil {
				continue
			}
			if _, ok := value.Unify(pt, argTypes[i]); !ok {
				return nil, nil, &TypeError{Expected: pt.String(), Found: argTypes[i].String()}
			}
		}
		ret := sig.ret
		if sig.retFromArg >= 0 {
			ret = argTypes[sig.retFromArg]
		}
		return sig.params, ret, nil
	}
	return nil, nil, &UndefinedFunctionError{Name: name}
}

type builtinSig struct {
	params     []*value.Type
	ret        *value.Type
	retFromArg int // index into argTypes to use as ret, or -1
}

// combinatorBuiltins are the few stdlib-ish unary/binary builtins that make
// sense as the `f` argument to filter/fold/map (a user contract rarely
// defines its own `not` or `+`).
var combinatorBuiltins = map[string]builtinSig{
	"not":     {params: []*value.Type{value.BoolType()}, ret: value.BoolType(), retFromArg: -1},
	"is-none": {params: []*value.Type{nil}, ret: value.BoolType(), retFromArg: -1},
	"is-some": {params: []*value.Type{nil}, ret: value.BoolType(), retFromArg: -1},
	"is-ok":   {params: []*value.Type{nil}, ret: value.BoolType(), retFromArg: -1},
	"is-err":  {params: []*value.Type{nil}, ret: value.BoolType(), retFromArg: -1},
	"to-int":  {params: []*value.Type{value.IntType()}, retFromArg: 0},
	"to-uint": {params: []*value.Type{value.IntType()}, retFromArg: 0},
	"+":       {params: []*value.Type{value.IntType(), value.IntType()}, ret: value.IntType(), retFromArg: -1},
	"-":       {params: []*value.Type{value.IntType(), value.IntType()}, ret: value.IntType(), retFromArg: -1},
	"*":       {params: []*value.Type{value.IntType(), value.IntType()}, ret: value.IntType(), retFromArg: -1},
}

func (az *analyzer) inferContractCall(env *typeEnv, ctx exprCtx, args []ast.Expr) (*value.Type, error) {
	if len(args) < 2 {
		return nil, &ArgumentCountMismatchError{Name: "contract-call?", Expected: 2, Found: len(args)}
	}
	targetName, err := wantTypeAtom(args[0])
	if err != nil {
		return nil, err
	}
	fnName, err := wantTypeAtom(args[1])
	if err != nil {
		return nil, err
	}
	target, found, err := az.sp.GetContract(targetName.Name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &UndefinedFunctionError{Name: targetName.Name}
	}
	fn, ok := target.Functions[fnName.Name]
	if !ok || fn.Kind == store.Private {
		return nil, &UndefinedFunctionError{Name: fnName.Name}
	}
	callArgs := args[2:]
	if len(callArgs) != len(fn.Params) {
		return nil, &ArgumentCountMismatchError{Name: fnName.Name, Expected: len(fn.Params), Found: len(callArgs)}
	}
	for i, a := range callArgs {
		t, err := az.infer(env, ctx, a)
		if err != nil {
			return nil, err
		}
		if _, ok := value.Unify(t, fn.Params[i].Type); !ok {
			return nil, &TypeError{Expected: fn.Params[i].Type.String(), Found: t.String()}
		}
	}
	// Conservative cross-contract read-only policy: calling anything but a
	// target explicitly declared read-only counts as a potential mutation,
	// since this contract's analysis cannot see the callee's own body.
	if fn.Kind != store.ReadOnly {
		if err := az.markMutating(ctx, "contract-call?:"+targetName.Name+"."+fnName.Name); err != nil {
			return nil, err
		}
	}
	return fn.ReturnType, nil
}

func (az *analyzer) inferCall(env *typeEnv, ctx exprCtx, name string, args []ast.Expr) (*value.Type, error) {
	if sig, ok := arithBuiltins[name]; ok {
		return az.inferVariadicInt(env, ctx, name, args, sig)
	}
	if fn, err := az.resolveFunction(name); err == nil {
		if len(args) != len(fn.ParamTypes) {
			return nil, &ArgumentCountMismatchError{Name: name, Expected: len(fn.ParamTypes), Found: len(args)}
		}
		for i, a := range args {
			t, err := az.infer(env, ctx, a)
			if err != nil {
				return nil, err
			}
			if _, ok := value.Unify(t, fn.ParamTypes[i]); !ok {
				return nil, &TypeError{Expected: fn.ParamTypes[i].String(), Found: t.String()}
			}
		}
		if fn.Mutating {
			if err := az.markMutating(ctx, name); err != nil {
				return nil, err
			}
		}
		return fn.ReturnType, nil
	}
	return az.inferScalarBuiltin(env, ctx, name, args)
}

// arithBuiltins are the variadic `int -> int -> ... -> int` operators.
var arithBuiltins = map[string]bool{"+": true, "-": true, "*": true, "/": true, "mod": true, "pow": true}

func (az *analyzer) inferVariadicInt(env *typeEnv, ctx exprCtx, name string, args []ast.Expr, _ bool) (*value.Type, error) {
	if len(args) < 2 {
		return nil, &ArgumentCountMismatchError{Name: name, Expected: 2, Found: len(args)}
	}
	for _, a := range args {
		t, err := az.infer(env, ctx, a)
		if err != nil {
			return nil, err
		}
		if t.Kind != value.KindInt {
			return nil, &TypeError{Expected: "int", Found: t.String()}
		}
	}
	return value.IntType(), nil
}

func (az *analyzer) inferScalarBuiltin(env *typeEnv, ctx exprCtx, name string, args []ast.Expr) (*value.Type, error) {
	switch name {
	case "is-eq":
		if len(args) < 2 {
			return nil, &ArgumentCountMismatchError{Name: "is-eq", Expected: 2, Found: len(args)}
		}
		first, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			t, err := az.infer(env, ctx, a)
			if err != nil {
				return nil, err
			}
			if _, ok := value.Unify(first, t); !ok {
				return nil, &TypeError{Expected: first.String(), Found: t.String()}
			}
		}
		return value.BoolType(), nil

	case ">", "<", ">=", "<=":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: name, Expected: 2, Found: len(args)}
		}
		for _, a := range args {
			t, err := az.infer(env, ctx, a)
			if err != nil {
				return nil, err
			}
			if t.Kind != value.KindInt {
				return nil, &TypeError{Expected: "int", Found: t.String()}
			}
		}
		return value.BoolType(), nil

	case "len":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: "len", Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if t.Kind != value.KindList && t.Kind != value.KindBuffer {
			return nil, &TypeError{Expected: "list or buffer", Found: t.String()}
		}
		return value.IntType(), nil

	case "concat":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "concat", Expected: 2, Found: len(args)}
		}
		a, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		b, err := az.infer(env, ctx, args[1])
		if err != nil {
			return nil, err
		}
		switch a.Kind {
		case value.KindBuffer:
			if b.Kind != value.KindBuffer {
				return nil, &TypeError{Expected: "buffer", Found: b.String()}
			}
			max := a.MaxLen
			if b.MaxLen > max {
				max = b.MaxLen
			}
			return value.BufferType(max), nil
		case value.KindList:
			if b.Kind != value.KindList {
				return nil, &TypeError{Expected: "list", Found: b.String()}
			}
			entry, ok := value.Unify(a.Entry, b.Entry)
			if !ok {
				return nil, &ListConstructionError{Detail: "concat operands do not unify"}
			}
			return value.ListType(entry, a.MaxLen+b.MaxLen), nil
		default:
			return nil, &TypeError{Expected: "buffer or list", Found: a.String()}
		}

	case "append":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "append", Expected: 2, Found: len(args)}
		}
		listT, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if listT.Kind != value.KindList {
			return nil, &TypeError{Expected: "list", Found: listT.String()}
		}
		elemT, err := az.infer(env, ctx, args[1])
		if err != nil {
			return nil, err
		}
		entry, ok := value.Unify(listT.Entry, elemT)
		if !ok {
			return nil, &ListConstructionError{Detail: "appended element does not unify"}
		}
		return value.ListType(entry, listT.MaxLen+1), nil

	case "to-int", "to-uint":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: name, Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if t.Kind != value.KindInt {
			return nil, &TypeError{Expected: "int", Found: t.String()}
		}
		return value.IntType(), nil

	case "is-none", "is-some":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: name, Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if t.Kind != value.KindOptional {
			return nil, &TypeError{Expected: "optional", Found: t.String()}
		}
		return value.BoolType(), nil

	case "is-ok", "is-err":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: name, Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if t.Kind != value.KindResponse {
			return nil, &TypeError{Expected: "response", Found: t.String()}
		}
		return value.BoolType(), nil

	case "default-to":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "default-to", Expected: 2, Found: len(args)}
		}
		defaultT, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		optT, err := az.infer(env, ctx, args[1])
		if err != nil {
			return nil, err
		}
		if optT.Kind != value.KindOptional {
			return nil, &TypeError{Expected: "optional", Found: optT.String()}
		}
		u, ok := value.Unify(defaultT, optT.Inner)
		if !ok {
			return nil, &TypeError{Expected: defaultT.String(), Found: optT.Inner.String()}
		}
		return u, nil

	case "sha256", "keccak256":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: name, Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if t.Kind != value.KindBuffer && t.Kind != value.KindInt {
			return nil, &TypeError{Expected: "buffer or int", Found: t.String()}
		}
		return value.BufferType(32), nil

	case "hash160":
		if len(args) != 1 {
			return nil, &ArgumentCountMismatchError{Name: "hash160", Expected: 1, Found: len(args)}
		}
		t, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if t.Kind != value.KindBuffer && t.Kind != value.KindInt {
			return nil, &TypeError{Expected: "buffer or int", Found: t.String()}
		}
		return value.BufferType(20), nil

	case "as-max-len?":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "as-max-len?", Expected: 2, Found: len(args)}
		}
		seqT, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if _, err := az.infer(env, ctx, args[1]); err != nil {
			return nil, err
		}
		if seqT.Kind != value.KindBuffer && seqT.Kind != value.KindList {
			return nil, &TypeError{Expected: "buffer or list", Found: seqT.String()}
		}
		return value.OptionalType(seqT), nil

	case "index-of?":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "index-of?", Expected: 2, Found: len(args)}
		}
		listT, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if listT.Kind != value.KindList {
			return nil, &TypeError{Expected: "list", Found: listT.String()}
		}
		if _, err := az.infer(env, ctx, args[1]); err != nil {
			return nil, err
		}
		return value.OptionalType(value.IntType()), nil

	case "element-at?":
		if len(args) != 2 {
			return nil, &ArgumentCountMismatchError{Name: "element-at?", Expected: 2, Found: len(args)}
		}
		listT, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if listT.Kind != value.KindList {
			return nil, &TypeError{Expected: "list", Found: listT.String()}
		}
		if t, err := az.infer(env, ctx, args[1]); err != nil {
			return nil, err
		} else if t.Kind != value.KindInt {
			return nil, &TypeError{Expected: "int", Found: t.String()}
		}
		return value.OptionalType(listT.Entry), nil

	case "replace-at?":
		if len(args) != 3 {
			return nil, &ArgumentCountMismatchError{Name: "replace-at?", Expected: 3, Found: len(args)}
		}
		listT, err := az.infer(env, ctx, args[0])
		if err != nil {
			return nil, err
		}
		if listT.Kind != value.KindList {
			return nil, &TypeError{Expected: "list", Found: listT.String()}
		}
		if t, err := az.infer(env, ctx, args[1]); err != nil {
			return nil, err
		} else if t.Kind != value.KindInt {
			return nil, &TypeError{Expected: "int", Found: t.String()}
		}
		elemT, err := az.infer(env, ctx, args[2])
		if err != nil {
			return nil, err
		}
		entry, ok := value.Unify(listT.Entry, elemT)
		if !ok {
			return nil, &ListConstructionError{Detail: "replacement element does not unify"}
		}
		return value.OptionalType(value.ListType(entry, listT.MaxLen)), nil

	default:
		return nil, &UndefinedFunctionError{Name: name}
	}
}
