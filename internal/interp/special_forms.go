package interp

import (
	"crypto/sha256"

	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/ledgervm/ledgervm/internal/value"
)

type specialForm func(e *Eval, local *Environment, args []ast.Expr) (value.Value, error)

// specialForms is the complete dispatch table named in spec §4.3.
var specialForms = map[string]specialForm{
	"if":         sfIf,
	"let":        sfLet,
	"begin":      sfBegin,
	"ok":         sfOk,
	"err":        sfErr,
	"some":       sfSome,
	"none":       sfNone,
	"unwrap":     sfUnwrap,
	"unwrap-err": sfUnwrapErr,
	"match":      sfMatch,
	"try":        sfTry,
	"asserts!":   sfAsserts,
	"and":        sfAnd,
	"or":         sfOr,
	"not":        sfNot,
	"get":        sfGet,
	"tuple":      sfTuple,

	"map-get?":       sfMapGet,
	"map-set!":       sfMapSet,
	"map-insert!":    sfMapInsert,
	"map-delete!":    sfMapDelete,
	"var-get":        sfVarGet,
	"var-set":        sfVarSet,
	"contract-call?": sfContractCall,
	"as-contract":    sfAsContract,
	"at-block":       sfAtBlock,
	"print":          sfPrint,

	"filter": sfFilter,
	"fold":   sfFold,
	"map":    sfMap,
	"list":   sfList,

	"ft-mint?":       sfFTMint,
	"ft-transfer?":   sfFTTransfer,
	"ft-get-balance": sfFTGetBalance,
	"nft-mint?":      sfNFTMint,
	"nft-transfer?":  sfNFTTransfer,
	"nft-get-owner":  sfNFTGetOwner,
}

func wantAtom(e ast.Expr) (*ast.Atom, bool) {
	a, ok := e.(*ast.Atom)
	return a, ok
}

func sfIf(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 3 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "if", Expected: 3, Found: len(args)}
	}
	cond, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	if cond.Kind != value.KindBool {
		return value.Value{}, &TypeError{Expected: "bool", Found: cond.Kind.String()}
	}
	if cond.Bool {
		return e.Eval(args[1], local)
	}
	return e.Eval(args[2], local)
}

func sfLet(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) < 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "let", Expected: 2, Found: len(args)}
	}
	bindings, ok := args[0].(*ast.List)
	if !ok {
		return value.Value{}, &TypeError{Expected: "binding list", Found: args[0].String()}
	}
	frame := NewEnclosedEnvironment(local)
	for _, b := range bindings.Children {
		pair, ok := b.(*ast.List)
		if !ok || len(pair.Children) != 2 {
			return value.Value{}, &TypeError{Expected: "(name expr) binding", Found: b.String()}
		}
		nameAtom, ok := wantAtom(pair.Children[0])
		if !ok {
			return value.Value{}, &TypeError{Expected: "identifier", Found: pair.Children[0].String()}
		}
		v, err := e.Eval(pair.Children[1], local)
		if err != nil {
			return value.Value{}, err
		}
		if err := frame.Define(nameAtom.Name, v); err != nil {
			return value.Value{}, err
		}
	}
	var result value.Value
	var err error
	for _, body := range args[1:] {
		result, err = e.Eval(body, frame)
		if err != nil {
			return value.Value{}, err
		}
	}
	return result, nil
}

func sfBegin(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "begin", Expected: 1, Found: 0}
	}
	var result value.Value
	var err error
	for _, a := range args {
		result, err = e.Eval(a, local)
		if err != nil {
			return value.Value{}, err
		}
	}
	return result, nil
}

func sfOk(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "ok", Expected: 1, Found: len(args)}
	}
	v, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	return value.ResponseOk(v), nil
}

func sfErr(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "err", Expected: 1, Found: len(args)}
	}
	v, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	return value.ResponseErr(v), nil
}

func sfSome(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "some", Expected: 1, Found: len(args)}
	}
	v, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	return value.OptionalSome(v), nil
}

func sfNone(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 0 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "none", Expected: 0, Found: len(args)}
	}
	return value.OptionalNone(value.AnyType()), nil
}

func sfUnwrap(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "unwrap", Expected: 1, Found: len(args)}
	}
	v, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	switch v.Kind {
	case value.KindOptional:
		if v.OptSome == nil {
			return value.Value{}, &TypeError{Expected: "some", Found: "none"}
		}
		return *v.OptSome, nil
	case value.KindResponse:
		if !v.RespCommitted {
			return value.Value{}, &TypeError{Expected: "ok", Found: "err"}
		}
		return *v.RespData, nil
	default:
		return value.Value{}, &TypeError{Expected: "optional or response", Found: v.Kind.String()}
	}
}

func sfUnwrapErr(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "unwrap-err", Expected: 1, Found: len(args)}
	}
	v, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind != value.KindResponse {
		return value.Value{}, &TypeError{Expected: "response", Found: v.Kind.String()}
	}
	if v.RespCommitted {
		return value.Value{}, &TypeError{Expected: "err", Found: "ok"}
	}
	return *v.RespData, nil
}

func sfMatch(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "match", Expected: 4, Found: len(args)}
	}
	v, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	switch v.Kind {
	case value.KindOptional:
		if len(args) != 4 {
			return value.Value{}, &ArgumentCountMismatchError{Name: "match (optional)", Expected: 4, Found: len(args)}
		}
		someName, ok := wantAtom(args[1])
		if !ok {
			return value.Value{}, &TypeError{Expected: "identifier", Found: args[1].String()}
		}
		if v.OptSome != nil {
			frame := NewEnclosedEnvironment(local)
			if err := frame.Define(someName.Name, *v.OptSome); err != nil {
				return value.Value{}, err
			}
			return e.Eval(args[2], frame)
		}
		return e.Eval(args[3], local)
	case value.KindResponse:
		if len(args) != 5 {
			return value.Value{}, &ArgumentCountMismatchError{Name: "match (response)", Expected: 5, Found: len(args)}
		}
		okName, ok := wantAtom(args[1])
		if !ok {
			return value.Value{}, &TypeError{Expected: "identifier", Found: args[1].String()}
		}
		errName, ok := wantAtom(args[3])
		if !ok {
			return value.Value{}, &TypeError{Expected: "identifier", Found: args[3].String()}
		}
		if v.RespCommitted {
			frame := NewEnclosedEnvironment(local)
			if err := frame.Define(okName.Name, *v.RespData); err != nil {
				return value.Value{}, err
			}
			return e.Eval(args[2], frame)
		}
		frame := NewEnclosedEnvironment(local)
		if err := frame.Define(errName.Name, *v.RespData); err != nil {
			return value.Value{}, err
		}
		return e.Eval(args[4], frame)
	default:
		return value.Value{}, &TypeError{Expected: "optional or response", Found: v.Kind.String()}
	}
}

func sfTry(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "try", Expected: 1, Found: len(args)}
	}
	v, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	switch v.Kind {
	case value.KindResponse:
		if v.RespCommitted {
			return *v.RespData, nil
		}
		return value.Value{}, &earlyReturn{V: v}
	case value.KindOptional:
		if v.OptSome != nil {
			return *v.OptSome, nil
		}
		return value.Value{}, &earlyReturn{V: v}
	default:
		return value.Value{}, &TypeError{Expected: "optional or response", Found: v.Kind.String()}
	}
}

func sfAsserts(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "asserts!", Expected: 2, Found: len(args)}
	}
	cond, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	if cond.Kind != value.KindBool {
		return value.Value{}, &TypeError{Expected: "bool", Found: cond.Kind.String()}
	}
	if cond.Bool {
		return value.Bool(true), nil
	}
	thrown, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	return value.Value{}, &earlyReturn{V: thrown}
}

func sfAnd(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	for _, a := range args {
		v, err := e.Eval(a, local)
		if err != nil {
			return value.Value{}, err
		}
		if v.Kind != value.KindBool {
			return value.Value{}, &TypeError{Expected: "bool", Found: v.Kind.String()}
		}
		if !v.Bool {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func sfOr(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	for _, a := range args {
		v, err := e.Eval(a, local)
		if err != nil {
			return value.Value{}, err
		}
		if v.Kind != value.KindBool {
			return value.Value{}, &TypeError{Expected: "bool", Found: v.Kind.String()}
		}
		if v.Bool {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func sfNot(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "not", Expected: 1, Found: len(args)}
	}
	v, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind != value.KindBool {
		return value.Value{}, &TypeError{Expected: "bool", Found: v.Kind.String()}
	}
	return value.Bool(!v.Bool), nil
}

func sfGet(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "get", Expected: 2, Found: len(args)}
	}
	field, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "identifier", Found: args[0].String()}
	}
	v, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	if v.Kind != value.KindTuple {
		return value.Value{}, &TypeError{Expected: "tuple", Found: v.Kind.String()}
	}
	fv, ok := v.Tuple[field.Name]
	if !ok {
		return value.Value{}, &UndefinedVariableError{Name: field.Name}
	}
	return fv, nil
}

func sfTuple(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	order := make([]string, 0, len(args))
	fields := make(map[string]value.Value, len(args))
	for _, a := range args {
		pair, ok := a.(*ast.List)
		if !ok || len(pair.Children) != 2 {
			return value.Value{}, &TypeError{Expected: "(name expr) field", Found: a.String()}
		}
		nameAtom, ok := wantAtom(pair.Children[0])
		if !ok {
			return value.Value{}, &TypeError{Expected: "identifier", Found: pair.Children[0].String()}
		}
		if _, dup := fields[nameAtom.Name]; dup {
			return value.Value{}, &VariableDefinedMultipleTimesError{Name: nameAtom.Name}
		}
		v, err := e.Eval(pair.Children[1], local)
		if err != nil {
			return value.Value{}, err
		}
		order = append(order, nameAtom.Name)
		fields[nameAtom.Name] = v
	}
	return value.NewTuple(order, fields), nil
}

func sfMapGet(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "map-get?", Expected: 2, Found: len(args)}
	}
	mapName, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "identifier", Found: args[0].String()}
	}
	key, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	v, found, err := e.SP.MapGet(e.Contract.Name, mapName.Name, key)
	if err != nil {
		return value.Value{}, err
	}
	if !found {
		schema := e.Contract.Maps[mapName.Name]
		return value.OptionalNone(schema.Value), nil
	}
	return value.OptionalSome(v), nil
}

func sfMapSet(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if e.ReadOnly {
		return value.Value{}, &ReadOnlyViolationError{Name: "map-set!"}
	}
	if len(args) != 3 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "map-set!", Expected: 3, Found: len(args)}
	}
	mapName, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "identifier", Found: args[0].String()}
	}
	key, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	val, err := e.Eval(args[2], local)
	if err != nil {
		return value.Value{}, err
	}
	if err := e.SP.MapSet(e.Contract.Name, mapName.Name, key, val); err != nil {
		return value.Value{}, err
	}
	return value.Bool(true), nil
}

func sfMapInsert(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if e.ReadOnly {
		return value.Value{}, &ReadOnlyViolationError{Name: "map-insert!"}
	}
	if len(args) != 3 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "map-insert!", Expected: 3, Found: len(args)}
	}
	mapName, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "identifier", Found: args[0].String()}
	}
	key, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	val, err := e.Eval(args[2], local)
	if err != nil {
		return value.Value{}, err
	}
	inserted, err := e.SP.MapInsert(e.Contract.Name, mapName.Name, key, val)
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(inserted), nil
}

func sfMapDelete(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if e.ReadOnly {
		return value.Value{}, &ReadOnlyViolationError{Name: "map-delete!"}
	}
	if len(args) != 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "map-delete!", Expected: 2, Found: len(args)}
	}
	mapName, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "identifier", Found: args[0].String()}
	}
	key, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	removed, err := e.SP.MapDelete(e.Contract.Name, mapName.Name, key)
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(removed), nil
}

func sfVarGet(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "var-get", Expected: 1, Found: len(args)}
	}
	varName, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "identifier", Found: args[0].String()}
	}
	v, found, err := e.SP.GetVar(e.Contract.Name, varName.Name)
	if err != nil {
		return value.Value{}, err
	}
	if !found {
		return value.Value{}, &UndefinedVariableError{Name: varName.Name}
	}
	return v, nil
}

func sfVarSet(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if e.ReadOnly {
		return value.Value{}, &ReadOnlyViolationError{Name: "var-set"}
	}
	if len(args) != 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "var-set", Expected: 2, Found: len(args)}
	}
	varName, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "identifier", Found: args[0].String()}
	}
	v, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	if err := e.SP.SetVar(e.Contract.Name, varName.Name, v); err != nil {
		return value.Value{}, err
	}
	return value.Bool(true), nil
}

// contractPrincipal derives a deterministic proxy principal for a contract's
// own identity, used by `as-contract` (spec §4.3). The language's contract
// identities are not otherwise modelled as Principals in the persistence
// layer, so this hashes the contract name the way a deployed contract's
// address is derived from its name in the source system.
func contractPrincipal(name string) value.Principal {
	h := sha256.Sum256([]byte("contract:" + name))
	var hash160 [20]byte
	copy(hash160[:], h[:20])
	return value.Principal{Version: 26, Hash160: hash160}
}

func sfAsContract(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "as-contract", Expected: 1, Found: len(args)}
	}
	callee := &Eval{
		SP:        e.SP,
		Contract:  e.Contract,
		Sender:    contractPrincipal(e.Contract.Name),
		CallStack: e.CallStack,
		ReadOnly:  e.ReadOnly,
	}
	return callee.Eval(args[0], local)
}

func sfAtBlock(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "at-block", Expected: 2, Found: len(args)}
	}
	heightVal, err := e.Eval(args[0], local)
	if err != nil {
		return value.Value{}, err
	}
	if heightVal.Kind != value.KindInt {
		return value.Value{}, &TypeError{Expected: "int (block height)", Found: heightVal.Kind.String()}
	}
	height := heightVal.Int.Uint64()
	if _, found, err := e.SP.BlockTime(height); err != nil {
		return value.Value{}, err
	} else if !found {
		return value.Value{}, &TypeError{Expected: "known block height", Found: heightVal.Int.String()}
	}
	// The read-only view shares the live savepoint: the persistence layer
	// does not keep per-block historical snapshots, so at-block evaluates
	// against current state with mutation forced off (spec §4.3: "must be
	// pure (read-only flag forced on)").
	callee := &Eval{SP: e.SP, Contract: e.Contract, Sender: e.Sender, CallStack: e.CallStack, ReadOnly: true}
	return callee.Eval(args[1], local)
}

func sfPrint(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "print", Expected: 1, Found: len(args)}
	}
	return e.Eval(args[0], local)
}

func sfList(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	vals := make([]value.Value, len(args))
	for i, a := range args {
		v, err := e.Eval(a, local)
		if err != nil {
			return value.Value{}, err
		}
		vals[i] = v
	}
	return buildList(vals)
}

func buildList(vals []value.Value) (value.Value, error) {
	if len(vals) == 0 {
		return value.NewList(nil, value.NoType(), 0)
	}
	entry := value.TypeOf(vals[0])
	for _, v := range vals[1:] {
		u, ok := value.Unify(entry, value.TypeOf(v))
		if !ok {
			return value.Value{}, &ListConstructionError{Detail: "elements do not unify to a common type"}
		}
		entry = u
	}
	return value.NewList(vals, entry, uint32(len(vals)))
}

func sfFilter(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "filter", Expected: 2, Found: len(args)}
	}
	fnName, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "function name", Found: args[0].String()}
	}
	listVal, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	if listVal.Kind != value.KindList {
		return value.Value{}, &TypeError{Expected: "list", Found: listVal.Kind.String()}
	}
	kept := make([]value.Value, 0, len(listVal.List))
	for _, elem := range listVal.List {
		result, err := e.applyNamed(fnName.Name, []value.Value{elem})
		if err != nil {
			return value.Value{}, err
		}
		if result.Kind != value.KindBool {
			return value.Value{}, &TypeError{Expected: "bool", Found: result.Kind.String()}
		}
		if result.Bool {
			kept = append(kept, elem)
		}
	}
	return value.NewList(kept, listVal.ListEntry, listVal.ListMaxLen)
}

func sfFold(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 3 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "fold", Expected: 3, Found: len(args)}
	}
	fnName, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "function name", Found: args[0].String()}
	}
	listVal, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	if listVal.Kind != value.KindList {
		return value.Value{}, &TypeError{Expected: "list", Found: listVal.Kind.String()}
	}
	acc, err := e.Eval(args[2], local)
	if err != nil {
		return value.Value{}, err
	}
	for _, elem := range listVal.List {
		acc, err = e.applyNamed(fnName.Name, []value.Value{elem, acc})
		if err != nil {
			return value.Value{}, err
		}
	}
	return acc, nil
}

func sfMap(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "map", Expected: 2, Found: len(args)}
	}
	fnName, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "function name", Found: args[0].String()}
	}
	listVal, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	if listVal.Kind != value.KindList {
		return value.Value{}, &TypeError{Expected: "list", Found: listVal.Kind.String()}
	}
	results := make([]value.Value, len(listVal.List))
	for i, elem := range listVal.List {
		r, err := e.applyNamed(fnName.Name, []value.Value{elem})
		if err != nil {
			return value.Value{}, err
		}
		results[i] = r
	}
	if len(results) == 0 {
		return value.NewList(nil, value.NoType(), listVal.ListMaxLen)
	}
	entryType := value.TypeOf(results[0])
	for _, r := range results[1:] {
		u, ok := value.Unify(entryType, value.TypeOf(r))
		if !ok {
			return value.Value{}, &ListConstructionError{Detail: "mapped elements do not unify to a common type"}
		}
		entryType = u
	}
	return value.NewList(results, entryType, listVal.ListMaxLen)
}

func sfContractCall(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) < 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "contract-call?", Expected: 2, Found: len(args)}
	}
	targetName, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "contract name", Found: args[0].String()}
	}
	fnName, ok := wantAtom(args[1])
	if !ok {
		return value.Value{}, &TypeError{Expected: "function name", Found: args[1].String()}
	}
	target, found, err := e.SP.GetContract(targetName.Name)
	if err != nil {
		return value.Value{}, err
	}
	if !found {
		return value.Value{}, &UndefinedFunctionError{Name: targetName.Name}
	}
	fn, ok := target.Functions[fnName.Name]
	if !ok || fn.Kind == store.Private {
		return value.Value{}, &UndefinedFunctionError{Name: fnName.Name}
	}

	callArgExprs := args[2:]
	if len(callArgExprs) != len(fn.Params) {
		return value.Value{}, &ArgumentCountMismatchError{Name: fnName.Name, Expected: len(fn.Params), Found: len(callArgExprs)}
	}
	argVals := make([]value.Value, len(callArgExprs))
	for i, a := range callArgExprs {
		v, err := e.Eval(a, local)
		if err != nil {
			return value.Value{}, err
		}
		argVals[i] = v
	}

	nested, err := e.SP.Nest()
	if err != nil {
		return value.Value{}, err
	}
	calleeReadOnly := e.ReadOnly || fn.Kind == store.ReadOnly
	callee := &Eval{
		SP:        nested,
		Contract:  target,
		Sender:    contractPrincipal(e.Contract.Name),
		CallStack: append(append([]string{}, e.CallStack...), fnName.Name),
		ReadOnly:  calleeReadOnly,
	}
	root := NewEnvironment()
	root.SeedGlobals(target.Constants)
	frame := NewEnclosedEnvironment(root)
	for i, p := range fn.Params {
		if err := frame.Define(p.Name, argVals[i]); err != nil {
			nested.Rollback()
			return value.Value{}, err
		}
	}
	result, err := callee.Eval(fn.Body, frame)
	if er, ok := err.(*earlyReturn); ok {
		result, err = er.V, nil
	}
	if err != nil {
		nested.Rollback()
		return value.Value{}, err
	}
	// If the callee returns err, its writes must not be observed by the
	// caller (spec §4.3: "if the callee returns err, the savepoint is
	// rolled back before the caller sees the value").
	if result.Kind == value.KindResponse && !result.RespCommitted {
		if err := nested.Rollback(); err != nil {
			return value.Value{}, err
		}
		return result, nil
	}
	if err := nested.Commit(); err != nil {
		return value.Value{}, err
	}
	return result, nil
}

// sfFTMint implements `ft-mint?` (SPEC_FULL.md §4 token ledger builtins,
// grounded on the ft-mint?/ft-transfer? shape in the original Clarity
// runtime). The token is a declared name, not an evaluated expression —
// the same shape as a map name in map-get?.
func sfFTMint(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if e.ReadOnly {
		return value.Value{}, &ReadOnlyViolationError{Name: "ft-mint?"}
	}
	if len(args) != 3 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "ft-mint?", Expected: 3, Found: len(args)}
	}
	token, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "token name", Found: args[0].String()}
	}
	amount, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	if amount.Kind != value.KindInt {
		return value.Value{}, &TypeError{Expected: "int", Found: amount.Kind.String()}
	}
	recipientVal, err := e.Eval(args[2], local)
	if err != nil {
		return value.Value{}, err
	}
	recipient, err := wantPrincipal(recipientVal)
	if err != nil {
		return value.Value{}, err
	}
	if err := e.SP.FTMint(e.Contract.Name, token.Name, amount, recipient); err != nil {
		return value.Value{}, err
	}
	return value.ResponseOk(value.Bool(true)), nil
}

func sfFTTransfer(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if e.ReadOnly {
		return value.Value{}, &ReadOnlyViolationError{Name: "ft-transfer?"}
	}
	if len(args) != 4 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "ft-transfer?", Expected: 4, Found: len(args)}
	}
	token, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "token name", Found: args[0].String()}
	}
	amount, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	if amount.Kind != value.KindInt {
		return value.Value{}, &TypeError{Expected: "int", Found: amount.Kind.String()}
	}
	fromVal, err := e.Eval(args[2], local)
	if err != nil {
		return value.Value{}, err
	}
	from, err := wantPrincipal(fromVal)
	if err != nil {
		return value.Value{}, err
	}
	toVal, err := e.Eval(args[3], local)
	if err != nil {
		return value.Value{}, err
	}
	to, err := wantPrincipal(toVal)
	if err != nil {
		return value.Value{}, err
	}
	if err := e.SP.FTTransfer(e.Contract.Name, token.Name, amount, from, to); err != nil {
		return value.ResponseErr(value.NewIntFromInt64(1)), nil
	}
	return value.ResponseOk(value.Bool(true)), nil
}

func sfFTGetBalance(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "ft-get-balance", Expected: 2, Found: len(args)}
	}
	token, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "token name", Found: args[0].String()}
	}
	holderVal, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	holder, err := wantPrincipal(holderVal)
	if err != nil {
		return value.Value{}, err
	}
	return e.SP.FTGetBalance(e.Contract.Name, token.Name, holder)
}

func sfNFTMint(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if e.ReadOnly {
		return value.Value{}, &ReadOnlyViolationError{Name: "nft-mint?"}
	}
	if len(args) != 3 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "nft-mint?", Expected: 3, Found: len(args)}
	}
	token, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "token name", Found: args[0].String()}
	}
	id, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	recipientVal, err := e.Eval(args[2], local)
	if err != nil {
		return value.Value{}, err
	}
	recipient, err := wantPrincipal(recipientVal)
	if err != nil {
		return value.Value{}, err
	}
	if err := e.SP.NFTMint(e.Contract.Name, token.Name, id, recipient); err != nil {
		return value.ResponseErr(value.NewIntFromInt64(1)), nil
	}
	return value.ResponseOk(value.Bool(true)), nil
}

func sfNFTTransfer(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if e.ReadOnly {
		return value.Value{}, &ReadOnlyViolationError{Name: "nft-transfer?"}
	}
	if len(args) != 4 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "nft-transfer?", Expected: 4, Found: len(args)}
	}
	token, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "token name", Found: args[0].String()}
	}
	id, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	fromVal, err := e.Eval(args[2], local)
	if err != nil {
		return value.Value{}, err
	}
	from, err := wantPrincipal(fromVal)
	if err != nil {
		return value.Value{}, err
	}
	toVal, err := e.Eval(args[3], local)
	if err != nil {
		return value.Value{}, err
	}
	to, err := wantPrincipal(toVal)
	if err != nil {
		return value.Value{}, err
	}
	if err := e.SP.NFTTransfer(e.Contract.Name, token.Name, id, from, to); err != nil {
		return value.ResponseErr(value.NewIntFromInt64(2)), nil
	}
	return value.ResponseOk(value.Bool(true)), nil
}

func sfNFTGetOwner(e *Eval, local *Environment, args []ast.Expr) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, &ArgumentCountMismatchError{Name: "nft-get-owner", Expected: 2, Found: len(args)}
	}
	token, ok := wantAtom(args[0])
	if !ok {
		return value.Value{}, &TypeError{Expected: "token name", Found: args[0].String()}
	}
	id, err := e.Eval(args[1], local)
	if err != nil {
		return value.Value{}, err
	}
	owner, found, err := e.SP.NFTGetOwner(e.Contract.Name, token.Name, id)
	if err != nil {
		return value.Value{}, err
	}
	if !found {
		return value.OptionalNone(value.PrincipalType()), nil
	}
	return value.OptionalSome(value.PrincipalValue(owner)), nil
}
