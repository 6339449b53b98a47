package semantic

import (
	"fmt"

	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/ledgervm/ledgervm/internal/value"
)

// analyzer carries the state threaded through a single contract's analysis:
// the in-progress ContractAnalysis, the savepoint used to resolve
// contract-call? targets, the not-yet-type-checked function bodies, and the
// resolveFunction memo/cycle guard that lets functions reference each other
// regardless of declaration order (spec §4.2 "forward references between
// top-level definitions are permitted").
type analyzer struct {
	sp  *store.Savepoint
	ca  *ContractAnalysis

	bodies    map[string]ast.Expr
	resolving map[string]bool

	currentFn string
}

// Analyze walks a contract's top-level forms and produces a
// ContractAnalysis (spec §4.2). It does not itself persist the result or
// the contract; the caller is expected to do both atomically within the
// same savepoint (spec §3.3 "persisted atomically together with its
// analysis record").
func Analyze(sp *store.Savepoint, contractName string, exprs []ast.Expr) (*ContractAnalysis, error) {
	az := &analyzer{
		sp:        sp,
		ca:        newContractAnalysis(contractName),
		bodies:    map[string]ast.Expr{},
		resolving: map[string]bool{},
	}

	// Pass 1: declare every top-level form's signature without checking
	// function bodies, so later passes can see the whole contract.
	for _, e := range exprs {
		if err := az.declare(e); err != nil {
			return nil, err
		}
	}

	// Pass 2: fold define-constant initializers in declaration order, so a
	// later constant may reference an earlier one.
	constVals := map[string]value.Value{}
	for _, name := range az.ca.ConstantOrder {
		v, err := foldConst(constVals, az.bodies["const:"+name])
		if err != nil {
			return nil, err
		}
		declared := az.ca.Constants[name]
		if _, ok := value.Unify(declared, value.TypeOf(v)); !ok {
			return nil, &TypeError{Expected: declared.String(), Found: value.TypeOf(v).String()}
		}
		constVals[name] = v
		az.ca.ConstantValues[name] = v
		az.ca.Constants[name] = value.TypeOf(v)
	}

	// Pass 3: fold define-data-var initializers against the same constant
	// environment.
	for _, name := range az.ca.VarOrder {
		v, err := foldConst(constVals, az.bodies["var:"+name])
		if err != nil {
			return nil, err
		}
		declared := az.ca.Vars[name]
		if _, ok := value.Unify(declared, value.TypeOf(v)); !ok {
			return nil, &TypeError{Expected: declared.String(), Found: value.TypeOf(v).String()}
		}
		az.ca.InitialVarValues[name] = v
	}

	// Pass 4: type-check every function body, in declaration order. Each
	// call memoizes through resolveFunction, so a function referenced
	// earlier by another function is only checked once.
	for _, name := range az.ca.FunctionOrder {
		if _, err := az.resolveFunction(name); err != nil {
			return nil, err
		}
	}

	return az.ca, nil
}

// CheckExpr type-checks a single ad-hoc expression against an already-known
// contract context — used by `eval` and `repl` (spec §6.1), which run a
// program against a contract's maps/vars/functions without re-analyzing its
// source. The expression runs read-only: `eval` never persists.
func CheckExpr(sp *store.Savepoint, ca *ContractAnalysis, e ast.Expr) (*value.Type, error) {
	az := &analyzer{
		sp:        sp,
		ca:        ca,
		bodies:    map[string]ast.Expr{},
		resolving: map[string]bool{},
	}
	top := newTypeEnv()
	top.seed(ca.Constants)
	var mutated bool
	return az.infer(top, exprCtx{readOnly: true, mutated: &mutated}, e)
}

// declare handles one top-level form during pass 1.
func (az *analyzer) declare(e ast.Expr) error {
	l, ok := e.(*ast.List)
	if !ok || len(l.Children) == 0 {
		return &TypeError{Expected: "a top-level define form", Found: e.String()}
	}
	head, ok := l.Children[0].(*ast.Atom)
	if !ok {
		return &TypeError{Expected: "identifier", Found: l.Children[0].String()}
	}
	args := l.Children[1:]

	switch head.Name {
	case "define-constant":
		if len(args) != 2 {
			return &ArgumentCountMismatchError{Name: "define-constant", Expected: 2, Found: len(args)}
		}
		nameAtom, err := wantTypeAtom(args[0])
		if err != nil {
			return err
		}
		// The declared type is inferred once the value is folded (pass 2);
		// record a placeholder slot now to preserve declaration order.
		az.ca.ConstantOrder = append(az.ca.ConstantOrder, nameAtom.Name)
		az.ca.Constants[nameAtom.Name] = value.AnyType()
		az.bodies["const:"+nameAtom.Name] = args[1]
		return nil

	case "define-data-var":
		if len(args) != 3 {
			return &ArgumentCountMismatchError{Name: "define-data-var", Expected: 3, Found: len(args)}
		}
		nameAtom, err := wantTypeAtom(args[0])
		if err != nil {
			return err
		}
		t, err := parseTypeExpr(args[1])
		if err != nil {
			return err
		}
		az.ca.VarOrder = append(az.ca.VarOrder, nameAtom.Name)
		az.ca.Vars[nameAtom.Name] = t
		az.bodies["var:"+nameAtom.Name] = args[2]
		return nil

	case "define-map":
		if len(args) != 3 {
			return &ArgumentCountMismatchError{Name: "define-map", Expected: 3, Found: len(args)}
		}
		nameAtom, err := wantTypeAtom(args[0])
		if err != nil {
			return err
		}
		keyT, err := parseTypeExpr(args[1])
		if err != nil {
			return err
		}
		valT, err := parseTypeExpr(args[2])
		if err != nil {
			return err
		}
		az.ca.MapOrder = append(az.ca.MapOrder, nameAtom.Name)
		az.ca.Maps[nameAtom.Name] = store.MapSchema{Key: keyT, Value: valT}
		return nil

	case "define-fungible-token":
		if len(args) != 1 && len(args) != 2 {
			return &ArgumentCountMismatchError{Name: "define-fungible-token", Expected: 1, Found: len(args)}
		}
		nameAtom, err := wantTypeAtom(args[0])
		if err != nil {
			return err
		}
		az.ca.FungibleTokens = append(az.ca.FungibleTokens, nameAtom.Name)
		return nil

	case "define-non-fungible-token":
		if len(args) != 2 {
			return &ArgumentCountMismatchError{Name: "define-non-fungible-token", Expected: 2, Found: len(args)}
		}
		nameAtom, err := wantTypeAtom(args[0])
		if err != nil {
			return err
		}
		if _, err := parseTypeExpr(args[1]); err != nil {
			return err
		}
		az.ca.NonFungibleTokens = append(az.ca.NonFungibleTokens, nameAtom.Name)
		return nil

	case "define-public", "define-private", "define-read-only":
		return az.declareFunction(head.Name, args)

	default:
		return &TypeError{Expected: "a define-* form", Found: head.Name}
	}
}

func (az *analyzer) declareFunction(head string, args []ast.Expr) error {
	if len(args) < 1 {
		return &ArgumentCountMismatchError{Name: head, Expected: 1, Found: 0}
	}
	sig, ok := args[0].(*ast.List)
	if !ok || len(sig.Children) == 0 {
		return &TypeError{Expected: "(name (arg type)...) signature", Found: args[0].String()}
	}
	nameAtom, err := wantTypeAtom(sig.Children[0])
	if err != nil {
		return err
	}
	body := args[1:]
	if len(body) == 0 {
		return &ArgumentCountMismatchError{Name: nameAtom.Name, Expected: 1, Found: 0}
	}

	var kind store.FunctionKind
	switch head {
	case "define-public":
		kind = store.Public
	case "define-read-only":
		kind = store.ReadOnly
	default:
		kind = store.Private
	}

	paramNames := make([]string, 0, len(sig.Children)-1)
	paramTypes := make([]*value.Type, 0, len(sig.Children)-1)
	for _, p := range sig.Children[1:] {
		pair, ok := p.(*ast.List)
		if !ok || len(pair.Children) != 2 {
			return &TypeError{Expected: "(name type) parameter", Found: p.String()}
		}
		pnAtom, err := wantTypeAtom(pair.Children[0])
		if err != nil {
			return err
		}
		pt, err := parseTypeExpr(pair.Children[1])
		if err != nil {
			return err
		}
		paramNames = append(paramNames, pnAtom.Name)
		paramTypes = append(paramTypes, pt)
	}

	var bodyExpr ast.Expr
	if len(body) == 1 {
		bodyExpr = body[0]
	} else {
		children := make([]ast.Expr, 0, len(body)+1)
		children = append(children, &ast.Atom{Position: body[0].Pos(), Name: "begin"})
		children = append(children, body...)
		bodyExpr = &ast.List{Position: body[0].Pos(), Children: children}
	}

	az.ca.FunctionOrder = append(az.ca.FunctionOrder, nameAtom.Name)
	az.ca.Functions[nameAtom.Name] = &FunctionSig{
		Name:       nameAtom.Name,
		Kind:       kind,
		ParamNames: paramNames,
		ParamTypes: paramTypes,
		ReturnType: nil, // filled in by resolveFunction
		Body:       bodyExpr,
	}
	az.bodies[nameAtom.Name] = bodyExpr
	return nil
}

// resolveFunction type-checks a function's body on demand, memoizing the
// result and guarding against a recursive/mutually-recursive call cycle by
// falling back to AnyType for the cycle member being resolved. Recursion
// itself is rejected by the evaluator at runtime; the fallback only lets
// return-type inference terminate on a call cycle.
func (az *analyzer) resolveFunction(name string) (*FunctionSig, error) {
	sig, ok := az.ca.Functions[name]
	if !ok {
		return nil, &UndefinedFunctionError{Name: name}
	}
	if sig.ReturnType != nil {
		return sig, nil
	}
	if az.resolving[name] {
		// Cycle: hand the caller a snapshot typed AnyType rather than
		// mutating the shared sig, since the outer resolveFunction call for
		// name is still in flight and will compute the real return type.
		cycle := *sig
		cycle.ReturnType = value.AnyType()
		return &cycle, nil
	}
	az.resolving[name] = true
	defer delete(az.resolving, name)

	frame := newTypeEnv()
	for i, pn := range sig.ParamNames {
		if err := frame.define(pn, sig.ParamTypes[i]); err != nil {
			return nil, err
		}
	}

	prevFn := az.currentFn
	az.currentFn = name
	defer func() { az.currentFn = prevFn }()

	var mutated bool
	ctx := exprCtx{readOnly: sig.Kind == store.ReadOnly, mutated: &mutated}
	body, ok := az.bodies[name]
	if !ok {
		return nil, fmt.Errorf("semantic: missing body for %s", name)
	}
	retT, err := az.infer(frame, ctx, body)
	if err != nil {
		return nil, err
	}
	if retT.Kind == value.KindNone {
		retT = value.AnyType()
	}
	if sig.Kind == store.Public && retT.Kind != value.KindResponse {
		return nil, &TypeError{Expected: "ResponseType(_, _)", Found: retT.String()}
	}
	sig.ReturnType = retT
	sig.Mutating = mutated
	return sig, nil
}
