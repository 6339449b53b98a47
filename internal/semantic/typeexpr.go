package semantic

import (
	"fmt"

	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/value"
)

// parseTypeExpr converts a declared type expression's syntax into a *value.Type
// (spec §3.2's closed Type sum). Scalars are bare Atoms (`int`, `bool`,
// `principal`); compound types are lists headed by their kind name:
// (buffer N), (list N entry-type), (tuple (name type) ...), (optional inner),
// (response ok-type err-type). This surface grammar is not dictated by
// spec.md (it only fixes the Type lattice, not its concrete syntax); it
// follows the contract language's general "head names the form" shape used
// everywhere else (§3.1).
func parseTypeExpr(e ast.Expr) (*value.Type, error) {
	switch node := e.(type) {
	case *ast.Atom:
		switch node.Name {
		case "int", "uint":
			return value.IntType(), nil
		case "bool":
			return value.BoolType(), nil
		case "principal":
			return value.PrincipalType(), nil
		default:
			return nil, fmt.Errorf("semantic: unknown type %q", node.Name)
		}
	case *ast.List:
		if len(node.Children) == 0 {
			return nil, fmt.Errorf("semantic: empty type expression")
		}
		head, ok := node.Children[0].(*ast.Atom)
		if !ok {
			return nil, fmt.Errorf("semantic: a type expression's head must be an identifier")
		}
		args := node.Children[1:]
		switch head.Name {
		case "buffer":
			if len(args) != 1 {
				return nil, fmt.Errorf("semantic: (buffer N) takes one argument")
			}
			n, err := typeExprUint(args[0])
			if err != nil {
				return nil, err
			}
			return value.BufferType(n), nil
		case "list":
			if len(args) != 2 {
				return nil, fmt.Errorf("semantic: (list N entry-type) takes two arguments")
			}
			n, err := typeExprUint(args[0])
			if err != nil {
				return nil, err
			}
			entry, err := parseTypeExpr(args[1])
			if err != nil {
				return nil, err
			}
			return value.ListType(entry, n), nil
		case "optional":
			if len(args) != 1 {
				return nil, fmt.Errorf("semantic: (optional inner) takes one argument")
			}
			inner, err := parseTypeExpr(args[0])
			if err != nil {
				return nil, err
			}
			return value.OptionalType(inner), nil
		case "response":
			if len(args) != 2 {
				return nil, fmt.Errorf("semantic: (response ok err) takes two arguments")
			}
			ok, err := parseTypeExpr(args[0])
			if err != nil {
				return nil, err
			}
			errT, err := parseTypeExpr(args[1])
			if err != nil {
				return nil, err
			}
			return value.ResponseType(ok, errT), nil
		case "tuple":
			order := make([]string, 0, len(args))
			fields := make(map[string]*value.Type, len(args))
			for _, fieldExpr := range args {
				fl, ok := fieldExpr.(*ast.List)
				if !ok || len(fl.Children) != 2 {
					return nil, fmt.Errorf("semantic: tuple field must be (name type)")
				}
				nameAtom, ok := fl.Children[0].(*ast.Atom)
				if !ok {
					return nil, fmt.Errorf("semantic: tuple field name must be an identifier")
				}
				fieldType, err := parseTypeExpr(fl.Children[1])
				if err != nil {
					return nil, err
				}
				order = append(order, nameAtom.Name)
				fields[nameAtom.Name] = fieldType
			}
			return value.TupleType(order, fields), nil
		default:
			return nil, fmt.Errorf("semantic: unknown type constructor %q", head.Name)
		}
	default:
		return nil, fmt.Errorf("semantic: a type expression must be an identifier or a list")
	}
}

func typeExprUint(e ast.Expr) (uint32, error) {
	av, ok := e.(*ast.AtomValue)
	if !ok || av.Value.Kind != value.KindInt {
		return 0, fmt.Errorf("semantic: expected an integer literal")
	}
	if !av.Value.Int.IsUint64() {
		return 0, fmt.Errorf("semantic: length must be a non-negative integer")
	}
	return uint32(av.Value.Int.Uint64()), nil
}
