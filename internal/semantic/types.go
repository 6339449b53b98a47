package semantic

import (
	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/store"
	"github.com/ledgervm/ledgervm/internal/value"
)

// FunctionSig is one function's recorded signature (spec §4.2
// ContractAnalysis's function_signatures entry, spec §6.2 "name, arg
// types, return type, mutating flag").
type FunctionSig struct {
	Name       string
	Kind       store.FunctionKind
	ParamNames []string
	ParamTypes []*value.Type
	ReturnType *value.Type
	Mutating   bool
	// Body is the parsed function body, carried through so the launch
	// command can build a store.Function without re-parsing source text.
	Body ast.Expr
}

// ContractAnalysis is the persisted record the analyzer produces (spec
// §4.2): contract_name, function_signatures, map_schemas, variable_types,
// asset_declarations. Order slices preserve declaration order for stable
// `check --output_analysis` output (spec §6.2).
type ContractAnalysis struct {
	ContractName string

	Functions     map[string]*FunctionSig
	FunctionOrder []string

	Maps     map[string]store.MapSchema
	MapOrder []string

	Vars     map[string]*value.Type
	VarOrder []string

	Constants     map[string]*value.Type
	ConstantOrder []string

	// ConstantValues and InitialVarValues hold the folded literal values
	// (spec §4.2 "constant initializers are folded at analysis time"),
	// handed to store.PutContract alongside the signatures above.
	ConstantValues   map[string]value.Value
	InitialVarValues map[string]value.Value

	FungibleTokens    []string
	NonFungibleTokens []string
}

func newContractAnalysis(name string) *ContractAnalysis {
	return &ContractAnalysis{
		ContractName:     name,
		Functions:        map[string]*FunctionSig{},
		Maps:             map[string]store.MapSchema{},
		Vars:             map[string]*value.Type{},
		Constants:        map[string]*value.Type{},
		ConstantValues:   map[string]value.Value{},
		InitialVarValues: map[string]value.Value{},
	}
}
