package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgervm/ledgervm/internal/ast"
	"github.com/ledgervm/ledgervm/internal/parser"
	"github.com/ledgervm/ledgervm/internal/value"
)

// FunctionKind is one of private, public, read-only (spec §3.3).
type FunctionKind int

const (
	Private FunctionKind = iota
	Public
	ReadOnly
)

func (k FunctionKind) String() string {
	switch k {
	case Public:
		return "public"
	case ReadOnly:
		return "read-only"
	default:
		return "private"
	}
}

func parseFunctionKind(s string) FunctionKind {
	switch s {
	case "public":
		return Public
	case "read-only":
		return ReadOnly
	default:
		return Private
	}
}

// Param is a single declared function parameter.
type Param struct {
	Name string
	Type *value.Type
}

// Function is a defined contract function (spec §3.3).
type Function struct {
	Name       string
	Kind       FunctionKind
	Params     []Param
	ReturnType *value.Type
	Body       ast.Expr
}

// MapSchema is (key_type, value_type) for a declared map (spec §3.3).
type MapSchema struct {
	Key   *value.Type
	Value *value.Type
}

// Contract is the persisted, read-mostly unit described in spec §3.3.
type Contract struct {
	Name              string
	Source            string
	Functions         map[string]*Function
	Maps              map[string]MapSchema
	Vars              map[string]*value.Type
	Constants         map[string]value.Value
	FungibleTokens    []string
	NonFungibleTokens []string
}

// ContractAlreadyExistsError is raised by `launch` on a duplicate name (spec §7).
type ContractAlreadyExistsError struct{ Name string }

func (e *ContractAlreadyExistsError) Error() string {
	return fmt.Sprintf("ContractAlreadyExists: %s", e.Name)
}

// PutContract persists a contract's source, signatures, and initial
// variable values atomically within sp (spec §3.3 lifetime: "created by
// launch, persisted atomically together with its analysis record").
func (sp *Savepoint) PutContract(c *Contract, initialVars map[string]value.Value) error {
	var exists string
	err := sp.queryRow("SELECT name FROM contracts WHERE name = ?", c.Name).Scan(&exists)
	if err == nil {
		return &ContractAlreadyExistsError{Name: c.Name}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if _, err := sp.exec("INSERT INTO contracts (name, source) VALUES (?, ?)", c.Name, c.Source); err != nil {
		return err
	}

	for _, fn := range c.Functions {
		paramNames := make([]string, len(fn.Params))
		paramTypeBytes := make([][]byte, len(fn.Params))
		for i, p := range fn.Params {
			paramNames[i] = p.Name
			b, err := encodeType(p.Type)
			if err != nil {
				return err
			}
			paramTypeBytes[i] = b
		}
		encodedParamTypes, err := joinByteSlices(paramTypeBytes)
		if err != nil {
			return err
		}
		retBytes, err := encodeType(fn.ReturnType)
		if err != nil {
			return err
		}
		if _, err := sp.exec(
			"INSERT INTO functions (contract, name, kind, param_names, param_types, return_type, body) VALUES (?, ?, ?, ?, ?, ?, ?)",
			c.Name, fn.Name, fn.Kind.String(), strings.Join(paramNames, ","), encodedParamTypes, retBytes, fn.Body.String(),
		); err != nil {
			return err
		}
	}

	for name, schema := range c.Maps {
		kb, err := encodeType(schema.Key)
		if err != nil {
			return err
		}
		vb, err := encodeType(schema.Value)
		if err != nil {
			return err
		}
		if _, err := sp.exec(
			"INSERT INTO map_schemas (contract, map_name, key_type, value_type) VALUES (?, ?, ?, ?)",
			c.Name, name, kb, vb,
		); err != nil {
			return err
		}
	}

	for name, typ := range c.Vars {
		tb, err := encodeType(typ)
		if err != nil {
			return err
		}
		init, ok := initialVars[name]
		if !ok {
			return fmt.Errorf("missing initial value for data-var %s", name)
		}
		vb, err := encodeValue(init)
		if err != nil {
			return err
		}
		if _, err := sp.exec(
			"INSERT INTO data_vars (contract, var_name, var_type, value_blob) VALUES (?, ?, ?, ?)",
			c.Name, name, tb, vb,
		); err != nil {
			return err
		}
	}

	for name, v := range c.Constants {
		vb, err := encodeValue(v)
		if err != nil {
			return err
		}
		if _, err := sp.exec(
			"INSERT INTO constants (contract, name, value_blob) VALUES (?, ?, ?)",
			c.Name, name, vb,
		); err != nil {
			return err
		}
	}

	for _, token := range c.FungibleTokens {
		if _, err := sp.exec(
			"INSERT INTO token_ledgers (contract, token, kind, holder_repr, value_blob) VALUES (?, ?, 'ft-supply', '', ?)",
			c.Name, token, mustEncodeZero(),
		); err != nil {
			return err
		}
	}

	return nil
}

func mustEncodeZero() []byte {
	b, _ := encodeValue(value.NewIntFromInt64(0))
	return b
}

// joinByteSlices length-prefixes each slice so it can be split back apart;
// used to pack a function's parameter types into one BLOB column.
func joinByteSlices(parts [][]byte) ([]byte, error) {
	var out []byte
	for _, p := range parts {
		var lenBuf [4]byte
		n := len(p)
		lenBuf[0] = byte(n >> 24)
		lenBuf[1] = byte(n >> 16)
		lenBuf[2] = byte(n >> 8)
		lenBuf[3] = byte(n)
		out = append(out, lenBuf[:]...)
		out = append(out, p...)
	}
	return out, nil
}

func splitByteSlices(data []byte) ([][]byte, error) {
	var out [][]byte
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, errors.New("store: malformed packed byte slices")
		}
		n := int(data[0])<<24 | int(data[1])<<16 | int(data[2])<<8 | int(data[3])
		data = data[4:]
		if len(data) < n {
			return nil, errors.New("store: malformed packed byte slices")
		}
		out = append(out, data[:n])
		data = data[n:]
	}
	return out, nil
}

// GetContract loads a persisted contract's metadata and function bodies,
// re-parsing each function's serialized body text (spec §3.3).
func (sp *Savepoint) GetContract(name string) (*Contract, bool, error) {
	var source string
	err := sp.queryRow("SELECT source FROM contracts WHERE name = ?", name).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	c := &Contract{
		Name:      name,
		Source:    source,
		Functions: map[string]*Function{},
		Maps:      map[string]MapSchema{},
		Vars:      map[string]*value.Type{},
		Constants: map[string]value.Value{},
	}

	rows, err := sp.query("SELECT name, kind, param_names, param_types, return_type, body FROM functions WHERE contract = ?", name)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var fnName, kind, paramNamesJoined, body string
		var paramTypesBlob, returnTypeBlob []byte
		if err := rows.Scan(&fnName, &kind, &paramNamesJoined, &paramTypesBlob, &returnTypeBlob, &body); err != nil {
			return nil, false, err
		}
		var paramNames []string
		if paramNamesJoined != "" {
			paramNames = strings.Split(paramNamesJoined, ",")
		}
		paramTypeParts, err := splitByteSlices(paramTypesBlob)
		if err != nil {
			return nil, false, err
		}
		params := make([]Param, len(paramNames))
		for i, pn := range paramNames {
			pt, err := decodeType(paramTypeParts[i])
			if err != nil {
				return nil, false, err
			}
			params[i] = Param{Name: pn, Type: pt}
		}
		retType, err := decodeType(returnTypeBlob)
		if err != nil {
			return nil, false, err
		}
		exprs, perrs := parser.Parse(body, name+"#"+fnName)
		if len(perrs) > 0 || len(exprs) != 1 {
			return nil, false, fmt.Errorf("store: failed to re-parse persisted body of %s.%s", name, fnName)
		}
		c.Functions[fnName] = &Function{
			Name:       fnName,
			Kind:       parseFunctionKind(kind),
			Params:     params,
			ReturnType: retType,
			Body:       exprs[0],
		}
	}

	mrows, err := sp.query("SELECT map_name, key_type, value_type FROM map_schemas WHERE contract = ?", name)
	if err != nil {
		return nil, false, err
	}
	defer mrows.Close()
	for mrows.Next() {
		var mapName string
		var kb, vb []byte
		if err := mrows.Scan(&mapName, &kb, &vb); err != nil {
			return nil, false, err
		}
		kt, err := decodeType(kb)
		if err != nil {
			return nil, false, err
		}
		vt, err := decodeType(vb)
		if err != nil {
			return nil, false, err
		}
		c.Maps[mapName] = MapSchema{Key: kt, Value: vt}
	}

	vrows, err := sp.query("SELECT var_name, var_type FROM data_vars WHERE contract = ?", name)
	if err != nil {
		return nil, false, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var varName string
		var tb []byte
		if err := vrows.Scan(&varName, &tb); err != nil {
			return nil, false, err
		}
		t, err := decodeType(tb)
		if err != nil {
			return nil, false, err
		}
		c.Vars[varName] = t
	}

	crows, err := sp.query("SELECT name, value_blob FROM constants WHERE contract = ?", name)
	if err != nil {
		return nil, false, err
	}
	defer crows.Close()
	for crows.Next() {
		var constName string
		var vb []byte
		if err := crows.Scan(&constName, &vb); err != nil {
			return nil, false, err
		}
		v, err := decodeValue(vb)
		if err != nil {
			return nil, false, err
		}
		c.Constants[constName] = v
	}

	return c, true, nil
}
