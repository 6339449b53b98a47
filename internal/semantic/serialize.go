package semantic

import (
	"encoding/json"

	"github.com/ledgervm/ledgervm/internal/jsonvalue"
)

// ToJSON renders a ContractAnalysis as the structured record `check
// --output_analysis` emits (spec §6.2): contract name, function signatures
// (name, arg types, return type, mutating flag), map schemas, variable
// types, in stable declaration order.
func (ca *ContractAnalysis) ToJSON() (string, error) {
	root := jsonvalue.Object()
	root.Set("contract_name", jsonvalue.String(ca.ContractName))

	fns := jsonvalue.Array()
	for _, name := range ca.FunctionOrder {
		fs := ca.Functions[name]
		fnObj := jsonvalue.Object()
		fnObj.Set("name", jsonvalue.String(fs.Name))
		fnObj.Set("kind", jsonvalue.String(fs.Kind.String()))

		args := jsonvalue.Array()
		for i, pn := range fs.ParamNames {
			argObj := jsonvalue.Object()
			argObj.Set("name", jsonvalue.String(pn))
			argObj.Set("type", jsonvalue.String(fs.ParamTypes[i].String()))
			args.Append(argObj)
		}
		fnObj.Set("args", args)
		fnObj.Set("return_type", jsonvalue.String(fs.ReturnType.String()))
		fnObj.Set("mutating", jsonvalue.Boolean(fs.Mutating))
		fns.Append(fnObj)
	}
	root.Set("functions", fns)

	maps := jsonvalue.Array()
	for _, name := range ca.MapOrder {
		m := ca.Maps[name]
		mapObj := jsonvalue.Object()
		mapObj.Set("name", jsonvalue.String(name))
		mapObj.Set("key_type", jsonvalue.String(m.Key.String()))
		mapObj.Set("value_type", jsonvalue.String(m.Value.String()))
		maps.Append(mapObj)
	}
	root.Set("maps", maps)

	vars := jsonvalue.Array()
	for _, name := range ca.VarOrder {
		varObj := jsonvalue.Object()
		varObj.Set("name", jsonvalue.String(name))
		varObj.Set("type", jsonvalue.String(ca.Vars[name].String()))
		vars.Append(varObj)
	}
	root.Set("variables", vars)

	consts := jsonvalue.Array()
	for _, name := range ca.ConstantOrder {
		constObj := jsonvalue.Object()
		constObj.Set("name", jsonvalue.String(name))
		constObj.Set("type", jsonvalue.String(ca.Constants[name].String()))
		consts.Append(constObj)
	}
	root.Set("constants", consts)

	ftArr := jsonvalue.Array()
	for _, t := range ca.FungibleTokens {
		ftArr.Append(jsonvalue.String(t))
	}
	root.Set("fungible_tokens", ftArr)

	nftArr := jsonvalue.Array()
	for _, t := range ca.NonFungibleTokens {
		nftArr.Append(jsonvalue.String(t))
	}
	root.Set("non_fungible_tokens", nftArr)

	b, err := json.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
