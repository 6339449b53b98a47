package store

import (
	"database/sql"
	"errors"

	"github.com/ledgervm/ledgervm/internal/value"
)

// GetVar reads a data variable's current value (spec §3.3).
func (sp *Savepoint) GetVar(contract, name string) (value.Value, bool, error) {
	var blob []byte
	err := sp.queryRow("SELECT value_blob FROM data_vars WHERE contract = ? AND var_name = ?", contract, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return value.Value{}, false, nil
	}
	if err != nil {
		return value.Value{}, false, err
	}
	v, err := decodeValue(blob)
	return v, true, err
}

// SetVar implements `var-set` (spec §4.3).
func (sp *Savepoint) SetVar(contract, name string, v value.Value) error {
	blob, err := encodeValue(v)
	if err != nil {
		return err
	}
	_, err = sp.exec("UPDATE data_vars SET value_blob = ? WHERE contract = ? AND var_name = ?", blob, contract, name)
	return err
}

// MapGet implements `map-get?` (spec §4.3): returns (value, found).
func (sp *Savepoint) MapGet(contract, mapName string, key value.Value) (value.Value, bool, error) {
	kr, err := keyRepr(key)
	if err != nil {
		return value.Value{}, false, err
	}
	var blob []byte
	err = sp.queryRow(
		"SELECT value_blob FROM map_entries WHERE contract = ? AND map_name = ? AND key_repr = ?",
		contract, mapName, kr,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return value.Value{}, false, nil
	}
	if err != nil {
		return value.Value{}, false, err
	}
	v, err := decodeValue(blob)
	return v, true, err
}

// MapSet implements `map-set!`: unconditional upsert (spec §4.3).
func (sp *Savepoint) MapSet(contract, mapName string, key, val value.Value) error {
	kr, err := keyRepr(key)
	if err != nil {
		return err
	}
	vb, err := encodeValue(val)
	if err != nil {
		return err
	}
	_, err = sp.exec(
		"INSERT INTO map_entries (contract, map_name, key_repr, value_blob) VALUES (?, ?, ?, ?) "+
			"ON CONFLICT(contract, map_name, key_repr) DO UPDATE SET value_blob = excluded.value_blob",
		contract, mapName, kr, vb,
	)
	return err
}

// MapInsert implements `map-insert!`: inserts only if the key is absent,
// returning whether the insert happened (spec §4.3).
func (sp *Savepoint) MapInsert(contract, mapName string, key, val value.Value) (bool, error) {
	_, found, err := sp.MapGet(contract, mapName, key)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}
	if err := sp.MapSet(contract, mapName, key, val); err != nil {
		return false, err
	}
	return true, nil
}

// MapDelete implements `map-delete!`, returning whether an entry was removed.
func (sp *Savepoint) MapDelete(contract, mapName string, key value.Value) (bool, error) {
	kr, err := keyRepr(key)
	if err != nil {
		return false, err
	}
	res, err := sp.exec("DELETE FROM map_entries WHERE contract = ? AND map_name = ? AND key_repr = ?", contract, mapName, kr)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// FTGetBalance reads a fungible token balance, defaulting to zero.
func (sp *Savepoint) FTGetBalance(contract, token string, holder value.Principal) (value.Value, error) {
	hr, err := keyRepr(value.PrincipalValue(holder))
	if err != nil {
		return value.Value{}, err
	}
	var blob []byte
	err = sp.queryRow(
		"SELECT value_blob FROM token_ledgers WHERE contract = ? AND token = ? AND kind = 'ft-balance' AND holder_repr = ?",
		contract, token, hr,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return value.NewIntFromInt64(0), nil
	}
	if err != nil {
		return value.Value{}, err
	}
	return decodeValue(blob)
}

func (sp *Savepoint) ftSetBalance(contract, token string, holder value.Principal, balance value.Value) error {
	hr, err := keyRepr(value.PrincipalValue(holder))
	if err != nil {
		return err
	}
	blob, err := encodeValue(balance)
	if err != nil {
		return err
	}
	_, err = sp.exec(
		"INSERT INTO token_ledgers (contract, token, kind, holder_repr, value_blob) VALUES (?, ?, 'ft-balance', ?, ?) "+
			"ON CONFLICT(contract, token, kind, holder_repr) DO UPDATE SET value_blob = excluded.value_blob",
		contract, token, hr, blob,
	)
	return err
}

// FTMint implements `ft-mint?`: credits amount to recipient.
func (sp *Savepoint) FTMint(contract, token string, amount value.Value, recipient value.Principal) error {
	bal, err := sp.FTGetBalance(contract, token, recipient)
	if err != nil {
		return err
	}
	newBal, err := value.AddInt(bal, amount)
	if err != nil {
		return err
	}
	return sp.ftSetBalance(contract, token, recipient, newBal)
}

// FTTransfer implements `ft-transfer?`: debits from, credits to.
func (sp *Savepoint) FTTransfer(contract, token string, amount value.Value, from, to value.Principal) error {
	fromBal, err := sp.FTGetBalance(contract, token, from)
	if err != nil {
		return err
	}
	newFromBal, err := value.SubInt(fromBal, amount)
	if err != nil {
		return err
	}
	if newFromBal.Int.Sign() < 0 {
		return errors.New("ft-transfer?: insufficient balance")
	}
	toBal, err := sp.FTGetBalance(contract, token, to)
	if err != nil {
		return err
	}
	newToBal, err := value.AddInt(toBal, amount)
	if err != nil {
		return err
	}
	if err := sp.ftSetBalance(contract, token, from, newFromBal); err != nil {
		return err
	}
	return sp.ftSetBalance(contract, token, to, newToBal)
}

// NFTGetOwner reads the current owner of an NFT identified by its id repr.
func (sp *Savepoint) NFTGetOwner(contract, token string, id value.Value) (value.Principal, bool, error) {
	ir, err := keyRepr(id)
	if err != nil {
		return value.Principal{}, false, err
	}
	var blob []byte
	err = sp.queryRow(
		"SELECT value_blob FROM token_ledgers WHERE contract = ? AND token = ? AND kind = 'nft-owner' AND holder_repr = ?",
		contract, token, ir,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return value.Principal{}, false, nil
	}
	if err != nil {
		return value.Principal{}, false, err
	}
	v, err := decodeValue(blob)
	if err != nil {
		return value.Principal{}, false, err
	}
	return v.Principal, true, nil
}

func (sp *Savepoint) nftSetOwner(contract, token string, id value.Value, owner value.Principal) error {
	ir, err := keyRepr(id)
	if err != nil {
		return err
	}
	blob, err := encodeValue(value.PrincipalValue(owner))
	if err != nil {
		return err
	}
	_, err = sp.exec(
		"INSERT INTO token_ledgers (contract, token, kind, holder_repr, value_blob) VALUES (?, ?, 'nft-owner', ?, ?) "+
			"ON CONFLICT(contract, token, kind, holder_repr) DO UPDATE SET value_blob = excluded.value_blob",
		contract, token, ir, blob,
	)
	return err
}

// NFTMint implements `nft-mint?`, failing if the id already has an owner.
func (sp *Savepoint) NFTMint(contract, token string, id value.Value, recipient value.Principal) error {
	_, found, err := sp.NFTGetOwner(contract, token, id)
	if err != nil {
		return err
	}
	if found {
		return errors.New("nft-mint?: token id already exists")
	}
	return sp.nftSetOwner(contract, token, id, recipient)
}

// NFTTransfer implements `nft-transfer?`, failing if `from` is not the current owner.
func (sp *Savepoint) NFTTransfer(contract, token string, id value.Value, from, to value.Principal) error {
	owner, found, err := sp.NFTGetOwner(contract, token, id)
	if err != nil {
		return err
	}
	if !found || !owner.Equal(from) {
		return errors.New("nft-transfer?: sender does not own this token")
	}
	return sp.nftSetOwner(contract, token, id, to)
}
