package store

import (
	"bytes"
	"encoding/gob"

	"github.com/ledgervm/ledgervm/internal/value"
)

// encodeValue/decodeValue serialize a Value to/from the BLOB columns that
// back map entries, data variables, and token ledgers. value.Value is a
// closed tagged struct with no interface fields, so gob round-trips it
// directly without a registry.
func encodeValue(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValue(data []byte) (value.Value, error) {
	var v value.Value
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return value.Value{}, err
	}
	return v, nil
}

func encodeType(t *value.Type) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeType(data []byte) (*value.Type, error) {
	var t value.Type
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// keyRepr derives a stable, collision-free lookup key for a map entry from
// its Clarity-level key Value. Iteration over map contents is unordered
// (spec §5); this is purely for exact-match lookup.
func keyRepr(v value.Value) (string, error) {
	b, err := encodeValue(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
