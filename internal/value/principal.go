package value

import (
	"bytes"

	"github.com/ledgervm/ledgervm/internal/address"
)

// Principal is a versioned 20-byte address (spec §3.2).
type Principal struct {
	Version byte
	Hash160 [20]byte
}

func (p Principal) Equal(other Principal) bool {
	return p.Version == other.Version && bytes.Equal(p.Hash160[:], other.Hash160[:])
}

func NewPrincipal(version byte, hash [20]byte) Principal {
	return Principal{Version: version, Hash160: hash}
}

// String renders the principal via the address collaborator (spec §6.3).
func (p Principal) String() string {
	return address.Encode(p.Version, p.Hash160)
}

// ParsePrincipal inverts String, used by the parser for quoted literals and
// by the host façade for `sender` arguments.
func ParsePrincipal(s string) (Principal, error) {
	version, hash, err := address.Decode(s)
	if err != nil {
		return Principal{}, err
	}
	return Principal{Version: version, Hash160: hash}, nil
}
