// Package address is the address-encoding collaborator named in spec §6.3:
// "Principals are encoded as a version byte plus a 20-byte hash using a
// Base-32 variant; collaborator provides encode(version, bytes20) -> string
// and inverse." No corpus repo specifies a concrete alphabet for this
// encoding (spec §3 treats it as an external, documented-interface-only
// collaborator), so this is a self-contained Crockford-style Base-32 codec:
// stable and bit-exact for round-tripping within this module, but not
// claimed to match any particular chain's real address format.
package address

import (
	"crypto/sha256"
	"errors"
	"strings"
)

const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var alphabetIndex = func() map[byte]byte {
	m := make(map[byte]byte, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		m[alphabet[i]] = byte(i)
	}
	return m
}()

// checksum derives a 4-byte checksum over the version byte and hash, the
// same shape a real base58check/c32check address uses to detect typos.
func checksum(version byte, hash [20]byte) []byte {
	buf := make([]byte, 0, 21)
	buf = append(buf, version)
	buf = append(buf, hash[:]...)
	sum := sha256.Sum256(buf)
	sum2 := sha256.Sum256(sum[:])
	return sum2[:4]
}

// Encode renders (version, hash20) as a Base-32 principal string.
func Encode(version byte, hash [20]byte) string {
	payload := make([]byte, 0, 25)
	payload = append(payload, version)
	payload = append(payload, hash[:]...)
	payload = append(payload, checksum(version, hash)...)
	return base32Encode(payload)
}

// Decode inverts Encode, validating the checksum.
func Decode(s string) (version byte, hash [20]byte, err error) {
	payload, err := base32Decode(s)
	if err != nil {
		return 0, hash, err
	}
	if len(payload) != 25 {
		return 0, hash, errors.New("address: malformed principal length")
	}
	version = payload[0]
	copy(hash[:], payload[1:21])
	want := checksum(version, hash)
	if string(payload[21:]) != string(want) {
		return 0, hash, errors.New("address: checksum mismatch")
	}
	return version, hash, nil
}

func base32Encode(data []byte) string {
	var sb strings.Builder
	var acc uint32
	bits := 0
	for _, b := range data {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			sb.WriteByte(alphabet[(acc>>uint(bits))&0x1f])
		}
	}
	if bits > 0 {
		sb.WriteByte(alphabet[(acc<<uint(5-bits))&0x1f])
	}
	return sb.String()
}

func base32Decode(s string) ([]byte, error) {
	var acc uint32
	bits := 0
	out := make([]byte, 0, len(s)*5/8+1)
	for i := 0; i < len(s); i++ {
		idx, ok := alphabetIndex[s[i]]
		if !ok {
			return nil, errors.New("address: invalid character in principal")
		}
		acc = acc<<5 | uint32(idx)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte((acc>>uint(bits))&0xff))
		}
	}
	return out, nil
}
