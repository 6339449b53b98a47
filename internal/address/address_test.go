package address

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		version byte
		hash    [20]byte
	}{
		{"zero hash", 0x00, [20]byte{}},
		{"mainnet-ish version", 0x16, [20]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}},
		{"max bytes", 0xff, [20]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(tt.version, tt.hash)
			version, hash, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode(%q) returned error: %v", encoded, err)
			}
			if version != tt.version {
				t.Errorf("version: got %#x, want %#x", version, tt.version)
			}
			if hash != tt.hash {
				t.Errorf("hash: got %v, want %v", hash, tt.hash)
			}
		})
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	encoded := Encode(0x16, [20]byte{1, 2, 3})
	corrupted := []rune(encoded)
	if corrupted[0] == 'Z' {
		corrupted[0] = 'Y'
	} else {
		corrupted[0] = 'Z'
	}
	if _, _, err := Decode(string(corrupted)); err == nil {
		t.Fatal("expected checksum failure on corrupted address, got nil error")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := Decode("not-a-valid-address!!"); err == nil {
		t.Fatal("expected error decoding garbage input, got nil")
	}
}
