package docid

import (
	"strings"
	"testing"
)

func TestCIDv1RawSHA256_Deterministic(t *testing.T) {
	a := CIDv1RawSHA256([]byte("confidential payload"))
	b := CIDv1RawSHA256([]byte("confidential payload"))
	if a == "" {
		t.Fatalf("empty CID")
	}
	if a != b {
		t.Fatalf("CID not deterministic: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "b") {
		t.Fatalf("expected base32 CIDv1, got %s", a)
	}
	if CIDv1RawSHA256([]byte("other payload")) == a {
		t.Fatalf("distinct payloads produced identical CIDs")
	}
}

func TestCIDv1RawSHA256CID_MatchesString(t *testing.T) {
	data := []byte("bytes")
	id, err := CIDv1RawSHA256CID(data)
	if err != nil {
		t.Fatalf("CIDv1RawSHA256CID: %v", err)
	}
	if id.String() != CIDv1RawSHA256(data) {
		t.Fatalf("cid mismatch between helpers")
	}
}

func TestFoldDigest(t *testing.T) {
	var want [32]byte
	if got := FoldDigest(nil); got != want {
		t.Fatalf("fold of empty input should be zero")
	}

	data := []byte("Confidential data")
	for i, b := range data {
		want[i%32] ^= b
	}
	if got := FoldDigest(data); got != want {
		t.Fatalf("fold digest mismatch")
	}

	// Bytes 32 positions apart cancel.
	cancel := make([]byte, 64)
	cancel[0], cancel[32] = 0xAA, 0xAA
	var zero [32]byte
	if got := FoldDigest(cancel); got != zero {
		t.Fatalf("expected positional cancellation")
	}
}
