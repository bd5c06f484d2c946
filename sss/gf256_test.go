package sss

import (
	"bytes"
	"errors"
	"testing"
)

func TestGFTables(t *testing.T) {
	// exp/log are inverse permutations.
	for v := 1; v < 256; v++ {
		if gfExp[gfLog[byte(v)]] != byte(v) {
			t.Fatalf("exp(log(%d)) = %d", v, gfExp[gfLog[byte(v)]])
		}
	}
	// Field axioms spot checks.
	if gfMul(0, 0xFF) != 0 || gfMul(1, 0xAB) != 0xAB {
		t.Fatalf("gfMul identity/zero broken")
	}
	for v := 1; v < 256; v++ {
		if gfMul(byte(v), gfInv(byte(v))) != 1 {
			t.Fatalf("inverse broken for %d", v)
		}
	}
	// Commutativity sample.
	if gfMul(0x53, 0xCA) != gfMul(0xCA, 0x53) {
		t.Fatalf("gfMul not commutative")
	}
	// Known AES value: 0x53 * 0xCA = 0x01.
	if gfMul(0x53, 0xCA) != 0x01 {
		t.Fatalf("gfMul(0x53, 0xCA) = %#x, want 0x01", gfMul(0x53, 0xCA))
	}
}

func TestGF256RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 16, 256} {
		secret := make([]byte, n)
		for i := range secret {
			secret[i] = byte(i*31 + 7)
		}
		s, err := NewGF256Splitter(3, 5)
		if err != nil {
			t.Fatalf("NewGF256Splitter: %v", err)
		}
		shares := s.Split(secret)
		if len(shares) != 5 {
			t.Fatalf("len(shares) = %d", len(shares))
		}
		got, err := s.Reconstruct(shares[:3])
		if err != nil {
			t.Fatalf("Reconstruct: %v", err)
		}
		if !bytes.Equal(got, secret) {
			t.Fatalf("n=%d round trip mismatch", n)
		}
	}
}

func TestGF256ArbitrarySubsets(t *testing.T) {
	secret := []byte("subset independent recovery")
	s, err := NewGF256Splitter(3, 6)
	if err != nil {
		t.Fatalf("NewGF256Splitter: %v", err)
	}
	shares := s.Split(secret)

	subsets := [][]int{
		{0, 1, 2},
		{3, 4, 5},
		{5, 0, 3},
		{2, 4, 1},
	}
	for _, idx := range subsets {
		subset := [][]byte{shares[idx[0]], shares[idx[1]], shares[idx[2]]}
		got, err := s.Reconstruct(subset)
		if err != nil {
			t.Fatalf("subset %v: %v", idx, err)
		}
		if !bytes.Equal(got, secret) {
			t.Fatalf("subset %v did not recover the secret", idx)
		}
	}
}

func TestGF256Failures(t *testing.T) {
	s, err := NewGF256Splitter(2, 3)
	if err != nil {
		t.Fatalf("NewGF256Splitter: %v", err)
	}
	shares := s.Split([]byte("x"))

	if _, err := s.Reconstruct(shares[:1]); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("want ErrInsufficientShares, got %v", err)
	}
	dup := [][]byte{shares[0], shares[0]}
	if _, err := s.Reconstruct(dup); err == nil {
		t.Fatalf("duplicate indices must be rejected")
	}
	bad := [][]byte{shares[0], append([]byte(nil), shares[1][:1]...)}
	if _, err := s.Reconstruct(bad); !errors.Is(err, ErrShareLength) {
		t.Fatalf("want ErrShareLength, got %v", err)
	}
}

func TestGF256ConstructionValidation(t *testing.T) {
	if _, err := NewGF256Splitter(2, 300); RuleID(err) != "LDCS-SSS-103" {
		t.Fatalf("total > 255: got %v", err)
	}
	if _, err := NewGF256Splitter(0, 3); RuleID(err) != "LDCS-SSS-101" {
		t.Fatalf("zero threshold: got %v", err)
	}
}
