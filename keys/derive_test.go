package keys

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"

	"xdao.co/ldcs/acl"
)

func TestDeriveTierSeedDeterministic(t *testing.T) {
	root := make([]byte, ed25519.SeedSize)
	for i := range root {
		root[i] = byte(i)
	}

	a, err := DeriveTierSeed(root, "internal")
	if err != nil {
		t.Fatalf("DeriveTierSeed: %v", err)
	}
	b, err := DeriveTierSeed(root, "internal")
	if err != nil {
		t.Fatalf("DeriveTierSeed: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected deterministic derivation")
	}

	c, err := DeriveTierSeed(root, "secret")
	if err != nil {
		t.Fatalf("DeriveTierSeed: %v", err)
	}
	if string(a) == string(c) {
		t.Fatalf("expected different tiers to derive different seeds")
	}
}

func TestDeriveTierCipherKeyDistinctFromSeed(t *testing.T) {
	root := make([]byte, ed25519.SeedSize)
	for i := range root {
		root[i] = byte(i)
	}

	seed, err := DeriveTierSeed(root, "secret")
	if err != nil {
		t.Fatalf("DeriveTierSeed: %v", err)
	}
	key, err := DeriveTierCipherKey(root, "secret")
	if err != nil {
		t.Fatalf("DeriveTierCipherKey: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("cipher key length: got %d want 32", len(key))
	}
	if string(seed) == string(key[:len(seed)]) {
		t.Fatalf("cipher key must not coincide with signing seed")
	}

	again, err := DeriveTierCipherKey(root, "secret")
	if err != nil {
		t.Fatalf("DeriveTierCipherKey: %v", err)
	}
	if string(key) != string(again) {
		t.Fatalf("expected deterministic derivation")
	}
}

func TestGenerateCustodianKeyFromSeedFormat(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = 0x42
	}
	custodianKey := GenerateCustodianKeyFromSeed(seed)
	if !strings.HasPrefix(custodianKey, "ed25519:") {
		t.Fatalf("expected ed25519 prefix, got %q", custodianKey)
	}
	b64 := strings.TrimPrefix(custodianKey, "ed25519:")
	pubBytes, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("expected valid base64: %v", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		t.Fatalf("expected %d pubkey bytes, got %d", ed25519.PublicKeySize, len(pubBytes))
	}
}

func TestDeriveTierCipherKeySealsTier(t *testing.T) {
	root := make([]byte, ed25519.SeedSize)
	for i := range root {
		root[i] = byte(0x40 + i)
	}
	cipherKey, err := DeriveTierCipherKey(root, "secret")
	if err != nil {
		t.Fatalf("DeriveTierCipherKey: %v", err)
	}

	hierarchy := acl.New(nil)
	if _, err := hierarchy.AddLayerStrict(acl.Secret, [][]byte{cipherKey}, 1, cipherKey); err != nil {
		t.Fatalf("AddLayerStrict: %v", err)
	}

	plaintext := []byte("custodian-only payload")
	doc := acl.NewDocument(plaintext, hierarchy)
	got, ok := doc.AccessLayer(1, [][]byte{nil, cipherKey})
	if !ok {
		t.Fatalf("derived cipher key must open its tier")
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("tier bytes differ from plaintext")
	}
	if _, ok := doc.AccessLayer(1, [][]byte{nil, []byte("wrong key")}); ok {
		t.Fatalf("wrong key must not open the tier")
	}
}
