package acl

import (
	"bytes"
	"testing"

	"xdao.co/ldcs/witness"
)

func sealedFixture(t *testing.T) (*ConfidentialDocument, []byte, []byte) {
	t.Helper()
	key := []byte{10, 20, 30}
	plaintext := []byte("Layered data")
	a := New([]byte{1, 2, 3})
	a.AddLayer(Authenticated, [][]byte{key}, 1, key)
	return NewDocument(plaintext, a), plaintext, key
}

func TestNewDocumentShape(t *testing.T) {
	doc, _, _ := sealedFixture(t)
	if doc.Nested.LayerCount() != 2 {
		t.Fatalf("expected 2 blobs, got %d", doc.Nested.LayerCount())
	}
	if len(doc.Witnesses) != 2 {
		t.Fatalf("expected one witness per tier, got %d", len(doc.Witnesses))
	}
	if !bytes.Equal(doc.PublicData, doc.Nested.Layers[0]) {
		t.Fatalf("PublicData must mirror blob[0]")
	}
}

func TestAccessLayer(t *testing.T) {
	doc, plaintext, key := sealedFixture(t)

	if _, ok := doc.AccessLayer(0, nil); !ok {
		t.Fatalf("public tier must be accessible without keys")
	}
	if _, ok := doc.AccessLayer(1, nil); ok {
		t.Fatalf("gated tier must not open without keys")
	}
	got, ok := doc.AccessLayer(1, [][]byte{nil, key})
	if !ok {
		t.Fatalf("gated tier must open with its key")
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("AccessLayer = %x, want plaintext", got)
	}
	if _, ok := doc.AccessLayer(2, [][]byte{nil, key}); ok {
		t.Fatalf("out-of-range tier must not open")
	}
}

func TestVerifyLayer(t *testing.T) {
	doc, _, _ := sealedFixture(t)

	for i := 0; i < doc.Nested.LayerCount(); i++ {
		if !doc.VerifyLayer(i) {
			t.Fatalf("tier %d witness should verify", i)
		}
	}
	if doc.VerifyLayer(2) {
		t.Fatalf("out-of-range tier must not verify")
	}
	if doc.VerifyLayer(-1) {
		t.Fatalf("negative tier must not verify")
	}

	// Corrupting a blob breaks its witness.
	doc.Nested.Layers[1][0] ^= 0xFF
	if doc.VerifyLayer(1) {
		t.Fatalf("corrupted blob must fail witness verification")
	}
}

func TestNewDocumentWithDigestScheme(t *testing.T) {
	key := []byte{7, 7, 7}
	a := New([]byte("owner"))
	a.AddLayer(Private, [][]byte{key}, 1, key)

	doc := NewDocumentWith(witness.DigestScheme{HashAlg: "sha3-256"}, []byte("hardened"), a)
	for i := 0; i < 2; i++ {
		if !doc.VerifyLayer(i) {
			t.Fatalf("tier %d should verify under sha3-256", i)
		}
	}
	doc.Nested.Layers[0][0] ^= 1
	if doc.VerifyLayer(0) {
		t.Fatalf("tampered blob must fail under sha3-256")
	}
}
