package vault_test

import (
	"bytes"
	"testing"

	"xdao.co/ldcs/vault"
	"xdao.co/ldcs/vault/testkit"
)

func TestMultiStore_Conformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) vault.Store {
		t.Helper()
		return vault.MultiStore{Stores: []vault.Store{vault.NewMemory(), vault.NewMemory()}}
	})
}

func TestMultiStore_FallbackOrder(t *testing.T) {
	primary := vault.NewMemory()
	secondary := vault.NewMemory()
	m := vault.MultiStore{Stores: []vault.Store{primary, secondary}}

	// Object present only in the secondary store.
	want := []byte("only in secondary")
	id, err := secondary.Put(want)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if !m.Has(id) {
		t.Fatalf("Has: expected true via fallback")
	}
	got, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Get bytes mismatch")
	}

	// Put writes only to the first store.
	blob := []byte("write path")
	wid, err := m.Put(blob)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !primary.Has(wid) {
		t.Fatalf("primary missing object after MultiStore.Put")
	}
	if secondary.Has(wid) {
		t.Fatalf("secondary should not receive MultiStore.Put writes")
	}
}

func TestMultiStore_Empty(t *testing.T) {
	m := vault.MultiStore{}
	if _, err := m.Put([]byte("x")); err == nil {
		t.Fatalf("Put: expected error for empty MultiStore")
	}
}
