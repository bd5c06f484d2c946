// Package vault provides content-addressed persistence for sealed artifacts:
// tier ciphertext blobs, shard payloads, and shard manifests. Objects are
// immutable and keyed strictly by CIDv1 (raw + sha2-256) derived from their
// bytes, so custody transfers can be verified end to end.
package vault

import "github.com/ipfs/go-cid"

// Store is the minimal sealed-artifact storage interface.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written.
// - Get MUST return ErrNotFound when the CID is absent.
type Store interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
