// Package signer provides the shard-signature capability consumed by shard
// custody. The default FoldVerifier reproduces the legacy XOR-fold check
// bit-for-bit; hardened builds substitute Ed25519Verifier or
// Dilithium3Verifier without touching the custody protocol.
package signer

// Verifier checks a custodian's signature over shard data.
//
// pub is the custodian's public identity in whatever encoding the concrete
// verifier defines (raw address bytes for FoldVerifier, an "alg:base64" key
// string's raw bytes for the cryptographic verifiers).
type Verifier interface {
	Verify(data, sig, pub []byte) bool
}

// FoldVerifier implements the legacy check: the XOR-fold of the signature
// XORed with the XOR-fold of the public identity must equal the XOR-fold of
// the data. An empty signature never verifies. Tamper evidence only; any
// party can forge a passing signature.
type FoldVerifier struct{}

func (FoldVerifier) Verify(data, sig, pub []byte) bool {
	if len(sig) == 0 {
		return false
	}
	return foldXor(sig)^foldXor(pub) == foldXor(data)
}

// FoldSign produces a one-byte signature that satisfies FoldVerifier for the
// given data and public identity. It exists so tests and toy deployments can
// mint valid shard signatures; it proves possession of nothing.
func FoldSign(data, pub []byte) []byte {
	return []byte{foldXor(data) ^ foldXor(pub)}
}

func foldXor(b []byte) byte {
	var acc byte
	for _, v := range b {
		acc ^= v
	}
	return acc
}
