// Package witness implements the integrity commitment used to detect
// tampering with tier ciphertexts and sharded documents.
//
// A Witness binds a byte buffer to a short commitment at generation time.
// Verification recomputes the commitment over candidate bytes and compares
// equality. This is tamper evidence only: it provides no secrecy and no
// unforgeability. Hardened deployments substitute a cryptographic hash via
// the Scheme interface.
package witness

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"

	"golang.org/x/crypto/sha3"
)

// Scheme computes the 32-byte commitment for a witness.
//
// Implementations MUST be deterministic and side-effect free.
type Scheme interface {
	Commit(data []byte) [32]byte
}

// Witness is an integrity commitment plus extraction proof over a byte buffer.
type Witness struct {
	Commitment [32]byte
	Channels   []byte
	Proof      []byte

	scheme Scheme
}

// Generate builds a witness over data using the default FoldScheme.
func Generate(data, channels []byte) *Witness {
	return GenerateWith(FoldScheme{}, data, channels)
}

// GenerateWith builds a witness over data using an explicit commitment scheme.
//
// The proof is the element-wise XOR of data and channels, truncated to the
// shorter of the two. It is carried for downstream extraction checks and does
// not participate in Verify.
func GenerateWith(scheme Scheme, data, channels []byte) *Witness {
	n := len(data)
	if len(channels) < n {
		n = len(channels)
	}
	proof := make([]byte, n)
	for i := 0; i < n; i++ {
		proof[i] = data[i] ^ channels[i]
	}
	return &Witness{
		Commitment: scheme.Commit(data),
		Channels:   append([]byte(nil), channels...),
		Proof:      proof,
		scheme:     scheme,
	}
}

// Verify recomputes the commitment over candidate bytes and compares it to the
// stored commitment. A match means the bytes are the ones committed to; it
// does not mean the committer was honest.
func (w *Witness) Verify(candidate []byte) bool {
	if w == nil {
		return false
	}
	scheme := w.scheme
	if scheme == nil {
		scheme = FoldScheme{}
	}
	got := scheme.Commit(candidate)
	return subtle.ConstantTimeCompare(got[:], w.Commitment[:]) == 1
}

// FoldScheme is the legacy fold commitment: position-indexed XOR folding
// into a 32-byte accumulator. Existing commitments depend on this exact
// byte behavior.
type FoldScheme struct{}

func (FoldScheme) Commit(data []byte) [32]byte {
	var sum [32]byte
	for i, b := range data {
		sum[i%32] ^= b
	}
	return sum
}

// DigestScheme commits with a real cryptographic hash.
//
// Supported algorithms: sha256, sha512 (truncated to 32 bytes), sha3-256.
// An unknown algorithm falls back to sha256.
type DigestScheme struct {
	HashAlg string
}

func (d DigestScheme) Commit(data []byte) [32]byte {
	switch d.HashAlg {
	case "sha512":
		sum := sha512.Sum512(data)
		var out [32]byte
		copy(out[:], sum[:32])
		return out
	case "sha3-256":
		return sha3.Sum256(data)
	default:
		return sha256.Sum256(data)
	}
}
