package signer

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// Custodian key strings are "alg:base64(pubkey)", the same encoding used for
// issuer keys elsewhere in the xdao tooling. Supported algs: ed25519,
// dilithium3.

// PublicKeyBytes decodes an "alg:base64" key string and returns the alg name
// and raw public key bytes.
func PublicKeyBytes(keyString string) (string, []byte, error) {
	alg, enc, ok := strings.Cut(keyString, ":")
	if !ok {
		return "", nil, errors.New("signer: invalid key encoding")
	}
	pub, err := decodeBase64(enc)
	if err != nil {
		return "", nil, errors.New("signer: invalid key base64")
	}
	switch alg {
	case "ed25519":
		if len(pub) != ed25519.PublicKeySize {
			return "", nil, errors.New("signer: invalid ed25519 public key length")
		}
	case "dilithium3":
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return "", nil, errors.New("signer: invalid dilithium3 public key")
		}
	default:
		return "", nil, errors.New("signer: unsupported key encoding")
	}
	return alg, pub, nil
}

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, errors.New("signer: unsupported hash alg")
	}
}

// Ed25519Verifier verifies ed25519 signatures over hash(data).
type Ed25519Verifier struct {
	// HashAlg selects the pre-signing digest: sha256 (default when empty),
	// sha512, or sha3-256.
	HashAlg string
}

func (v Ed25519Verifier) Verify(data, sig, pub []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	digest, err := digestFor(v.hashAlg(), data)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), digest, sig)
}

func (v Ed25519Verifier) hashAlg() string {
	if v.HashAlg == "" {
		return "sha256"
	}
	return v.HashAlg
}

// SignEd25519 signs hash(data) with an ed25519 private key.
func SignEd25519(data []byte, hashAlg string, priv ed25519.PrivateKey) ([]byte, error) {
	if hashAlg == "" {
		hashAlg = "sha256"
	}
	digest, err := digestFor(hashAlg, data)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(priv, digest), nil
}

// Dilithium3Verifier verifies post-quantum dilithium3 signatures over
// hash(data).
type Dilithium3Verifier struct {
	HashAlg string
}

func (v Dilithium3Verifier) Verify(data, sig, pub []byte) bool {
	if len(sig) != mode3.SignatureSize {
		return false
	}
	var pk mode3.PublicKey
	if err := pk.UnmarshalBinary(pub); err != nil {
		return false
	}
	alg := v.HashAlg
	if alg == "" {
		alg = "sha256"
	}
	digest, err := digestFor(alg, data)
	if err != nil {
		return false
	}
	return mode3.Verify(&pk, digest, sig)
}

// SignDilithium3 signs hash(data) with a dilithium3 private key.
func SignDilithium3(data []byte, hashAlg string, priv *mode3.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, errors.New("signer: missing private key")
	}
	if hashAlg == "" {
		hashAlg = "sha256"
	}
	digest, err := digestFor(hashAlg, data)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(priv, digest, sig)
	return sig, nil
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
