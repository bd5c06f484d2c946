package manifest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// VerifySignature verifies the manifest CRYPTO signature, if present.
//
// Returns (true, nil) if the manifest is signed and the signature verifies.
// Returns (false, nil) if the manifest is not signed (empty CRYPTO section).
// Returns (false, err) for malformed, non-canonical, or invalid signatures.
//
// Verification requires canonical manifest bytes; non-canonical inputs are
// rejected.
func VerifySignature(manifestBytes []byte) (bool, error) {
	canon, err := Canonicalize(manifestBytes)
	if err != nil {
		return false, fmt.Errorf("canonical manifest required: %w", err)
	}

	cryptoLines, err := sectionLines(canon, "CRYPTO")
	if err != nil {
		return false, err
	}
	if len(cryptoLines) == 0 {
		return false, nil
	}

	sigAlg, hasAlg := fieldValue(cryptoLines, "Signature-Alg")
	hashAlg, hasHash := fieldValue(cryptoLines, "Hash-Alg")
	sealerKey, hasKey := fieldValue(cryptoLines, "Sealer-Key")
	sigB64, hasSig := fieldValue(cryptoLines, "Signature")

	// Partially populated CRYPTO is invalid.
	if !(hasKey && hasAlg && hasHash && hasSig) {
		return false, errors.New("CRYPTO: incomplete signature fields")
	}
	if sigAlg != "ed25519" {
		return false, fmt.Errorf("CRYPTO: unsupported Signature-Alg %q", sigAlg)
	}
	if hashAlg != "sha256" {
		return false, fmt.Errorf("CRYPTO: unsupported Hash-Alg %q", hashAlg)
	}

	pub, err := parseEd25519PublicKey(sealerKey)
	if err != nil {
		return false, err
	}

	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, fmt.Errorf("CRYPTO: invalid Signature encoding: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return false, errors.New("CRYPTO: invalid Signature length")
	}

	scope, err := manifestSignatureScope(canon)
	if err != nil {
		return false, err
	}
	digest := sha256.Sum256(scope)
	if !ed25519.Verify(pub, digest[:], sig) {
		return false, errors.New("CRYPTO: signature did not verify")
	}
	return true, nil
}

func parseEd25519PublicKey(s string) (ed25519.PublicKey, error) {
	const prefix = "ed25519:"
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("CRYPTO: unsupported Sealer-Key %q", s)
	}
	b64 := strings.TrimPrefix(s, prefix)
	b, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("CRYPTO: invalid Sealer-Key encoding: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, errors.New("CRYPTO: invalid Sealer-Key length")
	}
	return ed25519.PublicKey(b), nil
}

func sectionLines(manifestBytes []byte, section string) ([]string, error) {
	lines := strings.Split(string(manifestBytes), "\n")
	idx := -1
	for i, l := range lines {
		if l == section {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("missing section %q", section)
	}
	var out []string
	for i := idx + 1; i < len(lines); i++ {
		l := lines[i]
		if l == "" {
			break
		}
		out = append(out, l)
	}
	return out, nil
}

func fieldValue(lines []string, key string) (string, bool) {
	prefix := key + ": "
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return strings.TrimPrefix(l, prefix), true
		}
	}
	return "", false
}
