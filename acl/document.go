package acl

import (
	"time"

	"xdao.co/ldcs/witness"
)

// ConfidentialDocument bundles a plaintext's nested tier ciphertexts, its
// access hierarchy, and one integrity witness per tier.
//
// Documents are created once and immutable thereafter. PublicData is the
// outermost blob; per the NestedCipher ordering it carries the cumulative
// mask of every non-Public tier, so it is "public" in position only.
type ConfidentialDocument struct {
	PublicData []byte
	Nested     *NestedCipher
	ACL        *LayeredACL
	Witnesses  []*witness.Witness
	Fee        uint64
	Timestamp  int64
}

// NewDocument seals plaintext under the hierarchy using the default fold
// commitment scheme.
func NewDocument(plaintext []byte, hierarchy *LayeredACL) *ConfidentialDocument {
	return NewDocumentWith(witness.FoldScheme{}, plaintext, hierarchy)
}

// NewDocumentWith seals plaintext with an explicit witness commitment scheme.
// Each tier's witness commits to that tier's blob with the tier index as its
// channel identifier.
func NewDocumentWith(scheme witness.Scheme, plaintext []byte, hierarchy *LayeredACL) *ConfidentialDocument {
	nested := EncryptNested(plaintext, hierarchy)
	witnesses := make([]*witness.Witness, len(nested.Layers))
	for i := range nested.Layers {
		witnesses[i] = witness.GenerateWith(scheme, nested.Layers[i], []byte{byte(i)})
	}
	return &ConfidentialDocument{
		PublicData: append([]byte(nil), nested.Layers[0]...),
		Nested:     nested,
		ACL:        hierarchy,
		Witnesses:  witnesses,
		Timestamp:  time.Now().Unix(),
	}
}

// AccessLayer returns the tier's bytes when the presented keys satisfy the
// tier's policy. The same key slice gates the policy check and feeds the
// cipher peel, so callers present tier keys positionally (index 0 unused).
func (d *ConfidentialDocument) AccessLayer(tier int, keys [][]byte) ([]byte, bool) {
	if !d.ACL.CanAccess(tier, keys) {
		return nil, false
	}
	return d.Nested.DecryptToLayer(tier, keys)
}

// VerifyLayer checks the stored witness against the stored blob for a tier.
//
// Both values originate from the same object, so this is an internal
// consistency check, not proof against an external tamperer who can rewrite
// blob and witness together.
func (d *ConfidentialDocument) VerifyLayer(tier int) bool {
	if tier < 0 || tier >= len(d.Witnesses) {
		return false
	}
	return d.Witnesses[tier].Verify(d.Nested.Layers[tier])
}
