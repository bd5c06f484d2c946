package manifest

import (
	"fmt"

	"xdao.co/ldcs/custody"
	"xdao.co/ldcs/docid"
)

// CID returns an IPFS-compatible CIDv1 (raw + sha2-256) for manifest bytes.
//
// Manifests must be canonical before CID derivation. If input is not
// canonical, this function fails.
func CID(manifestBytes []byte) (string, error) {
	canon, err := Canonicalize(manifestBytes)
	if err != nil {
		return "", fmt.Errorf("canonical manifest required: %w", err)
	}
	return docid.CIDv1RawSHA256(canon), nil
}

// RenderWithCID renders a manifest and returns its CID.
func RenderWithCID(doc *custody.ShardedDocument, shardDataCIDs []string, opts RenderOptions) ([]byte, string, error) {
	b, err := Render(doc, shardDataCIDs, opts)
	if err != nil {
		return nil, "", err
	}
	id, err := CID(b)
	if err != nil {
		return nil, "", err
	}
	return b, id, nil
}

// RenderSignedWithCID renders a manifest with a required ed25519 signature
// and returns its CID.
func RenderSignedWithCID(doc *custody.ShardedDocument, shardDataCIDs []string, opts RenderOptions) ([]byte, string, error) {
	b, err := RenderSigned(doc, shardDataCIDs, opts)
	if err != nil {
		return nil, "", err
	}
	id, err := CID(b)
	if err != nil {
		return nil, "", err
	}
	return b, id, nil
}
