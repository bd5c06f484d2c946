package manifest

import (
	"xdao.co/ldcs/custody"
	"xdao.co/ldcs/docid"
)

// Document is a first-class manifest evidence object.
//
// Bytes are canonical manifest bytes. CID is derived from Bytes.
//
// A manifest is intentionally treated as a document (not ephemeral output) so
// it can be archived in the vault, inspected, and re-verified.
//
// Note: this is a lightweight wrapper; it does not add any trust semantics.
type Document struct {
	Bytes []byte
	CID   string
}

// NewDocumentFromBytes canonicalizes manifest bytes and computes the CID.
func NewDocumentFromBytes(manifestBytes []byte) (*Document, error) {
	canon, err := Canonicalize(manifestBytes)
	if err != nil {
		return nil, err
	}
	return &Document{Bytes: canon, CID: docid.CIDv1RawSHA256(canon)}, nil
}

// RenderDocument renders manifest bytes from a sharded document and returns a
// canonical Document (bytes + CID).
func RenderDocument(doc *custody.ShardedDocument, shardDataCIDs []string, opts RenderOptions) (*Document, error) {
	b, err := Render(doc, shardDataCIDs, opts)
	if err != nil {
		return nil, err
	}
	return NewDocumentFromBytes(b)
}
