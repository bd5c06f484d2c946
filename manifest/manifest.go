// Package manifest implements the canonical shard-manifest text format.
//
// A manifest binds a sharded document's custody metadata (document identity,
// sharding scheme, holder assignments, and shard payload CIDs) into a single
// canonical, content-addressable text document. Shard payloads themselves are
// not embedded; they live in the vault and are referenced by Data-CID.
package manifest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"xdao.co/ldcs/custody"
	"xdao.co/ldcs/docid"
	"xdao.co/ldcs/sss"
)

const (
	Preamble  = "-----BEGIN XDAO SHARD MANIFEST-----"
	Postamble = "-----END XDAO SHARD MANIFEST-----"
)

type RenderOptions struct {
	SealerID string
	SealedAt time.Time // informational only; zero means omit

	// Splitter is the scheme name that produced the shards. Reconstruction
	// must use the same scheme, so it is recorded in the DOCUMENT section.
	// Empty means sss.SchemeOffset.
	Splitter string

	// Optional manifest signing. If PrivateKey is set, the output will include
	// a CRYPTO section populated and Signature computed over the manifest
	// bytes excluding the Signature: line.
	SealerKey  string
	PrivateKey ed25519.PrivateKey
}

// ShardRef is one shard's custody record as carried by a manifest.
// Data is referenced by CID, never embedded.
type ShardRef struct {
	ShardID   int
	Holder    []byte
	Signature []byte
	DataCID   string
}

// Render produces a canonical manifest binding a sharded document to its
// shard payload CIDs. Sections are always present and ordering is
// deterministic: shardDataCIDs[i] is the vault CID for doc.Shards[i].Data.
func Render(doc *custody.ShardedDocument, shardDataCIDs []string, opts RenderOptions) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("nil sharded document")
	}
	if len(shardDataCIDs) != len(doc.Shards) {
		return nil, fmt.Errorf("shard CID count %d does not match shard count %d", len(shardDataCIDs), len(doc.Shards))
	}

	sealerID := opts.SealerID
	if sealerID == "" {
		sealerID = "xdao-ldcs-reference"
	}

	var sb strings.Builder
	sb.WriteString(Preamble)
	sb.WriteString("\n")

	// META
	sb.WriteString("META\n")
	metaLines := []string{
		"Sealer-ID: " + sealerID,
		"Spec: xdao-ldcs-manifest-1",
		"Version: 1",
	}
	if !opts.SealedAt.IsZero() {
		metaLines = append(metaLines, "Sealed-At: "+opts.SealedAt.UTC().Format(time.RFC3339))
	}
	sort.Strings(metaLines)
	for _, l := range metaLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	splitter := opts.Splitter
	if splitter == "" {
		splitter = sss.SchemeOffset
	}

	// DOCUMENT
	sb.WriteString("DOCUMENT\n")
	docLines := []string{
		"Block-Height: " + strconv.FormatUint(doc.BlockHeight, 10),
		"Data-Type: " + doc.DataType.String(),
		"Document-ID: " + hex.EncodeToString(doc.DocumentID[:]),
		"Required-Shards: " + strconv.Itoa(doc.RequiredShards),
		"Splitter: " + splitter,
		"Total-Shards: " + strconv.Itoa(doc.TotalShards),
	}
	if doc.CoinType != "" {
		docLines = append(docLines, "Coin-Type: "+doc.CoinType)
	}
	sort.Strings(docLines)
	for _, l := range docLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// SHARDS
	sb.WriteString("SHARDS\n")
	refs := make([]ShardRef, len(doc.Shards))
	for i, s := range doc.Shards {
		refs[i] = ShardRef{
			ShardID:   s.ShardID,
			Holder:    s.HolderAddress,
			Signature: s.Signature,
			DataCID:   shardDataCIDs[i],
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ShardID < refs[j].ShardID })
	for _, r := range refs {
		if r.DataCID == "" {
			return nil, fmt.Errorf("shard %d missing Data-CID", r.ShardID)
		}
		sb.WriteString("Shard-ID: ")
		sb.WriteString(strconv.Itoa(r.ShardID))
		sb.WriteString("\n")
		sb.WriteString("Data-CID: ")
		sb.WriteString(r.DataCID)
		sb.WriteString("\n")
		sb.WriteString("Holder: ")
		sb.WriteString(hex.EncodeToString(r.Holder))
		sb.WriteString("\n")
		if len(r.Signature) > 0 {
			sb.WriteString("Signature: ")
			sb.WriteString(base64.StdEncoding.EncodeToString(r.Signature))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")

	// CRYPTO (empty when the manifest is unsigned)
	sb.WriteString("CRYPTO\n")
	cryptoLines := []string{}
	if opts.SealerKey != "" {
		cryptoLines = append(cryptoLines,
			"Hash-Alg: sha256",
			"Sealer-Key: "+opts.SealerKey,
			"Signature-Alg: ed25519",
			"Signature: 0",
		)
	}
	sort.Strings(cryptoLines)
	for _, l := range cryptoLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(Postamble)
	sb.WriteString("\n")
	out := []byte(sb.String())

	if len(opts.PrivateKey) > 0 && opts.SealerKey != "" {
		sig, err := signManifest(out, opts.PrivateKey)
		if err == nil {
			out = []byte(strings.Replace(string(out), "Signature: 0", "Signature: "+sig, 1))
		}
	}

	return out, nil
}

// RenderSigned renders a manifest with a required ed25519 signature.
//
// Unlike Render, this fails explicitly if signing cannot be performed.
func RenderSigned(doc *custody.ShardedDocument, shardDataCIDs []string, opts RenderOptions) ([]byte, error) {
	if opts.SealerKey == "" {
		return nil, errors.New("signing requires SealerKey")
	}
	if len(opts.PrivateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("signing requires an ed25519 private key")
	}
	b, err := Render(doc, shardDataCIDs, opts)
	if err != nil {
		return nil, err
	}
	signed, err := VerifySignature(b)
	if err != nil {
		return nil, err
	}
	if !signed {
		return nil, errors.New("signing failed")
	}
	return b, nil
}

// DataCIDFor returns the CIDv1 (raw + sha2-256) for one shard payload,
// suitable for the manifest Data-CID field and vault storage.
func DataCIDFor(shardData []byte) string {
	return docid.CIDv1RawSHA256(shardData)
}

func signManifest(manifestBytes []byte, privateKey ed25519.PrivateKey) (string, error) {
	scope, err := manifestSignatureScope(manifestBytes)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(scope)
	sig := ed25519.Sign(privateKey, digest[:])
	return base64.StdEncoding.EncodeToString(sig), nil
}

func manifestSignatureScope(manifestBytes []byte) ([]byte, error) {
	lines := strings.Split(string(manifestBytes), "\n")
	var out []string
	removed := false
	inCrypto := false
	for _, l := range lines {
		switch l {
		case "CRYPTO":
			inCrypto = true
		case "":
			inCrypto = false
		}
		if inCrypto && strings.HasPrefix(l, "Signature: ") {
			if removed {
				return nil, errors.New("multiple Signature lines")
			}
			removed = true
			continue
		}
		out = append(out, l)
	}
	if !removed {
		return nil, errors.New("missing Signature line")
	}
	return []byte(strings.Join(out, "\n")), nil
}
