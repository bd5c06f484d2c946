package manifest

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"xdao.co/ldcs/custody"
	"xdao.co/ldcs/sss"
)

// Manifest is the parsed form of a canonical shard manifest.
type Manifest struct {
	SealerID string
	SealedAt string // RFC3339, empty when absent

	DocumentID     [32]byte
	DataType       custody.DataType
	TotalShards    int
	RequiredShards int
	BlockHeight    uint64
	CoinType       string
	Splitter       string // scheme name; never empty after Parse

	Shards []ShardRef

	SealerKey string // empty when the manifest is unsigned
}

// Parse canonicalizes manifest bytes and extracts the custody metadata.
//
// Parse does not verify the CRYPTO signature; use VerifySignature for that.
func Parse(manifestBytes []byte) (*Manifest, error) {
	canon, err := Canonicalize(manifestBytes)
	if err != nil {
		return nil, fmt.Errorf("canonical manifest required: %w", err)
	}

	m := &Manifest{}

	metaLines, err := sectionLines(canon, "META")
	if err != nil {
		return nil, err
	}
	m.SealerID, _ = fieldValue(metaLines, "Sealer-ID")
	m.SealedAt, _ = fieldValue(metaLines, "Sealed-At")

	docLines, err := sectionLines(canon, "DOCUMENT")
	if err != nil {
		return nil, err
	}
	idHex, _ := fieldValue(docLines, "Document-ID")
	idBytes, err := hex.DecodeString(idHex)
	if err != nil || len(idBytes) != len(m.DocumentID) {
		return nil, errors.New("DOCUMENT: invalid Document-ID")
	}
	copy(m.DocumentID[:], idBytes)

	typeName, _ := fieldValue(docLines, "Data-Type")
	dt, ok := custody.ParseDataType(typeName)
	if !ok {
		return nil, fmt.Errorf("DOCUMENT: unknown Data-Type %q", typeName)
	}
	m.DataType = dt

	totalStr, _ := fieldValue(docLines, "Total-Shards")
	m.TotalShards, err = strconv.Atoi(totalStr)
	if err != nil || m.TotalShards < 0 {
		return nil, errors.New("DOCUMENT: invalid Total-Shards")
	}
	reqStr, _ := fieldValue(docLines, "Required-Shards")
	m.RequiredShards, err = strconv.Atoi(reqStr)
	if err != nil || m.RequiredShards < 0 {
		return nil, errors.New("DOCUMENT: invalid Required-Shards")
	}
	heightStr, _ := fieldValue(docLines, "Block-Height")
	m.BlockHeight, err = strconv.ParseUint(heightStr, 10, 64)
	if err != nil {
		return nil, errors.New("DOCUMENT: invalid Block-Height")
	}
	m.CoinType, _ = fieldValue(docLines, "Coin-Type")
	// Manifests predating the Splitter field used the offset scheme.
	m.Splitter, _ = fieldValue(docLines, "Splitter")
	if m.Splitter == "" {
		m.Splitter = sss.SchemeOffset
	}

	shardLines, err := sectionLines(canon, "SHARDS")
	if err != nil {
		return nil, err
	}
	m.Shards, err = parseShards(shardLines)
	if err != nil {
		return nil, err
	}
	if len(m.Shards) != m.TotalShards {
		return nil, fmt.Errorf("SHARDS: %d records but Total-Shards=%d", len(m.Shards), m.TotalShards)
	}

	cryptoLines, err := sectionLines(canon, "CRYPTO")
	if err != nil {
		return nil, err
	}
	m.SealerKey, _ = fieldValue(cryptoLines, "Sealer-Key")

	return m, nil
}

func parseShards(body []string) ([]ShardRef, error) {
	var out []ShardRef
	i := 0
	for i < len(body) {
		if !strings.HasPrefix(body[i], "Shard-ID: ") {
			return nil, errors.New("SHARDS: expected Shard-ID")
		}
		id, err := strconv.Atoi(strings.TrimPrefix(body[i], "Shard-ID: "))
		if err != nil {
			return nil, errors.New("SHARDS: invalid Shard-ID")
		}
		ref := ShardRef{ShardID: id}
		i++

		if i >= len(body) || !strings.HasPrefix(body[i], "Data-CID: ") {
			return nil, errors.New("SHARDS: expected Data-CID")
		}
		ref.DataCID = strings.TrimPrefix(body[i], "Data-CID: ")
		i++

		if i >= len(body) || !strings.HasPrefix(body[i], "Holder: ") {
			return nil, errors.New("SHARDS: expected Holder")
		}
		holder, err := hex.DecodeString(strings.TrimPrefix(body[i], "Holder: "))
		if err != nil {
			return nil, errors.New("SHARDS: invalid Holder")
		}
		ref.Holder = holder
		i++

		if i < len(body) && strings.HasPrefix(body[i], "Signature: ") {
			sig, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(body[i], "Signature: "))
			if err != nil {
				return nil, errors.New("SHARDS: invalid Signature")
			}
			ref.Signature = sig
			i++
		}

		out = append(out, ref)
	}
	return out, nil
}
