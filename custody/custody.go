// Package custody tracks stake-weighted custodians and splits confidential
// documents into shards assigned to the top-ranked custodians at a ledger
// height. Document reconstruction is fail-closed: every collected shard must
// carry a valid custodian signature or the whole call fails.
package custody

// DataType maps a domain category to its fixed shard count. The counts are
// structural constants: externally meaningful, opaque to the algorithm.
type DataType int

const (
	Boolean    DataType = iota // 2 shards
	Quaternion                 // 4 shards
	Octonion                   // 8 shards
	MathieuM24                 // 24 shards
	Genetic                    // 64 shards
	RDFa                       // 71 shards
	IPv6                       // 128 shards
	Byte                       // 256 shards
	Monster                    // 196,883 shards
)

// GandalfShards is the sporadic-group threshold used by the RDFa data type.
const GandalfShards = 71

// ShardCount returns the fixed shard count for the data type.
func (d DataType) ShardCount() int {
	switch d {
	case Boolean:
		return 2
	case Quaternion:
		return 4
	case Octonion:
		return 8
	case MathieuM24:
		return 24
	case Genetic:
		return 64
	case RDFa:
		return GandalfShards
	case IPv6:
		return 128
	case Byte:
		return 256
	case Monster:
		return 196_883
	default:
		return 0
	}
}

// Structure names the mathematical structure behind the shard count.
func (d DataType) Structure() string {
	switch d {
	case Boolean:
		return "XOR secret sharing"
	case Quaternion:
		return "Quaternion decomposition"
	case Octonion:
		return "Octonion decomposition"
	case MathieuM24:
		return "Golay code"
	case Genetic:
		return "Codon-based splitting"
	case RDFa:
		return "Sporadic group threshold"
	case IPv6:
		return "Bit-level decomposition"
	case Byte:
		return "Byte-level splitting"
	case Monster:
		return "Minimal representation"
	default:
		return "unknown"
	}
}

func (d DataType) String() string {
	switch d {
	case Boolean:
		return "boolean"
	case Quaternion:
		return "quaternion"
	case Octonion:
		return "octonion"
	case MathieuM24:
		return "mathieu-m24"
	case Genetic:
		return "genetic"
	case RDFa:
		return "rdfa"
	case IPv6:
		return "ipv6"
	case Byte:
		return "byte"
	case Monster:
		return "monster"
	default:
		return "unknown"
	}
}

// ParseDataType maps a data type name to its DataType. The second return is
// false for unknown names.
func ParseDataType(s string) (DataType, bool) {
	for _, d := range []DataType{Boolean, Quaternion, Octonion, MathieuM24, Genetic, RDFa, IPv6, Byte, Monster} {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

// Custodian is a stake-ranked account eligible for shard custody.
// Rank is assigned at query time by Registry.TopNAtBlock.
type Custodian struct {
	Address     []byte
	Balance     uint64
	Rank        int
	BlockHeight uint64
}

// DocumentShard is one fragment of a secret-split document assigned to a
// custodian. Shards are emitted unsigned; signing is the custodian's
// responsibility.
type DocumentShard struct {
	ShardID       int
	Data          []byte
	HolderAddress []byte
	Signature     []byte
	BlockHeight   uint64
	CoinType      string
	DataType      DataType
}

// ShardedDocument is the custody record for one split document.
//
// Invariant: len(Shards) == TotalShards == DataType.ShardCount() at creation,
// and RequiredShards == TotalShards by construction: the scheme is n-of-n,
// with no fault tolerance for missing shards.
type ShardedDocument struct {
	DocumentID     [32]byte
	DataType       DataType
	TotalShards    int
	RequiredShards int
	Shards         []DocumentShard
	BlockHeight    uint64
	CoinType       string
}
