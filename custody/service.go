package custody

import (
	"xdao.co/ldcs/docid"
	"xdao.co/ldcs/signer"
	"xdao.co/ldcs/sss"
)

// Service orchestrates the splitter and the custodian registry to produce
// and reconstruct sharded documents.
//
// The splitter is fixed at threshold == total == DataType.ShardCount():
// full shard collection is mandated by design, not a default to tune.
type Service struct {
	registry *Registry
	splitter sss.Splitter
	verifier signer.Verifier
	dataType DataType
}

// NewService builds an n-of-n custody service for a data type and coin type,
// using the legacy offset splitter and fold signature check.
func NewService(dataType DataType, coinType string) (*Service, error) {
	n := dataType.ShardCount()
	if n == 0 {
		return nil, newError(KindConfig, "LDCS-CUST-101", "unknown data type")
	}
	split, err := sss.NewOffsetSplitter(n, n)
	if err != nil {
		return nil, wrapError(KindConfig, "LDCS-CUST-102", "splitter construction failed", err)
	}
	return &Service{
		registry: NewRegistry(coinType),
		splitter: split,
		verifier: signer.FoldVerifier{},
		dataType: dataType,
	}, nil
}

// WithVerifier substitutes the shard-signature capability (e.g. a real
// ed25519 verifier) and returns the service for chaining.
func (s *Service) WithVerifier(v signer.Verifier) *Service {
	s.verifier = v
	return s
}

// WithSplitter substitutes the splitting capability. The splitter must keep
// threshold == total == DataType.ShardCount(); mismatched parameters are
// rejected.
func (s *Service) WithSplitter(split sss.Splitter) (*Service, error) {
	n := s.dataType.ShardCount()
	if split.Threshold() != n || split.Total() != n {
		return nil, newError(KindConfig, "LDCS-CUST-103", "splitter must be n-of-n for the data type")
	}
	s.splitter = split
	return s, nil
}

// Registry exposes the underlying custodian registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// DataType returns the service's data type.
func (s *Service) DataType() DataType {
	return s.dataType
}

// AddHolder registers a custodian in the underlying registry.
func (s *Service) AddHolder(address []byte, balance uint64, blockHeight uint64) {
	s.registry.AddHolder(address, balance, blockHeight)
}

// ShardDocument splits document bytes across the top-ranked custodians at a
// ledger height and returns the unsigned custody record.
//
// It fails when fewer custodians are registered than the data type's shard
// count: silently assigning fewer shards than TotalShards would break the
// n-of-n invariant.
func (s *Service) ShardDocument(document []byte, blockHeight uint64) (*ShardedDocument, error) {
	total := s.splitter.Total()
	holders := s.registry.TopNAtBlock(total, blockHeight)
	if len(holders) < total {
		return nil, newError(KindShard, "LDCS-CUST-201", "not enough custodians registered for the shard count")
	}
	shares := s.splitter.Split(document)

	shards := make([]DocumentShard, total)
	for i, share := range shares {
		shards[i] = DocumentShard{
			ShardID:       i,
			Data:          share,
			HolderAddress: holders[i].Address,
			BlockHeight:   blockHeight,
			CoinType:      s.registry.CoinType(),
			DataType:      s.dataType,
		}
	}

	return &ShardedDocument{
		DocumentID:     docid.FoldDigest(document),
		DataType:       s.dataType,
		TotalShards:    total,
		RequiredShards: s.splitter.Threshold(),
		Shards:         shards,
		BlockHeight:    blockHeight,
		CoinType:       s.registry.CoinType(),
	}, nil
}

// ReconstructDocument validates every collected shard and reassembles the
// document bytes.
//
// Fail-closed: a single shard with an unknown holder or an invalid signature
// fails the whole call even if enough otherwise-valid shards remain.
func (s *Service) ReconstructDocument(sharded *ShardedDocument, collected []DocumentShard) ([]byte, error) {
	if len(collected) < sharded.RequiredShards {
		return nil, newError(KindShard, "LDCS-CUST-301", "insufficient shards collected")
	}
	for i := range collected {
		shard := &collected[i]
		if _, ok := s.registry.VerifyHolderAtBlock(shard.HolderAddress, sharded.BlockHeight); !ok {
			return nil, newError(KindShard, "LDCS-CUST-302", "shard holder unknown at ledger height")
		}
		if !s.verifier.Verify(shard.Data, shard.Signature, shard.HolderAddress) {
			return nil, newError(KindShard, "LDCS-CUST-303", "invalid shard signature")
		}
	}

	shares := make([][]byte, len(collected))
	for i := range collected {
		shares[i] = collected[i].Data
	}
	out, err := s.splitter.Reconstruct(shares)
	if err != nil {
		return nil, wrapError(KindShard, "LDCS-CUST-304", "share reconstruction failed", err)
	}
	return out, nil
}
