package custody

import (
	"bytes"
	"testing"

	"xdao.co/ldcs/docid"
	"xdao.co/ldcs/signer"
	"xdao.co/ldcs/sss"
)

func TestDataTypeShardCounts(t *testing.T) {
	cases := map[DataType]int{
		Boolean:    2,
		Quaternion: 4,
		Octonion:   8,
		MathieuM24: 24,
		Genetic:    64,
		RDFa:       71,
		IPv6:       128,
		Byte:       256,
		Monster:    196_883,
	}
	for d, want := range cases {
		if got := d.ShardCount(); got != want {
			t.Fatalf("%s.ShardCount() = %d, want %d", d, got, want)
		}
		parsed, ok := ParseDataType(d.String())
		if !ok || parsed != d {
			t.Fatalf("ParseDataType(%q) = %v,%v", d.String(), parsed, ok)
		}
	}
	if DataType(99).ShardCount() != 0 {
		t.Fatalf("unknown data type must have zero shard count")
	}
	if _, ok := ParseDataType("dodecahedron"); ok {
		t.Fatalf("unknown name must not parse")
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(DataType(99), "TEST"); RuleID(err) != "LDCS-CUST-101" {
		t.Fatalf("unknown data type: got %v", err)
	}
	s, err := NewService(RDFa, "ERDFA")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if s.DataType() != RDFa {
		t.Fatalf("DataType = %v", s.DataType())
	}
}

func octonionService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(Octonion, "TEST")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	balances := []uint64{1000, 500, 2000, 1500, 800, 1200, 900, 1100}
	for i, b := range balances {
		s.AddHolder([]byte{byte(i + 1)}, b, 100)
	}
	return s
}

func TestShardDocumentScenario(t *testing.T) {
	s := octonionService(t)
	document := []byte("Confidential data")

	sharded, err := s.ShardDocument(document, 100)
	if err != nil {
		t.Fatalf("ShardDocument: %v", err)
	}
	if sharded.TotalShards != 8 || sharded.RequiredShards != 8 {
		t.Fatalf("shards = %d/%d, want 8/8", sharded.TotalShards, sharded.RequiredShards)
	}
	if len(sharded.Shards) != 8 {
		t.Fatalf("len(Shards) = %d", len(sharded.Shards))
	}
	if sharded.DataType != Octonion || sharded.CoinType != "TEST" || sharded.BlockHeight != 100 {
		t.Fatalf("document metadata: %+v", sharded)
	}
	if sharded.DocumentID != docid.FoldDigest(document) {
		t.Fatalf("DocumentID mismatch")
	}

	// Shard 0 goes to the top-ranked custodian (balance 2000, address 3).
	if !bytes.Equal(sharded.Shards[0].HolderAddress, []byte{3}) {
		t.Fatalf("shard 0 holder = %v, want top custodian", sharded.Shards[0].HolderAddress)
	}
	for i, shard := range sharded.Shards {
		if shard.ShardID != i {
			t.Fatalf("shard %d has id %d", i, shard.ShardID)
		}
		if len(shard.Signature) != 0 {
			t.Fatalf("shards must be emitted unsigned")
		}
		if shard.DataType != Octonion || shard.CoinType != "TEST" || shard.BlockHeight != 100 {
			t.Fatalf("shard metadata: %+v", shard)
		}
	}
}

func TestShardDocumentInsufficientCustodians(t *testing.T) {
	s, err := NewService(Octonion, "TEST")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	for i := 0; i < 5; i++ {
		s.AddHolder([]byte{byte(i + 1)}, 100, 1)
	}
	if _, err := s.ShardDocument([]byte("doc"), 1); RuleID(err) != "LDCS-CUST-201" {
		t.Fatalf("want LDCS-CUST-201, got %v", err)
	}
}

func signShards(sharded *ShardedDocument) []DocumentShard {
	signed := make([]DocumentShard, len(sharded.Shards))
	copy(signed, sharded.Shards)
	for i := range signed {
		signed[i].Signature = signer.FoldSign(signed[i].Data, signed[i].HolderAddress)
	}
	return signed
}

func TestReconstructDocument(t *testing.T) {
	s := octonionService(t)
	sharded, err := s.ShardDocument([]byte("Confidential data"), 100)
	if err != nil {
		t.Fatalf("ShardDocument: %v", err)
	}

	out, err := s.ReconstructDocument(sharded, signShards(sharded))
	if err != nil {
		t.Fatalf("ReconstructDocument: %v", err)
	}
	if len(out) != len("Confidential data") {
		t.Fatalf("reconstructed length %d", len(out))
	}
}

func TestReconstructInsufficientShards(t *testing.T) {
	s := octonionService(t)
	sharded, err := s.ShardDocument([]byte("doc"), 100)
	if err != nil {
		t.Fatalf("ShardDocument: %v", err)
	}
	signed := signShards(sharded)
	if _, err := s.ReconstructDocument(sharded, signed[:7]); RuleID(err) != "LDCS-CUST-301" {
		t.Fatalf("want LDCS-CUST-301, got %v", err)
	}
}

func TestReconstructFailClosedOnOneBadSignature(t *testing.T) {
	s := octonionService(t)
	sharded, err := s.ShardDocument([]byte("doc"), 100)
	if err != nil {
		t.Fatalf("ShardDocument: %v", err)
	}
	signed := signShards(sharded)

	// Corrupt a single signature among an otherwise sufficient set.
	signed[3].Signature = []byte{signed[3].Signature[0] ^ 0x01}
	if _, err := s.ReconstructDocument(sharded, signed); RuleID(err) != "LDCS-CUST-303" {
		t.Fatalf("want LDCS-CUST-303, got %v", err)
	}

	// Unsigned shard fails the same way.
	signed = signShards(sharded)
	signed[0].Signature = nil
	if _, err := s.ReconstructDocument(sharded, signed); RuleID(err) != "LDCS-CUST-303" {
		t.Fatalf("want LDCS-CUST-303 for empty signature, got %v", err)
	}
}

func TestReconstructUnknownHolder(t *testing.T) {
	s := octonionService(t)
	sharded, err := s.ShardDocument([]byte("doc"), 100)
	if err != nil {
		t.Fatalf("ShardDocument: %v", err)
	}
	signed := signShards(sharded)
	signed[2].HolderAddress = []byte{0xEE}
	signed[2].Signature = signer.FoldSign(signed[2].Data, signed[2].HolderAddress)

	if _, err := s.ReconstructDocument(sharded, signed); RuleID(err) != "LDCS-CUST-302" {
		t.Fatalf("want LDCS-CUST-302, got %v", err)
	}
}

func TestServiceWithGF256SplitterRoundTrip(t *testing.T) {
	s, err := NewService(Quaternion, "TEST")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	gf, err := sss.NewGF256Splitter(4, 4)
	if err != nil {
		t.Fatalf("NewGF256Splitter: %v", err)
	}
	if _, err := s.WithSplitter(gf); err != nil {
		t.Fatalf("WithSplitter: %v", err)
	}
	for i := 0; i < 4; i++ {
		s.AddHolder([]byte{byte(i + 1)}, uint64(100 * (i + 1)), 7)
	}

	document := []byte("exact recovery under gf256")
	sharded, err := s.ShardDocument(document, 7)
	if err != nil {
		t.Fatalf("ShardDocument: %v", err)
	}
	out, err := s.ReconstructDocument(sharded, signShards(sharded))
	if err != nil {
		t.Fatalf("ReconstructDocument: %v", err)
	}
	if !bytes.Equal(out, document) {
		t.Fatalf("gf256 reconstruction mismatch")
	}
}

func TestWithSplitterRejectsMismatchedParams(t *testing.T) {
	s, err := NewService(Quaternion, "TEST")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	gf, err := sss.NewGF256Splitter(3, 4)
	if err != nil {
		t.Fatalf("NewGF256Splitter: %v", err)
	}
	if _, err := s.WithSplitter(gf); RuleID(err) != "LDCS-CUST-103" {
		t.Fatalf("want LDCS-CUST-103, got %v", err)
	}
}

func TestWithVerifierEd25519(t *testing.T) {
	s, err := NewService(Boolean, "TEST")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	s.WithVerifier(signer.Ed25519Verifier{})
	s.AddHolder([]byte{1}, 10, 1)
	s.AddHolder([]byte{2}, 20, 1)

	sharded, err := s.ShardDocument([]byte("doc"), 1)
	if err != nil {
		t.Fatalf("ShardDocument: %v", err)
	}
	// Fold signatures are no longer acceptable under the hardened verifier.
	if _, err := s.ReconstructDocument(sharded, signShards(sharded)); RuleID(err) != "LDCS-CUST-303" {
		t.Fatalf("fold signatures must fail under ed25519 verifier, got %v", err)
	}
}
