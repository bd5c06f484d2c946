package sss

// OffsetSplitter is the legacy additive-offset scheme.
//
// Share i (1-indexed) is the secret with every byte offset by i mod 256.
// Reconstruct averages the first threshold shares weighted by their position
// within the supplied slice. The averaging exactly inverts Split only when
// the shares are the original ungapped 1..threshold shares in original
// order; arbitrary threshold-sized subsets are NOT guaranteed to recover the
// secret. Callers needing subset-independent recovery use GF256Splitter.
type OffsetSplitter struct {
	threshold int
	total     int
}

// NewOffsetSplitter validates parameters and returns the splitter.
func NewOffsetSplitter(threshold, total int) (*OffsetSplitter, error) {
	if err := validateParams(threshold, total); err != nil {
		return nil, err
	}
	return &OffsetSplitter{threshold: threshold, total: total}, nil
}

// MustOffsetSplitter is NewOffsetSplitter for parameters known valid at
// compile time; it panics on validation failure.
func MustOffsetSplitter(threshold, total int) *OffsetSplitter {
	s, err := NewOffsetSplitter(threshold, total)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *OffsetSplitter) Threshold() int { return s.threshold }
func (s *OffsetSplitter) Total() int     { return s.total }

func (s *OffsetSplitter) Split(secret []byte) [][]byte {
	shares := make([][]byte, s.total)
	for i := 1; i <= s.total; i++ {
		share := make([]byte, len(secret))
		for j, b := range secret {
			share[j] = byte((int(b) + i) % 256)
		}
		shares[i-1] = share
	}
	return shares
}

func (s *OffsetSplitter) Reconstruct(shares [][]byte) ([]byte, error) {
	if len(shares) < s.threshold {
		return nil, ErrInsufficientShares
	}
	taken := shares[:s.threshold]
	n := len(taken[0])
	for _, share := range taken {
		if len(share) != n {
			return nil, ErrShareLength
		}
	}
	secret := make([]byte, n)
	for j := 0; j < n; j++ {
		sum := 0
		for p, share := range taken {
			sum += int(share[j]) * (p + 1)
		}
		secret[j] = byte(sum / len(taken))
	}
	return secret, nil
}
