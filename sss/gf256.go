package sss

import (
	"crypto/rand"
	"errors"
)

// GF256Splitter is a real Shamir scheme over GF(2^8) with the AES polynomial
// (0x11b). Any threshold-sized subset of shares with distinct indices
// recovers the exact secret, unlike OffsetSplitter.
//
// Share layout: byte 0 is the x-coordinate (1..total), the remainder is one
// evaluation per secret byte. Shares are therefore one byte longer than the
// secret.
type GF256Splitter struct {
	threshold int
	total     int
}

// NewGF256Splitter validates parameters and returns the splitter.
// Total is capped at 255 because x-coordinates live in GF(256) \ {0}.
func NewGF256Splitter(threshold, total int) (*GF256Splitter, error) {
	if err := validateParams(threshold, total); err != nil {
		return nil, err
	}
	if total > 255 {
		return nil, newConfigError("LDCS-SSS-103", "gf256 supports at most 255 shares")
	}
	return &GF256Splitter{threshold: threshold, total: total}, nil
}

func (s *GF256Splitter) Threshold() int { return s.threshold }
func (s *GF256Splitter) Total() int     { return s.total }

func (s *GF256Splitter) Split(secret []byte) [][]byte {
	shares := make([][]byte, s.total)
	for i := range shares {
		shares[i] = make([]byte, len(secret)+1)
		shares[i][0] = byte(i + 1)
	}

	coeffs := make([]byte, s.threshold)
	for j, b := range secret {
		coeffs[0] = b
		if s.threshold > 1 {
			// rand.Read on crypto/rand never fails on supported platforms.
			_, _ = rand.Read(coeffs[1:])
		}
		for i := range shares {
			shares[i][j+1] = evalPoly(coeffs, shares[i][0])
		}
	}
	return shares
}

func (s *GF256Splitter) Reconstruct(shares [][]byte) ([]byte, error) {
	if len(shares) < s.threshold {
		return nil, ErrInsufficientShares
	}
	taken := shares[:s.threshold]
	n := len(taken[0])
	if n < 1 {
		return nil, ErrShareLength
	}
	seen := make(map[byte]bool, len(taken))
	for _, share := range taken {
		if len(share) != n {
			return nil, ErrShareLength
		}
		x := share[0]
		if x == 0 {
			return nil, errors.New("sss: invalid share index 0")
		}
		if seen[x] {
			return nil, errors.New("sss: duplicate share index")
		}
		seen[x] = true
	}

	secret := make([]byte, n-1)
	for j := 1; j < n; j++ {
		var acc byte
		for a, sa := range taken {
			// Lagrange basis at x=0.
			num, den := byte(1), byte(1)
			for b, sb := range taken {
				if a == b {
					continue
				}
				num = gfMul(num, sb[0])
				den = gfMul(den, sa[0]^sb[0])
			}
			acc ^= gfMul(sa[j], gfMul(num, gfInv(den)))
		}
		secret[j-1] = acc
	}
	return secret, nil
}

func evalPoly(coeffs []byte, x byte) byte {
	// Horner, highest degree first.
	var y byte
	for i := len(coeffs) - 1; i >= 0; i-- {
		y = gfMul(y, x) ^ coeffs[i]
	}
	return y
}

// Log/exp tables for GF(2^8) with generator 3 over polynomial 0x11b.
var gfExp [510]byte
var gfLog [256]byte

func init() {
	x := byte(1)
	for i := 0; i < 255; i++ {
		gfExp[i] = x
		gfLog[x] = byte(i)
		x ^= xtime(x) // multiply by the generator 3
	}
	for i := 255; i < 510; i++ {
		gfExp[i] = gfExp[i-255]
	}
}

func xtime(b byte) byte {
	if b&0x80 != 0 {
		return (b << 1) ^ 0x1b
	}
	return b << 1
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[int(gfLog[a])+int(gfLog[b])]
}

func gfInv(a byte) byte {
	if a == 0 {
		return 0
	}
	return gfExp[255-int(gfLog[a])]
}
