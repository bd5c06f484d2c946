// Package sss provides byte-secret splitting for shard custody.
//
// Two splitters are offered behind one interface. OffsetSplitter reproduces
// the legacy additive-offset scheme bit-for-bit, including its reconstruction
// pairing contract. GF256Splitter is a real Shamir scheme over GF(2^8) for
// deployments that need subset-independent recovery.
package sss

import (
	"errors"
	"fmt"
)

// Stable scheme names, as recorded in shard manifests.
const (
	SchemeOffset = "offset"
	SchemeGF256  = "gf256"
)

// ByName constructs the splitter for a recorded scheme name. Reconstruction
// must use the same scheme that produced the shares, so callers select the
// splitter from the manifest rather than assuming a default.
func ByName(name string, threshold, total int) (Splitter, error) {
	switch name {
	case SchemeOffset:
		return NewOffsetSplitter(threshold, total)
	case SchemeGF256:
		return NewGF256Splitter(threshold, total)
	default:
		return nil, newConfigError("LDCS-SSS-103", fmt.Sprintf("unknown splitter scheme %q", name))
	}
}

// Splitter splits a byte secret into shares and reconstructs it.
type Splitter interface {
	// Split produces Total() shares. Shares are ordered; the pairing
	// contract between Split and Reconstruct is splitter-specific.
	Split(secret []byte) [][]byte

	// Reconstruct recovers the secret from at least Threshold() shares.
	Reconstruct(shares [][]byte) ([]byte, error)

	Threshold() int
	Total() int
}

var (
	// ErrInsufficientShares is returned when fewer than threshold shares
	// are supplied to Reconstruct.
	ErrInsufficientShares = errors.New("sss: insufficient shares")

	// ErrShareLength is returned when supplied shares disagree in length.
	ErrShareLength = errors.New("sss: share length mismatch")
)

// Kind is a stable category for configuration errors.
type Kind string

const KindConfig Kind = "Config"

// Error is the structured configuration error type for splitter construction.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func newConfigError(ruleID, msg string) error {
	return &Error{Kind: KindConfig, RuleID: ruleID, Message: msg}
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

func validateParams(threshold, total int) error {
	if threshold < 1 {
		return newConfigError("LDCS-SSS-101", "threshold must be at least 1")
	}
	if total < threshold {
		return newConfigError("LDCS-SSS-102", "total shares must be at least the threshold")
	}
	return nil
}
