// Package acl implements the layered access-control hierarchy for
// confidential documents: ordered severity tiers, per-tier key/threshold
// policies, the nested cipher pipeline, and the confidential document
// envelope that binds them together.
package acl

import "bytes"

// Level is an ordered access severity.
type Level int

const (
	Public Level = iota
	Authenticated
	Subscriber
	Private
	Secret
)

func (l Level) String() string {
	switch l {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Subscriber:
		return "subscriber"
	case Private:
		return "private"
	case Secret:
		return "secret"
	default:
		return "unknown"
	}
}

// ParseLevel maps a level name to its Level. The second return is false for
// unknown names.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "public":
		return Public, true
	case "authenticated":
		return Authenticated, true
	case "subscriber":
		return Subscriber, true
	case "private":
		return Private, true
	case "secret":
		return Secret, true
	default:
		return Public, false
	}
}

// Tier is one layer of the access hierarchy.
//
// RequiredKeys and Threshold gate access checks. TierKey feeds the nested
// cipher pipeline only. Parent records the previous tier index as
// bookkeeping: CanAccess deliberately does not walk the ancestor chain (the
// check is flat), so Parent carries no access semantics today.
type Tier struct {
	Level        Level
	RequiredKeys [][]byte
	Threshold    int
	TierKey      []byte

	// Parent is the index of the previous tier, or -1 for tier 0.
	Parent int
}

// LayeredACL is an append-only ordered hierarchy of tiers owned by a single
// identity. Tier 0 is always a Public tier with no keys and threshold 0.
//
// A LayeredACL is built once, before any encryption, and is immutable
// afterward by convention; it is not safe for concurrent mutation.
type LayeredACL struct {
	Tiers []Tier
	Owner []byte
}

// New creates a hierarchy holding exactly one Public tier.
func New(owner []byte) *LayeredACL {
	return &LayeredACL{
		Tiers: []Tier{{
			Level:  Public,
			Parent: -1,
		}},
		Owner: append([]byte(nil), owner...),
	}
}

// AddLayer appends a tier and returns its index.
//
// No validation is performed: a threshold larger than the key set can never
// be satisfied, and callers who need guarding should use AddLayerStrict.
func (a *LayeredACL) AddLayer(level Level, requiredKeys [][]byte, threshold int, tierKey []byte) int {
	parent := len(a.Tiers) - 1
	a.Tiers = append(a.Tiers, Tier{
		Level:        level,
		RequiredKeys: requiredKeys,
		Threshold:    threshold,
		TierKey:      tierKey,
		Parent:       parent,
	})
	return len(a.Tiers) - 1
}

// AddLayerStrict appends a tier after rejecting degenerate configurations:
// a non-positive threshold, a threshold exceeding the key set, an empty tier
// key on a non-Public tier, or a level below the previous tier's.
func (a *LayeredACL) AddLayerStrict(level Level, requiredKeys [][]byte, threshold int, tierKey []byte) (int, error) {
	if level != Public && threshold < 1 {
		return 0, newError(KindConfig, "LDCS-ACL-101", "threshold must be at least 1 for a non-public tier")
	}
	if threshold > len(requiredKeys) {
		return 0, newError(KindConfig, "LDCS-ACL-102", "threshold exceeds required key count and can never be satisfied")
	}
	if level != Public && len(tierKey) == 0 {
		return 0, newError(KindConfig, "LDCS-ACL-103", "non-public tier requires a tier key")
	}
	if prev := a.Tiers[len(a.Tiers)-1].Level; level < prev {
		return 0, newError(KindConfig, "LDCS-ACL-104", "tier level below previous tier")
	}
	return a.AddLayer(level, requiredKeys, threshold, tierKey), nil
}

// CanAccess reports whether the presented keys satisfy the tier's policy.
//
// Out-of-range tiers are never accessible. Public tiers are always
// accessible. Otherwise at least Threshold of the presented keys must be
// members of the tier's required key set. The check is flat: ancestor tiers
// are not consulted.
func (a *LayeredACL) CanAccess(tier int, presented [][]byte) bool {
	if tier < 0 || tier >= len(a.Tiers) {
		return false
	}
	t := &a.Tiers[tier]
	if t.Level == Public {
		return true
	}
	matching := 0
	for _, k := range presented {
		for _, req := range t.RequiredKeys {
			if bytes.Equal(k, req) {
				matching++
				break
			}
		}
	}
	return matching >= t.Threshold
}

// LayerCount returns the number of tiers, including the Public base tier.
func (a *LayeredACL) LayerCount() int {
	return len(a.Tiers)
}
