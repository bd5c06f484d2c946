// Package apdl implements parsing for the Access Policy Definition Language.
//
// An access policy is a fenced text document declaring the tier hierarchy of
// a layered document: one Tier block per confidentiality tier, each naming a
// level, an unlock threshold, the accepted access keys, and the tier cipher
// key. Tier blocks are ordered; the first tier of the resulting ACL is always
// the implicit public tier.
package apdl

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"xdao.co/ldcs/acl"
)

const (
	Preamble  = "-----BEGIN XDAO ACCESS POLICY-----"
	Postamble = "-----END XDAO ACCESS POLICY-----"
)

type Policy struct {
	Meta  map[string]string
	Tiers []TierEntry
}

// TierEntry is one declared non-public tier.
type TierEntry struct {
	Level     acl.Level
	Threshold int
	Keys      [][]byte
	TierKey   []byte
}

// Parse parses an access policy from bytes.
func Parse(data []byte) (*Policy, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return nil, errors.New("BOM not allowed")
	}
	if bytes.Contains(data, []byte("\r")) {
		return nil, errors.New("CR line endings not allowed")
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
			return nil, errors.New("trailing whitespace forbidden")
		}
	}

	if !bytes.HasPrefix(data, []byte(Preamble)) {
		return nil, errors.New("missing policy preamble")
	}
	if !bytes.HasSuffix(bytes.TrimSpace(data), []byte(Postamble)) {
		return nil, errors.New("missing policy postamble")
	}

	sections := map[string]bool{"META": true, "TIERS": true}
	reader := bufio.NewReader(bytes.NewReader(data))
	var currSection string
	meta := make(map[string]string)
	var tiers []TierEntry
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err.Error() != "EOF" {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if sections[line] {
			currSection = line
			continue
		}
		if currSection == "META" && strings.Contains(line, ": ") {
			kv := strings.SplitN(line, ": ", 2)
			meta[kv[0]] = kv[1]
		}
		if currSection == "TIERS" && strings.HasPrefix(line, "Tier:") {
			var t TierEntry
			t.Threshold = 1
			levelSet := false
			for {
				l, _ := reader.ReadString('\n')
				l = strings.TrimSpace(l)
				if l == "" || strings.HasSuffix(l, ":") || l == Postamble {
					break
				}
				if strings.HasPrefix(l, "Level: ") {
					lv, ok := acl.ParseLevel(strings.TrimPrefix(l, "Level: "))
					if !ok {
						return nil, fmt.Errorf("unknown Level %q", strings.TrimPrefix(l, "Level: "))
					}
					t.Level = lv
					levelSet = true
				}
				if strings.HasPrefix(l, "Threshold: ") {
					qStr := strings.TrimPrefix(l, "Threshold: ")
					q, qErr := strconv.Atoi(qStr)
					if qErr != nil || q < 1 {
						return nil, errors.New("invalid Threshold")
					}
					t.Threshold = q
				}
				if strings.HasPrefix(l, "Key: ") {
					k, kErr := base64.StdEncoding.DecodeString(strings.TrimPrefix(l, "Key: "))
					if kErr != nil {
						return nil, errors.New("invalid Key encoding")
					}
					t.Keys = append(t.Keys, k)
				}
				if strings.HasPrefix(l, "Tier-Key: ") {
					k, kErr := base64.StdEncoding.DecodeString(strings.TrimPrefix(l, "Tier-Key: "))
					if kErr != nil {
						return nil, errors.New("invalid Tier-Key encoding")
					}
					t.TierKey = k
				}
			}
			if !levelSet {
				return nil, errors.New("Tier block missing Level")
			}
			tiers = append(tiers, t)
		}
		if err != nil {
			break
		}
	}
	return &Policy{Meta: meta, Tiers: tiers}, nil
}

// ToACL builds the layered ACL declared by the policy. The owner key comes
// from the META Owner field (base64) when present. Tier blocks are validated
// with the strict construction rules, so a policy that declares an
// unsatisfiable tier fails here rather than at access time.
func (p *Policy) ToACL() (*acl.LayeredACL, error) {
	var owner []byte
	if o, ok := p.Meta["Owner"]; ok {
		b, err := base64.StdEncoding.DecodeString(o)
		if err != nil {
			return nil, errors.New("invalid Owner encoding")
		}
		owner = b
	}
	out := acl.New(owner)
	for i, t := range p.Tiers {
		if _, err := out.AddLayerStrict(t.Level, t.Keys, t.Threshold, t.TierKey); err != nil {
			return nil, fmt.Errorf("tier %d: %w", i+1, err)
		}
	}
	return out, nil
}

// Render produces the canonical policy text for a parsed Policy.
// Meta lines are emitted sorted; tier blocks keep declaration order since
// tier order is semantically significant.
func Render(p *Policy) []byte {
	var sb strings.Builder
	sb.WriteString(Preamble)
	sb.WriteString("\n")

	sb.WriteString("META\n")
	metaKeys := make([]string, 0, len(p.Meta))
	for k := range p.Meta {
		metaKeys = append(metaKeys, k)
	}
	sort.Strings(metaKeys)
	for _, k := range metaKeys {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(p.Meta[k])
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString("TIERS\n")
	for _, t := range p.Tiers {
		sb.WriteString("Tier:\n")
		sb.WriteString("  Level: ")
		sb.WriteString(t.Level.String())
		sb.WriteString("\n")
		sb.WriteString("  Threshold: ")
		sb.WriteString(strconv.Itoa(t.Threshold))
		sb.WriteString("\n")
		for _, k := range t.Keys {
			sb.WriteString("  Key: ")
			sb.WriteString(base64.StdEncoding.EncodeToString(k))
			sb.WriteString("\n")
		}
		if len(t.TierKey) > 0 {
			sb.WriteString("  Tier-Key: ")
			sb.WriteString(base64.StdEncoding.EncodeToString(t.TierKey))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(Postamble)
	sb.WriteString("\n")
	return []byte(sb.String())
}
