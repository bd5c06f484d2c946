package apdl

import (
	"bytes"
	"encoding/base64"
	"testing"

	"xdao.co/ldcs/acl"
)

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

var (
	keyAlice = []byte("alice-access-key")
	keyBob   = []byte("bob-access-key")
	tierKey1 = []byte{0x11, 0x11, 0x11, 0x11}
	tierKey2 = []byte{0x22, 0x22, 0x22, 0x22}
)

func validPolicy() string {
	return "-----BEGIN XDAO ACCESS POLICY-----\n" +
		"META\n" +
		"Version: 1\n" +
		"Spec: xdao-apdl-1\n" +
		"Owner: " + b64([]byte("owner")) + "\n" +
		"\n" +
		"TIERS\n" +
		"Tier:\n" +
		"  Level: authenticated\n" +
		"  Threshold: 1\n" +
		"  Key: " + b64(keyAlice) + "\n" +
		"  Tier-Key: " + b64(tierKey1) + "\n" +
		"\n" +
		"Tier:\n" +
		"  Level: secret\n" +
		"  Threshold: 2\n" +
		"  Key: " + b64(keyAlice) + "\n" +
		"  Key: " + b64(keyBob) + "\n" +
		"  Tier-Key: " + b64(tierKey2) + "\n" +
		"\n" +
		"-----END XDAO ACCESS POLICY-----"
}

func TestParseValidPolicy(t *testing.T) {
	policy, err := Parse([]byte(validPolicy()))
	if err != nil {
		t.Fatalf("expected valid policy, got error: %v", err)
	}
	if policy.Meta["Spec"] != "xdao-apdl-1" {
		t.Errorf("expected Spec meta, got %+v", policy.Meta)
	}
	if len(policy.Tiers) != 2 {
		t.Fatalf("expected 2 tiers, got %+v", policy.Tiers)
	}
	if policy.Tiers[0].Level != acl.Authenticated || policy.Tiers[0].Threshold != 1 {
		t.Errorf("tier 1: got %+v", policy.Tiers[0])
	}
	if policy.Tiers[1].Level != acl.Secret || policy.Tiers[1].Threshold != 2 {
		t.Errorf("tier 2: got %+v", policy.Tiers[1])
	}
	if len(policy.Tiers[1].Keys) != 2 || !bytes.Equal(policy.Tiers[1].Keys[1], keyBob) {
		t.Errorf("tier 2 keys: got %+v", policy.Tiers[1].Keys)
	}
	if !bytes.Equal(policy.Tiers[0].TierKey, tierKey1) {
		t.Errorf("tier 1 tier-key: got %x", policy.Tiers[0].TierKey)
	}
}

func TestParsePolicy_ThresholdDefaultsToOne(t *testing.T) {
	text := "-----BEGIN XDAO ACCESS POLICY-----\n" +
		"META\n" +
		"Version: 1\n" +
		"\n" +
		"TIERS\n" +
		"Tier:\n" +
		"  Level: private\n" +
		"  Key: " + b64(keyAlice) + "\n" +
		"  Tier-Key: " + b64(tierKey1) + "\n" +
		"-----END XDAO ACCESS POLICY-----"
	policy, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(policy.Tiers) != 1 || policy.Tiers[0].Threshold != 1 {
		t.Fatalf("expected default threshold=1, got %+v", policy.Tiers)
	}
}

func TestParsePolicy_Rejections(t *testing.T) {
	cases := map[string]string{
		"bom":                "\xEF\xBB\xBF" + validPolicy(),
		"crlf":               "-----BEGIN XDAO ACCESS POLICY-----\r\nMETA\r\n-----END XDAO ACCESS POLICY-----",
		"trailing space":     "-----BEGIN XDAO ACCESS POLICY-----\nMETA \n-----END XDAO ACCESS POLICY-----",
		"missing preamble":   "META\n-----END XDAO ACCESS POLICY-----",
		"missing postamble":  "-----BEGIN XDAO ACCESS POLICY-----\nMETA\n",
		"unknown level":      "-----BEGIN XDAO ACCESS POLICY-----\nTIERS\nTier:\n  Level: ultra\n-----END XDAO ACCESS POLICY-----",
		"missing level":      "-----BEGIN XDAO ACCESS POLICY-----\nTIERS\nTier:\n  Threshold: 1\n-----END XDAO ACCESS POLICY-----",
		"zero threshold":     "-----BEGIN XDAO ACCESS POLICY-----\nTIERS\nTier:\n  Level: private\n  Threshold: 0\n-----END XDAO ACCESS POLICY-----",
		"bad key encoding":   "-----BEGIN XDAO ACCESS POLICY-----\nTIERS\nTier:\n  Level: private\n  Key: !!!\n-----END XDAO ACCESS POLICY-----",
		"bad tier key":       "-----BEGIN XDAO ACCESS POLICY-----\nTIERS\nTier:\n  Level: private\n  Tier-Key: !!!\n-----END XDAO ACCESS POLICY-----",
	}
	for name, text := range cases {
		if _, err := Parse([]byte(text)); err == nil {
			t.Errorf("%s: expected rejection", name)
		}
	}
}

func TestToACL_BuildsLayeredACL(t *testing.T) {
	policy, err := Parse([]byte(validPolicy()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a, err := policy.ToACL()
	if err != nil {
		t.Fatalf("ToACL: %v", err)
	}
	if a.LayerCount() != 3 {
		t.Fatalf("expected 3 tiers (public + 2), got %d", a.LayerCount())
	}
	if a.Tiers[0].Level != acl.Public {
		t.Fatalf("tier 0 must be public")
	}
	if !a.CanAccess(1, [][]byte{keyAlice}) {
		t.Fatalf("alice should unlock tier 1")
	}
	if a.CanAccess(2, [][]byte{keyAlice}) {
		t.Fatalf("tier 2 needs both keys")
	}
	if !a.CanAccess(2, [][]byte{keyAlice, keyBob}) {
		t.Fatalf("alice+bob should unlock tier 2")
	}
}

func TestToACL_RejectsUnsatisfiableTier(t *testing.T) {
	text := "-----BEGIN XDAO ACCESS POLICY-----\n" +
		"TIERS\n" +
		"Tier:\n" +
		"  Level: private\n" +
		"  Threshold: 3\n" +
		"  Key: " + b64(keyAlice) + "\n" +
		"  Tier-Key: " + b64(tierKey1) + "\n" +
		"-----END XDAO ACCESS POLICY-----"
	policy, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = policy.ToACL()
	if err == nil {
		t.Fatalf("expected strict ACL construction to fail")
	}
	if !acl.IsKind(err, acl.KindConfig) {
		t.Fatalf("expected config-kind error, got %v", err)
	}
}

func TestRenderParse_RoundTrip(t *testing.T) {
	policy, err := Parse([]byte(validPolicy()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rendered := Render(policy)
	again, err := Parse(rendered)
	if err != nil {
		t.Fatalf("Parse(rendered): %v", err)
	}
	if string(Render(again)) != string(rendered) {
		t.Fatalf("render/parse must reach a fixpoint")
	}
}
