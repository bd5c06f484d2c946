package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Canonicalize is the mandatory canonicalization choke point for manifests.
//
// Manifests MUST be canonical before CID derivation, signing, or custody
// verification. This function enforces byte-level canonical rules by
// rejecting any non-canonical input.
func Canonicalize(input []byte) ([]byte, error) {
	if !utf8.Valid(input) {
		return nil, errors.New("manifest must be valid UTF-8")
	}
	if bytes.HasPrefix(input, []byte{0xEF, 0xBB, 0xBF}) {
		return nil, errors.New("BOM not allowed")
	}
	if bytes.Contains(input, []byte("\r")) {
		return nil, errors.New("CR line endings not allowed")
	}
	if len(input) == 0 {
		return nil, errors.New("empty manifest")
	}
	// Canonical manifests emitted by Render always end with a newline.
	if input[len(input)-1] != '\n' {
		return nil, errors.New("missing trailing newline")
	}
	for _, line := range bytes.Split(input, []byte("\n")) {
		if len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
			return nil, errors.New("trailing whitespace forbidden")
		}
	}

	if err := validateCanonical(string(input)); err != nil {
		return nil, err
	}

	// Return a copy to prevent caller mutation.
	return append([]byte(nil), input...), nil
}

var sectionOrder = []string{"META", "DOCUMENT", "SHARDS", "CRYPTO"}

func validateCanonical(doc string) error {
	lines := strings.Split(doc, "\n")
	// A canonical manifest has a trailing newline, so last line is always empty.
	if len(lines) < 3 {
		return errors.New("manifest too short")
	}
	if lines[0] != Preamble {
		return errors.New("missing manifest preamble")
	}
	if lines[len(lines)-1] != "" {
		return errors.New("missing trailing newline")
	}
	if lines[len(lines)-2] != Postamble {
		return errors.New("missing manifest postamble")
	}

	i := 1
	for _, sec := range sectionOrder {
		if i >= len(lines)-2 {
			return fmt.Errorf("missing section %q", sec)
		}
		if lines[i] != sec {
			return fmt.Errorf("sections missing or out of order (expected %q got %q)", sec, lines[i])
		}
		i++
		start := i
		for i < len(lines)-2 && lines[i] != "" {
			i++
		}
		if i >= len(lines)-2 {
			return fmt.Errorf("missing blank line after section %q", sec)
		}
		body := lines[start:i]
		if err := validateSection(sec, body); err != nil {
			return err
		}
		// Consume the required section terminator blank line.
		i++
	}

	if i != len(lines)-2 {
		return errors.New("unexpected content before postamble")
	}
	return nil
}

func validateSection(section string, body []string) error {
	switch section {
	case "META":
		return validateMeta(body)
	case "DOCUMENT":
		return validateDocument(body)
	case "SHARDS":
		return validateShards(body)
	case "CRYPTO":
		return validateCrypto(body)
	default:
		return fmt.Errorf("unknown section %q", section)
	}
}

func validateSortedStrict(lines []string) error {
	seen := make(map[string]bool)
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		if l == "" {
			return errors.New("empty line inside section")
		}
		if seen[l] {
			return errors.New("duplicate line")
		}
		seen[l] = true
		if i > 0 && !(lines[i-1] < lines[i]) {
			return errors.New("lines not sorted lexicographically")
		}
	}
	return nil
}

func validateKVLine(line string) (string, string, error) {
	if !strings.Contains(line, ": ") {
		return "", "", errors.New("invalid key-value formatting")
	}
	k, v, _ := strings.Cut(line, ": ")
	if k == "" {
		return "", "", errors.New("empty key")
	}
	if v == "" {
		return "", "", errors.New("empty value")
	}
	return k, v, nil
}

func validateMeta(body []string) error {
	if err := validateSortedStrict(body); err != nil {
		return fmt.Errorf("META: %w", err)
	}
	need := map[string]bool{"Sealer-ID": false, "Spec": false, "Version": false}
	for _, l := range body {
		k, _, err := validateKVLine(l)
		if err != nil {
			return fmt.Errorf("META: %w", err)
		}
		if _, ok := need[k]; ok {
			need[k] = true
		}
	}
	for k, ok := range need {
		if !ok {
			return fmt.Errorf("META: missing %s", k)
		}
	}
	return nil
}

func validateDocument(body []string) error {
	if err := validateSortedStrict(body); err != nil {
		return fmt.Errorf("DOCUMENT: %w", err)
	}
	need := map[string]bool{
		"Block-Height":    false,
		"Data-Type":       false,
		"Document-ID":     false,
		"Required-Shards": false,
		"Total-Shards":    false,
	}
	for _, l := range body {
		k, _, err := validateKVLine(l)
		if err != nil {
			return fmt.Errorf("DOCUMENT: %w", err)
		}
		if _, ok := need[k]; ok {
			need[k] = true
		}
	}
	for k, ok := range need {
		if !ok {
			return fmt.Errorf("DOCUMENT: missing %s", k)
		}
	}
	return nil
}

func validateShards(body []string) error {
	if len(body) == 0 {
		return nil
	}
	lastID := -1
	i := 0
	for i < len(body) {
		if !strings.HasPrefix(body[i], "Shard-ID: ") {
			return errors.New("SHARDS: expected Shard-ID")
		}
		_, idStr, err := validateKVLine(body[i])
		if err != nil {
			return fmt.Errorf("SHARDS: %w", err)
		}
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 0 {
			return errors.New("SHARDS: invalid Shard-ID")
		}
		if id <= lastID {
			return errors.New("SHARDS: Shard-ID not sorted")
		}
		lastID = id
		i++

		if i >= len(body) || !strings.HasPrefix(body[i], "Data-CID: ") {
			return errors.New("SHARDS: expected Data-CID")
		}
		if _, _, err := validateKVLine(body[i]); err != nil {
			return fmt.Errorf("SHARDS: %w", err)
		}
		i++

		if i >= len(body) || !strings.HasPrefix(body[i], "Holder: ") {
			return errors.New("SHARDS: expected Holder")
		}
		if _, _, err := validateKVLine(body[i]); err != nil {
			return fmt.Errorf("SHARDS: %w", err)
		}
		i++

		if i < len(body) && strings.HasPrefix(body[i], "Signature: ") {
			if _, _, err := validateKVLine(body[i]); err != nil {
				return fmt.Errorf("SHARDS: %w", err)
			}
			i++
		}
	}
	return nil
}

func validateCrypto(body []string) error {
	if len(body) == 0 {
		return nil
	}
	if err := validateSortedStrict(body); err != nil {
		return fmt.Errorf("CRYPTO: %w", err)
	}
	need := map[string]bool{"Hash-Alg": false, "Sealer-Key": false, "Signature-Alg": false, "Signature": false}
	for _, l := range body {
		k, _, err := validateKVLine(l)
		if err != nil {
			return fmt.Errorf("CRYPTO: %w", err)
		}
		if _, ok := need[k]; ok {
			need[k] = true
		}
	}
	for k, ok := range need {
		if !ok {
			return fmt.Errorf("CRYPTO: missing %s", k)
		}
	}
	return nil
}
