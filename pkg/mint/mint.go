// Package mint validates and extracts Solana mint identifiers from text.
package mint

import (
	"regexp"
	"strings"

	"github.com/mr-tron/base58"
)

// Base58-like alphabet (no 0, O, I, l), at least 32 characters.
var (
	pattern       = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,}`)
	singlePattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,}$`)
)

// IsLikelyMint reports whether the trimmed string fully matches the mint
// pattern. Purely syntactic; use IsExactMint for a decode-level check.
func IsLikelyMint(s string) bool {
	return singlePattern.MatchString(strings.TrimSpace(s))
}

// IsExactMint reports whether s is a likely mint that also base58-decodes
// to exactly 32 bytes, i.e. the size of an on-chain public key. A likely
// mint that fails this is probably a truncated or overlong paste.
func IsExactMint(s string) bool {
	trimmed := strings.TrimSpace(s)
	if !singlePattern.MatchString(trimmed) {
		return false
	}
	raw, err := base58.Decode(trimmed)
	return err == nil && len(raw) == 32
}

// Extract scans arbitrary free text for mint identifiers, deduplicating
// while preserving first-seen order.
func Extract(text string) []string {
	if text == "" {
		return nil
	}
	matches := pattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var mints []string
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if !IsLikelyMint(m) {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		mints = append(mints, m)
	}
	return mints
}

// Preview shortens a mint for display: first6…last4 when longer than 10
// characters, otherwise unchanged.
func Preview(m string) string {
	if m == "" {
		return "--"
	}
	if len(m) <= 10 {
		return m
	}
	return m[:6] + "…" + m[len(m)-4:]
}
