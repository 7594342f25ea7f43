package mint

import (
	"strings"
	"testing"
)

const validMint = "Eppcp4FhG6wmaRno3omWWvKsZHbzucVLR316SdXopump"

func TestIsLikelyMint(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{validMint, true},
		{"  " + validMint + "  ", true},
		{strings.Repeat("a", 32), true},
		{strings.Repeat("a", 31), false},
		{"", false},
		{strings.Repeat("a", 31) + "0", false}, // zero excluded
		{strings.Repeat("a", 31) + "O", false},
		{strings.Repeat("a", 31) + "I", false},
		{strings.Repeat("a", 31) + "l", false},
		{validMint + " " + validMint, false}, // not a single token
	}

	for _, tt := range tests {
		if got := IsLikelyMint(tt.input); got != tt.expected {
			t.Errorf("IsLikelyMint(%q) = %v; want %v", tt.input, got, tt.expected)
		}
	}
}

func TestIsExactMint(t *testing.T) {
	if !IsExactMint(validMint) {
		t.Errorf("expected %q to decode to 32 bytes", validMint)
	}
	// Syntactically fine but far too long to be a pubkey.
	long := strings.Repeat("a", 64)
	if IsExactMint(long) {
		t.Errorf("expected %q to be rejected", long)
	}
	if IsExactMint("short") {
		t.Error("expected short string to be rejected")
	}
}

func TestExtract(t *testing.T) {
	other := "wCtiCRJz69a5Mqkk2nHmvQwBGQCrUvM8fELoFGqpump"
	text := "check " + validMint + " and also " + other + ", plus " + validMint + " again"

	mints := Extract(text)
	if len(mints) != 2 {
		t.Fatalf("expected 2 mints, got %d: %v", len(mints), mints)
	}
	if mints[0] != validMint || mints[1] != other {
		t.Errorf("order not preserved: %v", mints)
	}
}

func TestExtractEmpty(t *testing.T) {
	if got := Extract(""); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
	if got := Extract("no mints here, just words"); len(got) != 0 {
		t.Errorf("expected no mints, got %v", got)
	}
}

func TestExtractIdempotent(t *testing.T) {
	text := "a " + validMint + " b wCtiCRJz69a5Mqkk2nHmvQwBGQCrUvM8fELoFGqpump c"
	first := Extract(text)
	second := Extract(strings.Join(first, " "))
	if len(first) != len(second) {
		t.Fatalf("idempotence broken: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("idempotence broken at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "--"},
		{"abcdefghij", "abcdefghij"},
		{"Eppcp4FhG6wmaRno3omWWvKsZHbzucVLR316SdXopump", "Eppcp4…pump"},
	}
	for _, tt := range tests {
		if got := Preview(tt.input); got != tt.expected {
			t.Errorf("Preview(%q) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}
