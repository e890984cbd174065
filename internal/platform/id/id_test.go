package id

import (
	"strings"
	"testing"
)

func decodeID(t *testing.T, value string) []byte {
	t.Helper()
	decoded, err := encoding.DecodeString(strings.ToUpper(value))
	if err != nil {
		t.Fatalf("decode %q: %v", value, err)
	}
	return decoded
}

func TestNewIDIsLowercaseBase32(t *testing.T) {
	value, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(value) != 26 || strings.ContainsRune(value, '=') {
		t.Fatalf("id %q is not 26 unpadded characters", value)
	}
	if strings.Trim(value, "abcdefghijklmnopqrstuvwxyz234567") != "" {
		t.Fatalf("id %q has characters outside the base32 alphabet", value)
	}
	if got := len(decodeID(t, value)); got != 16 {
		t.Fatalf("decoded length = %d, want 16", got)
	}
}

func TestNewIDIsRandomUUID(t *testing.T) {
	seen := make(map[string]bool)
	for range 64 {
		value, err := NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if seen[value] {
			t.Fatalf("duplicate id %q", value)
		}
		seen[value] = true

		raw := decodeID(t, value)
		if raw[6]>>4 != 4 {
			t.Fatalf("version nibble = %d, want 4", raw[6]>>4)
		}
		if raw[8]&0xC0 != 0x80 {
			t.Fatalf("variant bits = %#x, want 0x80", raw[8]&0xC0)
		}
	}
}
