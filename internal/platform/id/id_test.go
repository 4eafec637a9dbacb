package id

import (
	"encoding/base32"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewIDIsLowercaseBase32UUID(t *testing.T) {
	t.Parallel()

	value, err := NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	if len(value) != 26 || value != strings.ToLower(value) {
		t.Fatalf("NewID() = %q, want 26 lowercase characters", value)
	}
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(value))
	if err != nil {
		t.Fatalf("decode %q: %v", value, err)
	}
	parsed, err := uuid.FromBytes(raw)
	if err != nil {
		t.Fatalf("uuid from bytes: %v", err)
	}
	if parsed.Version() != 4 || parsed.Variant() != uuid.RFC4122 {
		t.Fatalf("uuid %s version=%d variant=%s, want v4 RFC4122", parsed, parsed.Version(), parsed.Variant())
	}
}

func TestNewTokenIsURLSafeAndUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 16 {
		token, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken() error = %v", err)
		}
		if len(token) != 43 || strings.ContainsAny(token, "+/=") {
			t.Fatalf("token %q is not 43 URL-safe characters", token)
		}
		if seen[token] {
			t.Fatalf("token %q repeated", token)
		}
		seen[token] = true
	}
}
