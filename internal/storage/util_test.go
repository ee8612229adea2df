package storage

import (
	"strings"
	"testing"
	"time"
)

func TestNewProjectID(t *testing.T) {
	now := time.Unix(1724900000, 0)

	tests := []struct {
		name string
		want string
	}{
		{"Bitmart", "bitmart_1724900000"},
		{"My Cool Token!", "mycooltoken_1724900000"},
		{"ALLCAPS", "allcaps_1724900000"},
		{"Token123", "token123_1724900000"},
		{"日本語", "_1724900000"},
		{"averyveryverylongprojectnameindeed", "averyveryverylongpro_1724900000"},
	}

	for _, tt := range tests {
		if got := NewProjectID(tt.name, now); got != tt.want {
			t.Errorf("NewProjectID(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key := generateAPIKey()
	if !strings.HasPrefix(key, "td_key_") {
		t.Errorf("generateAPIKey() = %q, want td_key_ prefix", key)
	}
	if key == generateAPIKey() {
		t.Error("generateAPIKey() produced a duplicate")
	}
}

func TestHashAPIKey(t *testing.T) {
	a := hashAPIKey("td_key_abc")
	b := hashAPIKey("td_key_abc")
	c := hashAPIKey("td_key_def")
	if a != b {
		t.Error("hashAPIKey() not deterministic")
	}
	if a == c {
		t.Error("hashAPIKey() collision on distinct keys")
	}
	if a == "td_key_abc" {
		t.Error("hashAPIKey() must not return the plaintext key")
	}
}
