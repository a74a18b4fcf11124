package config

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeEnvironment(t *testing.T) {
	if got := normalizeEnvironment("  ProD  "); got != "prod" {
		t.Fatalf("expected prod, got %q", got)
	}
	if got := normalizeEnvironment("   "); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
	if got := normalizeEnvironment(""); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func FuzzNormalizeEnvironmentRobustness(f *testing.F) {
	f.Add("  ProD  ")
	f.Add("   ")
	f.Add("")
	f.Add(strings.Repeat("A", 4096))

	f.Fuzz(func(t *testing.T, raw string) {
		if len(raw) > 8192 {
			raw = raw[:8192]
		}

		got := normalizeEnvironment(raw)
		if got == "" {
			t.Fatal("normalized environment must not be empty")
		}
		if strings.TrimSpace(raw) == "" && got != "unknown" {
			t.Fatalf("expected unknown for empty/whitespace input, got %q", got)
		}
		if utf8.ValidString(raw) && !utf8.ValidString(got) {
			t.Fatalf("normalized environment must stay valid UTF-8: %q", got)
		}

		again := normalizeEnvironment(raw)
		if got != again {
			t.Fatalf("normalizeEnvironment must be deterministic: first=%q second=%q", got, again)
		}
	})
}
