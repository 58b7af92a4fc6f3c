package id

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("lead")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(got, "lead-") {
		t.Errorf("expected lead- prefix, got %q", got)
	}
	if len(got) <= len("lead-") {
		t.Errorf("expected non-empty suffix, got %q", got)
	}
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := MustGenerate("tag")
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
