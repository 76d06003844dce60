package group

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode error: %v", err)
		}
		if len(code) != CodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), CodeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q, not in alphabet", code, c)
			}
		}
		seen[code] = true
	}

	// 100 draws from a 32^6 keyspace colliding to a single value would mean
	// the random source is broken
	if len(seen) < 2 {
		t.Fatalf("generated %d distinct codes out of 100", len(seen))
	}
}

func TestCodeAlphabet_ExcludesAmbiguousCharacters(t *testing.T) {
	t.Parallel()

	for _, c := range "0O1Il" {
		if strings.ContainsRune(codeAlphabet, c) {
			t.Fatalf("alphabet contains ambiguous character %q", c)
		}
	}
}
