package utils

import (
	"testing"
)

func TestHashString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple string",
			input:    "hello",
			expected: "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		},
		{
			name:     "Complex string",
			input:    "The quick brown fox jumps over the lazy dog",
			expected: "2fd4e1c67a2d28fced849ee1bb76e7391b93eb12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HashString(tt.input)
			if result != tt.expected {
				t.Errorf("Expected hash %s, got %s", tt.expected, result)
			}
			if again := HashString(tt.input); again != result {
				t.Errorf("Hash function not consistent: %s != %s", result, again)
			}
		})
	}
}

func TestHashFields(t *testing.T) {
	a := HashFields("ab", "c")
	b := HashFields("a", "bc")
	if a == b {
		t.Errorf("Expected field boundaries to change the hash, both were %s", a)
	}
	if HashFields("x", "y") != HashFields("x", "y") {
		t.Error("Expected identical fields to hash identically")
	}
	if len(a) != 40 {
		t.Errorf("Expected hash length 40, got %d", len(a))
	}
}

func BenchmarkHashString(b *testing.B) {
	testString := "SISMO Moderado Oaxaca 2024-01-01 10:00:00"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		HashString(testString)
	}
}
