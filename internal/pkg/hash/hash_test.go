package hash

import (
	"testing"
)

func TestSHA256(t *testing.T) {
	tests := []struct {
		input []byte
		want  string
	}{
		{
			[]byte("hello"),
			"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			[]byte(""),
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			got := SHA256(tt.input)
			if got != tt.want {
				t.Errorf("SHA256(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestSHA256String(t *testing.T) {
	got := SHA256String("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

	if got != want {
		t.Errorf("SHA256String(hello) = %s, want %s", got, want)
	}
}

func TestCacheKey(t *testing.T) {
	// Same inputs should produce same output
	k1 := CacheKey("nomic-embed-text", "who leads the league in assists")
	k2 := CacheKey("nomic-embed-text", "who leads the league in assists")

	if k1 != k2 {
		t.Errorf("CacheKey not deterministic: %s != %s", k1, k2)
	}

	// Model is part of the key
	k3 := CacheKey("all-minilm", "who leads the league in assists")
	if k1 == k3 {
		t.Errorf("CacheKey ignores model: %s == %s", k1, k3)
	}
}

func BenchmarkSHA256(b *testing.B) {
	data := []byte("benchmark test data for hashing performance measurement")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SHA256(data)
	}
}
