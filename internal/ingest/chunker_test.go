package ingest

import (
	"fmt"
	"strings"
	"testing"
)

func TestChunkerShortTextPassesThrough(t *testing.T) {
	c := NewChunker(100, 10)

	got := c.Split("Jokic is the best passing big man of his generation.")
	if len(got) != 1 {
		t.Fatalf("Split() returned %d chunks, want 1", len(got))
	}
	if got[0] != "Jokic is the best passing big man of his generation." {
		t.Errorf("Split() = %q, text should pass through unchanged", got[0])
	}
}

func TestChunkerEmptyText(t *testing.T) {
	c := NewChunker(100, 10)

	for _, text := range []string{"", "   ", "\n\t"} {
		if got := c.Split(text); got != nil {
			t.Errorf("Split(%q) = %v, want nil", text, got)
		}
	}
}

func TestChunkerSplitsLongText(t *testing.T) {
	words := make([]string, 200)
	for i := range words {
		words[i] = fmt.Sprintf("w%03d", i)
	}
	text := strings.Join(words, " ")

	c := NewChunker(100, 10)
	chunks := c.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("Split() returned %d chunks, want several for %d chars", len(chunks), len(text))
	}
	for i, chunk := range chunks {
		if chunk == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if len(chunk) > 100 {
			t.Errorf("chunk %d is %d chars, want <= 100", i, len(chunk))
		}
	}

	// Every word survives whole in at least one chunk.
	joined := strings.Join(chunks, " ")
	for _, word := range words {
		if !strings.Contains(joined, word) {
			t.Errorf("word %s missing from chunks", word)
		}
	}
}

func TestChunkerHardCutWithoutSpaces(t *testing.T) {
	c := NewChunker(100, 0)

	chunks := c.Split(strings.Repeat("a", 250))
	want := []int{100, 100, 50}
	if len(chunks) != len(want) {
		t.Fatalf("Split() returned %d chunks, want %d", len(chunks), len(want))
	}
	for i, n := range want {
		if len(chunks[i]) != n {
			t.Errorf("chunk %d length = %d, want %d", i, len(chunks[i]), n)
		}
	}
}

func TestChunkerOverlapRepeatsBoundaryText(t *testing.T) {
	words := make([]string, 60)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	text := strings.Join(words, " ")

	chunks := NewChunker(120, 30).Split(text)
	if len(chunks) < 2 {
		t.Fatalf("Split() returned %d chunks, want at least 2", len(chunks))
	}

	// Each chunk reopens with text the previous chunk already covered.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i]
		if len(head) > 10 {
			head = head[:10]
		}
		if !strings.Contains(chunks[i-1], strings.TrimSpace(head)) {
			t.Errorf("chunk %d head %q not found in chunk %d", i, head, i-1)
		}
	}
}

func TestNewChunkerDefaults(t *testing.T) {
	c := NewChunker(0, -1)
	if c.chunkChars != DefaultChunkChars {
		t.Errorf("chunkChars = %d, want %d", c.chunkChars, DefaultChunkChars)
	}
	if c.overlap != DefaultChunkOverlap {
		t.Errorf("overlap = %d, want %d", c.overlap, DefaultChunkOverlap)
	}

	// Overlap at or above the window shrinks to a quarter of it.
	c = NewChunker(100, 200)
	if c.overlap != 25 {
		t.Errorf("overlap = %d, want 25", c.overlap)
	}
}
