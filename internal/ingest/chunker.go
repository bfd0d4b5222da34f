package ingest

import "strings"

// Chunking defaults, in characters.
const (
	DefaultChunkChars   = 800
	DefaultChunkOverlap = 100
)

// Chunker splits post text into overlapping windows, breaking at word
// boundaries where possible.
type Chunker struct {
	chunkChars int
	overlap    int
}

// NewChunker creates a chunker. Non-positive sizes fall back to
// defaults; the overlap is kept strictly smaller than the window.
func NewChunker(chunkChars, overlap int) *Chunker {
	if chunkChars <= 0 {
		chunkChars = DefaultChunkChars
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkChars {
		overlap = chunkChars / 4
	}
	return &Chunker{chunkChars: chunkChars, overlap: overlap}
}

// Split returns the chunks of text. Posts that fit a single window pass
// through whole.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.chunkChars {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.chunkChars
		if end >= len(text) {
			if chunk := strings.TrimSpace(text[start:]); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		// Break at the last space inside the window so words stay whole.
		if cut := strings.LastIndex(text[start:end], " "); cut > 0 {
			end = start + cut
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - c.overlap
		if next <= start {
			// The overlap would revisit the same window; move on instead.
			next = end
		}
		start = next
	}

	return chunks
}
