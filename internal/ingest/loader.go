package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// maxLineBytes bounds a single corpus line. Oversized posts should
// reach validation and be skipped there, so this sits well above
// MaxPostBytes.
const maxLineBytes = 4 * MaxPostBytes

// LoadCorpus reads a JSONL corpus file, one post per line.
func LoadCorpus(path string) ([]Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	posts, err := ReadPosts(f)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}
	return posts, nil
}

// ReadPosts decodes posts from JSONL input. Blank lines are skipped; a
// malformed line fails the whole read with its line number.
func ReadPosts(r io.Reader) ([]Post, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var posts []Post
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 || isBlank(raw) {
			continue
		}

		var post Post
		if err := json.Unmarshal(raw, &post); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		posts = append(posts, post)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}

	return posts, nil
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}
	return true
}
