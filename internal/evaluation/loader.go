package evaluation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineBytes bounds a single judgment line. Queries with inline
// judgments stay far below this.
const maxLineBytes = 1 << 20

// LoadQueries reads a JSONL judgment file, one judged query per line.
func LoadQueries(path string) ([]JudgedQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening judgment file: %w", err)
	}
	defer f.Close()

	queries, err := ReadQueries(f)
	if err != nil {
		return nil, fmt.Errorf("reading judgments %s: %w", path, err)
	}
	return queries, nil
}

// ReadQueries decodes judged queries from JSONL input. Blank lines are
// skipped; a malformed or invalid line fails the whole read with its
// line number. Queries without an ID get a positional one.
func ReadQueries(r io.Reader) ([]JudgedQuery, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var queries []JudgedQuery
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 || isBlank(raw) {
			continue
		}

		var q JudgedQuery
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := validateQuery(q); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		queries = append(queries, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}

	fillIDs(queries)
	return queries, nil
}

// validateQuery rejects judged queries the evaluator cannot score.
func validateQuery(q JudgedQuery) error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("query text is required")
	}
	for id, grade := range q.Relevant {
		if id == "" {
			return fmt.Errorf("judgment with empty chunk ID")
		}
		if grade < 0 {
			return fmt.Errorf("chunk %s: negative grade %d", id, grade)
		}
	}
	return nil
}

// fillIDs assigns positional IDs to queries that came without one.
func fillIDs(queries []JudgedQuery) {
	for i := range queries {
		if queries[i].ID == "" {
			queries[i].ID = fmt.Sprintf("q%d", i+1)
		}
	}
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}
	return true
}
