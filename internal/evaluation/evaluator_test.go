package evaluation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
)

type searchCall struct {
	query   string
	k       int
	filters map[string]string
}

// fakeSearcher returns scripted results keyed by query text.
type fakeSearcher struct {
	results map[string][]retrieval.SearchResult
	err     error
	errOn   string
	calls   []searchCall
}

func (f *fakeSearcher) Search(_ context.Context, query string, k int, filters map[string]string) ([]retrieval.SearchResult, error) {
	f.calls = append(f.calls, searchCall{query: query, k: k, filters: filters})
	if f.err != nil && (f.errOn == "" || f.errOn == query) {
		return nil, f.err
	}
	return f.results[query], nil
}

func chunkResults(ids ...string) []retrieval.SearchResult {
	out := make([]retrieval.SearchResult, len(ids))
	for i, id := range ids {
		out[i] = retrieval.SearchResult{
			Chunk: retrieval.Chunk{
				ID:   id,
				Text: "chunk " + id,
			},
			BaseScore:    90 - float64(i),
			BoostedScore: 90 - float64(i),
		}
	}
	return out
}

func TestEvaluateQuery(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.SearchResult{
		"who won the cup": chunkResults("c1", "c2", "c3", "c4"),
	}}
	ev := NewEvaluator(searcher, 0)

	q := JudgedQuery{
		ID:    "cup",
		Query: "who won the cup",
		Relevant: map[string]int{
			"c1": 3,
			"c3": 1,
			"c9": 2, // judged relevant, never retrieved
		},
	}

	res, err := ev.EvaluateQuery(context.Background(), q, []int{1, 3})
	if err != nil {
		t.Fatalf("EvaluateQuery failed: %v", err)
	}

	if res.QueryID != "cup" || res.Query != "who won the cup" {
		t.Errorf("identity = %q/%q", res.QueryID, res.Query)
	}
	if res.ResultCount != 4 {
		t.Errorf("ResultCount = %d, want 4", res.ResultCount)
	}
	if res.RelevantCount != 3 {
		t.Errorf("RelevantCount = %d, want 3", res.RelevantCount)
	}

	// Ranked grades are [3, 0, 1, 0] with c9 unretrieved.
	if res.MRR != 1.0 {
		t.Errorf("MRR = %v, want 1", res.MRR)
	}
	if want := (1 + 2.0/3.0) / 3; !almost(res.AP, want) {
		t.Errorf("AP = %v, want %v", res.AP, want)
	}
	if !almost(res.Precision[1], 1.0) || !almost(res.Precision[3], 2.0/3.0) {
		t.Errorf("Precision = %v", res.Precision)
	}
	if !almost(res.Recall[1], 1.0/3.0) || !almost(res.Recall[3], 2.0/3.0) {
		t.Errorf("Recall = %v", res.Recall)
	}
	if !almost(res.NDCG[1], 1.0) {
		t.Errorf("NDCG@1 = %v, want 1", res.NDCG[1])
	}
	if want := 3.5 / (3 + 2/math.Log2(3) + 0.5); !almost(res.NDCG[3], want) {
		t.Errorf("NDCG@3 = %v, want %v", res.NDCG[3], want)
	}

	if len(searcher.calls) != 1 {
		t.Fatalf("search calls = %d, want 1", len(searcher.calls))
	}
	if call := searcher.calls[0]; call.query != "who won the cup" || call.k != DefaultDepth {
		t.Errorf("search call = %+v", call)
	}
}

func TestEvaluateQueryDepth(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		ks    []int
		wantK int
	}{
		{"configured depth", 25, []int{3}, 25},
		{"largest cutoff wins", 5, []int{1, 10}, 10},
		{"zero depth falls back", 0, []int{3}, DefaultDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			ev := NewEvaluator(searcher, tt.depth)

			q := JudgedQuery{ID: "q1", Query: "anything", Relevant: map[string]int{"c1": 1}}
			if _, err := ev.EvaluateQuery(context.Background(), q, tt.ks); err != nil {
				t.Fatalf("EvaluateQuery failed: %v", err)
			}
			if searcher.calls[0].k != tt.wantK {
				t.Errorf("search depth = %d, want %d", searcher.calls[0].k, tt.wantK)
			}
		})
	}
}

func TestEvaluateQueryDefaultCutoffs(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.SearchResult{
		"standings": chunkResults("c1"),
	}}
	ev := NewEvaluator(searcher, 0)

	q := JudgedQuery{ID: "q1", Query: "standings", Relevant: map[string]int{"c1": 2}}
	res, err := ev.EvaluateQuery(context.Background(), q, nil)
	if err != nil {
		t.Fatalf("EvaluateQuery failed: %v", err)
	}

	for _, k := range DefaultKs {
		if _, ok := res.NDCG[k]; !ok {
			t.Errorf("NDCG missing cutoff %d", k)
		}
		if _, ok := res.Precision[k]; !ok {
			t.Errorf("Precision missing cutoff %d", k)
		}
	}
}

func TestEvaluateQueryFilters(t *testing.T) {
	searcher := &fakeSearcher{}
	ev := NewEvaluator(searcher, 0)

	q := JudgedQuery{
		ID:       "q1",
		Query:    "playoff recap",
		Filters:  map[string]string{"data_type": "recap"},
		Relevant: map[string]int{"c1": 1},
	}
	if _, err := ev.EvaluateQuery(context.Background(), q, []int{5}); err != nil {
		t.Fatalf("EvaluateQuery failed: %v", err)
	}

	if got := searcher.calls[0].filters["data_type"]; got != "recap" {
		t.Errorf("filters not passed through, got %v", searcher.calls[0].filters)
	}
}

func TestEvaluateQuerySearchError(t *testing.T) {
	searcher := &fakeSearcher{err: apperrors.IndexUnavailableError("qdrant down", nil)}
	ev := NewEvaluator(searcher, 0)

	q := JudgedQuery{ID: "cup", Query: "who won the cup", Relevant: map[string]int{"c1": 1}}
	_, err := ev.EvaluateQuery(context.Background(), q, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.Code(err) != apperrors.CodeIndexUnavailable {
		t.Errorf("code = %q, want %q", apperrors.Code(err), apperrors.CodeIndexUnavailable)
	}
	if !strings.Contains(err.Error(), "query cup") {
		t.Errorf("error %q does not name the query", err)
	}
}

func TestEvaluate(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.SearchResult{
		"first query":  chunkResults("c1", "c2"),
		"second query": chunkResults("c8", "c2"),
	}}
	ev := NewEvaluator(searcher, 0)

	queries := []JudgedQuery{
		{ID: "q1", Query: "first query", Relevant: map[string]int{"c1": 1}},
		{ID: "q2", Query: "second query", Relevant: map[string]int{"c2": 1}},
	}

	report, err := ev.Evaluate(context.Background(), queries, []int{1})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if len(report.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(report.Results))
	}
	if report.Summary.QueryCount != 2 {
		t.Errorf("QueryCount = %d, want 2", report.Summary.QueryCount)
	}

	// q1 hits at rank one, q2 at rank two.
	if !almost(report.Summary.MeanMRR, 0.75) {
		t.Errorf("MeanMRR = %v, want 0.75", report.Summary.MeanMRR)
	}
	if !almost(report.Summary.MeanRecall[1], 0.5) {
		t.Errorf("MeanRecall@1 = %v, want 0.5", report.Summary.MeanRecall[1])
	}
}

func TestEvaluateAbortsOnSearchError(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[string][]retrieval.SearchResult{
			"good query": chunkResults("c1"),
		},
		err:   apperrors.IndexUnavailableError("qdrant down", nil),
		errOn: "bad query",
	}
	ev := NewEvaluator(searcher, 0)

	queries := []JudgedQuery{
		{ID: "q1", Query: "good query", Relevant: map[string]int{"c1": 1}},
		{ID: "q2", Query: "bad query", Relevant: map[string]int{"c2": 1}},
		{ID: "q3", Query: "good query", Relevant: map[string]int{"c1": 1}},
	}

	report, err := ev.Evaluate(context.Background(), queries, []int{1})
	if err == nil {
		t.Fatal("expected error")
	}
	if report != nil {
		t.Error("report should be nil on failure")
	}
	if len(searcher.calls) != 2 {
		t.Errorf("search calls = %d, want 2", len(searcher.calls))
	}
}

func TestSummarizeEmpty(t *testing.T) {
	ev := NewEvaluator(&fakeSearcher{}, 0)
	summary := ev.Summarize(nil)
	if summary.QueryCount != 0 || summary.MeanMRR != 0 {
		t.Errorf("empty summary = %+v", summary)
	}
}

func TestEvaluateFile(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.SearchResult{
		"who won the cup":         chunkResults("c1"),
		"most points in a season": chunkResults("c2", "c3"),
	}}
	ev := NewEvaluator(searcher, 0)

	path := filepath.Join(t.TempDir(), "judgments.jsonl")
	content := `{"id":"cup","query":"who won the cup","relevant":{"c1":3}}
{"query":"most points in a season","relevant":{"c2":1,"c3":2}}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing judgments: %v", err)
	}

	report, err := ev.EvaluateFile(context.Background(), path, []int{1, 3})
	if err != nil {
		t.Fatalf("EvaluateFile failed: %v", err)
	}

	if len(report.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(report.Results))
	}
	if report.Results[0].QueryID != "cup" {
		t.Errorf("first query ID = %q", report.Results[0].QueryID)
	}
	if report.Results[1].QueryID != "q2" {
		t.Errorf("positional ID = %q, want q2", report.Results[1].QueryID)
	}
}

func TestEvaluateFileMissing(t *testing.T) {
	ev := NewEvaluator(&fakeSearcher{}, 0)
	_, err := ev.EvaluateFile(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.Code(err) != apperrors.CodeValidation {
		t.Errorf("code = %q, want %q", apperrors.Code(err), apperrors.CodeValidation)
	}
}

func TestEvaluateFileEmpty(t *testing.T) {
	ev := NewEvaluator(&fakeSearcher{}, 0)

	path := filepath.Join(t.TempDir(), "empty.jsonl")
	if err := os.WriteFile(path, []byte("\n   \n"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	_, err := ev.EvaluateFile(context.Background(), path, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.Code(err) != apperrors.CodeValidation {
		t.Errorf("code = %q, want %q", apperrors.Code(err), apperrors.CodeValidation)
	}
}
