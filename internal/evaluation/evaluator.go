// Package evaluation measures retrieval quality offline: judged
// queries run through search and the ranked chunk IDs are scored with
// the standard IR metrics at the requested cutoffs.
package evaluation

import (
	"context"
	"fmt"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
)

// DefaultDepth is how many results each query retrieves for scoring.
const DefaultDepth = 50

// DefaultKs are the cutoffs reported when the caller picks none.
var DefaultKs = []int{1, 3, 5, 10}

// relevantGrade is the minimum grade that counts as relevant for the
// binary metrics. NDCG uses the grades directly.
const relevantGrade = 1

// Searcher is the retrieval surface the evaluator drives.
type Searcher interface {
	Search(ctx context.Context, query string, k int, filters map[string]string) ([]retrieval.SearchResult, error)
}

// Evaluator scores judged queries against a searcher.
type Evaluator struct {
	searcher Searcher
	depth    int
}

// NewEvaluator creates an evaluator retrieving depth results per
// query. Depth values at or below zero fall back to DefaultDepth, and
// a run always retrieves at least as deep as its largest cutoff.
func NewEvaluator(searcher Searcher, depth int) *Evaluator {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Evaluator{
		searcher: searcher,
		depth:    depth,
	}
}

// EvaluateQuery runs one judged query and scores its ranking.
func (e *Evaluator) EvaluateQuery(ctx context.Context, q JudgedQuery, ks []int) (*EvaluationResult, error) {
	if len(ks) == 0 {
		ks = DefaultKs
	}

	depth := e.depth
	for _, k := range ks {
		if k > depth {
			depth = k
		}
	}

	results, err := e.searcher.Search(ctx, q.Query, depth, q.Filters)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.ID, err)
	}

	// Unjudged chunks score as grade 0.
	ranked := make([]int, len(results))
	for i, r := range results {
		ranked[i] = q.Relevant[r.ID]
	}

	ideal := make([]int, 0, len(q.Relevant))
	totalRelevant := 0
	for _, grade := range q.Relevant {
		ideal = append(ideal, grade)
		if grade >= relevantGrade {
			totalRelevant++
		}
	}

	result := &EvaluationResult{
		QueryID:       q.ID,
		Query:         q.Query,
		NDCG:          make(map[int]float64),
		Recall:        make(map[int]float64),
		Precision:     make(map[int]float64),
		MRR:           MRR(ranked, relevantGrade),
		AP:            AveragePrecision(ranked, relevantGrade, totalRelevant),
		ResultCount:   len(results),
		RelevantCount: totalRelevant,
	}
	for _, k := range ks {
		result.NDCG[k] = NDCG(ranked, ideal, k)
		result.Recall[k] = Recall(ranked, k, relevantGrade, totalRelevant)
		result.Precision[k] = Precision(ranked, k, relevantGrade)
	}

	return result, nil
}

// Evaluate runs every judged query in order and aggregates the scores.
// The first search failure aborts the run.
func (e *Evaluator) Evaluate(ctx context.Context, queries []JudgedQuery, ks []int) (*Report, error) {
	results := make([]*EvaluationResult, 0, len(queries))
	for _, q := range queries {
		res, err := e.EvaluateQuery(ctx, q, ks)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return &Report{
		Results: results,
		Summary: e.Summarize(results),
	}, nil
}

// EvaluateFile loads a JSONL judgment file and evaluates its queries.
func (e *Evaluator) EvaluateFile(ctx context.Context, path string, ks []int) (*Report, error) {
	queries, err := LoadQueries(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "judgment load failed", err)
	}
	if len(queries) == 0 {
		return nil, errors.ValidationError("judgment file has no queries")
	}
	return e.Evaluate(ctx, queries, ks)
}

// Summarize averages per-query results into a single row.
func (e *Evaluator) Summarize(results []*EvaluationResult) *EvaluationSummary {
	if len(results) == 0 {
		return &EvaluationSummary{}
	}

	summary := &EvaluationSummary{
		QueryCount:    len(results),
		MeanNDCG:      make(map[int]float64),
		MeanRecall:    make(map[int]float64),
		MeanPrecision: make(map[int]float64),
	}

	for _, r := range results {
		summary.MeanMRR += r.MRR
		summary.MAP += r.AP

		for k, v := range r.NDCG {
			summary.MeanNDCG[k] += v
		}
		for k, v := range r.Recall {
			summary.MeanRecall[k] += v
		}
		for k, v := range r.Precision {
			summary.MeanPrecision[k] += v
		}
	}

	n := float64(len(results))
	summary.MeanMRR /= n
	summary.MAP /= n

	for k := range summary.MeanNDCG {
		summary.MeanNDCG[k] /= n
	}
	for k := range summary.MeanRecall {
		summary.MeanRecall[k] /= n
	}
	for k := range summary.MeanPrecision {
		summary.MeanPrecision[k] /= n
	}

	return summary
}
