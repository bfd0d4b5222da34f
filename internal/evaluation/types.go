package evaluation

// JudgedQuery pairs a question with graded relevance judgments over
// chunk IDs. Grades follow the usual four-point scale: 0 not relevant,
// 1 partially, 2 relevant, 3 highly relevant. Chunks missing from
// Relevant count as grade 0.
type JudgedQuery struct {
	ID      string            `json:"id,omitempty"`
	Query   string            `json:"query"`
	Filters map[string]string `json:"filters,omitempty"`

	// Relevant maps chunk ID to grade, including chunks the search is
	// expected to find but might not.
	Relevant map[string]int `json:"relevant"`
}

// EvaluationResult contains metrics for a single query.
type EvaluationResult struct {
	QueryID   string          `json:"query_id"`
	Query     string          `json:"query"`
	NDCG      map[int]float64 `json:"ndcg"`      // NDCG@K for the requested Ks
	Recall    map[int]float64 `json:"recall"`    // Recall@K
	Precision map[int]float64 `json:"precision"` // Precision@K
	MRR       float64         `json:"mrr"`
	AP        float64         `json:"ap"` // Average Precision

	// ResultCount is how many chunks the search returned.
	ResultCount int `json:"result_count"`

	// RelevantCount is how many judged chunks count as relevant, the
	// denominator for recall and AP.
	RelevantCount int `json:"relevant_count"`
}

// EvaluationSummary aggregates metrics across queries.
type EvaluationSummary struct {
	QueryCount    int             `json:"query_count"`
	MeanNDCG      map[int]float64 `json:"mean_ndcg"`
	MeanRecall    map[int]float64 `json:"mean_recall"`
	MeanPrecision map[int]float64 `json:"mean_precision"`
	MeanMRR       float64         `json:"mean_mrr"`
	MAP           float64         `json:"map"`
}

// Report bundles per-query results with their summary.
type Report struct {
	Results []*EvaluationResult `json:"results"`
	Summary *EvaluationSummary  `json:"summary"`
}
