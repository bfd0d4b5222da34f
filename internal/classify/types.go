// Package classify provides query classification and routing for Sports-See.
package classify

// QueryType represents the retrieval strategy a query routes to.
type QueryType string

const (
	// SQLOnly - answerable from the stats database alone.
	SQLOnly QueryType = "SQL_ONLY"

	// VectorOnly - answerable from the discussion corpus alone.
	VectorOnly QueryType = "VECTOR_ONLY"

	// Hybrid - needs both statistics and discussion context.
	Hybrid QueryType = "HYBRID"
)

// Category describes the shape of a query, independent of its route.
// Retrieval uses it to size expansion and recall.
type Category string

const (
	// CategorySimple - short, clean, single-clause questions.
	CategorySimple Category = "simple"

	// CategoryConversational - follow-ups that lean on prior turns.
	CategoryConversational Category = "conversational"

	// CategoryComplex - multi-clause or comparative questions.
	CategoryComplex Category = "complex"

	// CategoryNoisy - queries that needed heavy cleanup during normalization.
	CategoryNoisy Category = "noisy"
)

// Signals holds the per-cluster match scores behind a routing decision.
type Signals struct {
	// StatisticalScore counts matches from the statistical vocabulary.
	StatisticalScore int `json:"statistical_score"`

	// ContextualScore counts matches from the discussion vocabulary.
	ContextualScore int `json:"contextual_score"`

	// HybridScore counts combinator phrases that demand both legs.
	HybridScore int `json:"hybrid_score"`
}

// Decision is the result of classifying one query.
type Decision struct {
	// QueryType is the selected route.
	QueryType QueryType `json:"query_type"`

	// Signals are the raw cluster scores.
	Signals Signals `json:"signals"`

	// Rewritten is the normalized query after follow-up resolution.
	// Downstream retrieval and SQL generation work from this text.
	Rewritten string `json:"rewritten"`

	// FollowUp reports whether the query referenced a prior turn.
	FollowUp bool `json:"follow_up"`

	// Ambiguous marks a tied decision resolved by the default route.
	Ambiguous bool `json:"ambiguous"`

	// Category is the query shape.
	Category Category `json:"category"`

	// RuleVersion is the vocabulary revision that produced this decision.
	RuleVersion int `json:"rule_version"`
}
