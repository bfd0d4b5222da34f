package retrieval

import (
	"github.com/shah-data-scientist/Sports-See-sub000/internal/classify"
)

// Chunk is one passage from the discussion corpus.
type Chunk struct {
	// ID is the chunk identifier.
	ID string `json:"id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Metadata carries the community signals attached to the chunk.
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata holds the signals used for boosting and filtering.
type ChunkMetadata struct {
	// Source is the document or thread the chunk came from.
	Source string `json:"source"`

	// DataType labels the chunk (discussion, recap, noise, ...).
	DataType string `json:"data_type"`

	// Upvotes is the community vote count for the chunk.
	Upvotes int `json:"upvotes"`

	// Engagement is the reply/interaction count for the chunk.
	Engagement int `json:"engagement"`

	// IsOfficial marks content from verified league sources.
	IsOfficial bool `json:"is_official"`
}

// SearchResult is a ranked chunk with its scores.
type SearchResult struct {
	Chunk

	// BaseScore is the similarity score scaled to 0-100.
	BaseScore float64 `json:"base_score"`

	// BoostedScore is the base score plus metadata boost, capped at 100.
	BoostedScore float64 `json:"boosted_score"`
}

// Request describes one retrieval call.
type Request struct {
	// Query is the question text.
	Query string `json:"query"`

	// Category sizes expansion and recall. Empty means simple.
	Category classify.Category `json:"category,omitempty"`

	// K overrides the computed result count when positive.
	K int `json:"k,omitempty"`

	// Filters holds equality conditions on chunk metadata fields.
	Filters map[string]string `json:"filters,omitempty"`
}

// Response is the outcome of one retrieval call.
type Response struct {
	// Results are the ranked chunks, best first.
	Results []SearchResult `json:"results"`

	// TargetK is the result count the engine aimed for.
	TargetK int `json:"target_k"`

	// ExpandedQuery is the query text after synonym expansion.
	ExpandedQuery string `json:"expanded_query"`

	// FilterRelaxed reports that the metadata filter was dropped
	// after it produced no candidates.
	FilterRelaxed bool `json:"filter_relaxed"`

	// Metadata contains retrieval timings and counters.
	Metadata Metadata `json:"metadata"`
}

// Metadata contains information about how the retrieval was performed.
type Metadata struct {
	// EmbedTimeMs is the query embedding time.
	EmbedTimeMs int64 `json:"embed_time_ms"`

	// RetrievalTimeMs is the vector search time.
	RetrievalTimeMs int64 `json:"retrieval_time_ms"`

	// RankTimeMs is the filter, boost and sort time.
	RankTimeMs int64 `json:"rank_time_ms"`

	// TotalTimeMs is the total retrieval time.
	TotalTimeMs int64 `json:"total_time_ms"`

	// Prefetched is the number of candidates fetched from the index.
	Prefetched int `json:"prefetched"`

	// Dropped is the number of candidates removed by the quality filter.
	Dropped int `json:"dropped"`
}
