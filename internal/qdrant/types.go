// Package qdrant provides a wrapper around the Qdrant Go client
// with simplified APIs for Sports-See retrieval operations.
package qdrant

import (
	"time"
)

// CollectionConfig defines the configuration for creating a Qdrant collection.
type CollectionConfig struct {
	// Name is the collection name (will be prefixed, e.g. "sportssee_").
	Name string

	// VectorSize is the dimension of the dense embedding vectors.
	VectorSize uint64

	// OnDiskPayload stores payload on disk to save RAM.
	OnDiskPayload bool

	// IndexingThreshold is the number of vectors before HNSW index is built.
	IndexingThreshold uint64
}

// DefaultCollectionConfig returns sensible defaults for a discussion corpus
// collection.
func DefaultCollectionConfig(name string, vectorSize int) CollectionConfig {
	if vectorSize <= 0 {
		vectorSize = 768 // nomic-embed-text
	}
	return CollectionConfig{
		Name:              name,
		VectorSize:        uint64(vectorSize),
		OnDiskPayload:     true,
		IndexingThreshold: 20000,
	}
}

// Point represents a chunk to upsert into Qdrant.
type Point struct {
	// ID is the unique point identifier (UUID).
	ID string

	// Vector is the dense embedding of the chunk text.
	Vector []float32

	// Payload is the metadata associated with this chunk.
	Payload ChunkPayload
}

// ChunkPayload contains the searchable metadata for a discussion chunk.
type ChunkPayload struct {
	Text       string    `json:"text"`
	Source     string    `json:"source"`
	DataType   string    `json:"data_type"`
	Upvotes    int       `json:"upvotes"`
	Engagement int       `json:"engagement"`
	IsOfficial bool      `json:"is_official"`
	IngestedAt time.Time `json:"ingested_at"`
}

// SearchRequest defines parameters for a dense vector search.
type SearchRequest struct {
	// Vector is the query embedding.
	Vector []float32

	// Limit is the maximum number of results to return.
	Limit uint64

	// Filter holds equality conditions on payload fields. Keys name payload
	// fields; boolean and integer fields are matched with their native types.
	Filter map[string]string

	// WithPayload includes payload in results.
	WithPayload bool

	// ScoreThreshold filters results below this score.
	ScoreThreshold *float32
}

// SearchResult represents a single search result.
type SearchResult struct {
	// ID is the point identifier.
	ID string

	// Score is the cosine similarity reported by Qdrant.
	Score float32

	// Payload contains the chunk metadata.
	Payload ChunkPayload
}

// DeleteFilter defines conditions for deleting points.
type DeleteFilter struct {
	// IDs deletes specific point IDs.
	IDs []string

	// Source deletes all chunks from this source document.
	Source string

	// DataType deletes all chunks of this data type.
	DataType string
}

// CollectionInfo contains information about a collection.
type CollectionInfo struct {
	// Name is the collection name (without prefix).
	Name string

	// PointsCount is the total number of points.
	PointsCount uint64

	// Status is the collection health status.
	Status string

	// SegmentsCount is the number of segments.
	SegmentsCount uint64
}
