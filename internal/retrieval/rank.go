package retrieval

import (
	"math"
	"sort"
	"strings"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/qdrant"
)

const (
	// engagementPerPoint converts engagement counts to boost points.
	engagementPerPoint = 25.0

	// upvotesPerPoint converts upvote counts to boost points.
	upvotesPerPoint = 50.0

	// officialBoost is the flat bonus for verified league sources.
	officialBoost = 4.0

	// signalCap limits each community signal to two boost points.
	signalCap = 2.0

	// maxBoost caps the total metadata boost.
	maxBoost = 8.0

	// noiseDataType marks chunks the ingest pipeline labeled as junk.
	noiseDataType = "noise"
)

// qualityFilter drops chunks too short to answer from and chunks
// labeled as noise. Length is measured after trimming whitespace.
func qualityFilter(hits []qdrant.SearchResult, minChars int) []qdrant.SearchResult {
	kept := make([]qdrant.SearchResult, 0, len(hits))
	for _, h := range hits {
		if len(strings.TrimSpace(h.Payload.Text)) < minChars {
			continue
		}
		if h.Payload.DataType == noiseDataType {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

// boostFor computes the metadata boost for a chunk. Engagement and
// upvotes each contribute up to two points; official sources add a
// flat four. The total never exceeds maxBoost.
func boostFor(md ChunkMetadata) float64 {
	boost := math.Min(float64(md.Engagement)/engagementPerPoint, signalCap)
	if md.IsOfficial {
		boost += officialBoost
	}
	boost += math.Min(float64(md.Upvotes)/upvotesPerPoint, signalCap)
	if boost > maxBoost {
		boost = maxBoost
	}
	return boost
}

// baseScore scales a cosine similarity to 0-100, clamping stray values
// outside the unit interval first.
func baseScore(similarity float32) float64 {
	s := float64(similarity)
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return s * 100
}

// rank scores the candidates, orders them by boosted score, and keeps
// the top targetK. Hits arrive in similarity order from the index; the
// stable sort preserves that order among equal boosted scores.
func rank(hits []qdrant.SearchResult, targetK int) []SearchResult {
	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		md := metadataFrom(h.Payload)
		base := baseScore(h.Score)
		boosted := base + boostFor(md)
		if boosted > 100 {
			boosted = 100
		}
		results = append(results, SearchResult{
			Chunk: Chunk{
				ID:       h.ID,
				Text:     h.Payload.Text,
				Metadata: md,
			},
			BaseScore:    base,
			BoostedScore: boosted,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].BoostedScore > results[j].BoostedScore
	})

	if len(results) > targetK {
		results = results[:targetK]
	}
	return results
}

func metadataFrom(p qdrant.ChunkPayload) ChunkMetadata {
	return ChunkMetadata{
		Source:     p.Source,
		DataType:   p.DataType,
		Upvotes:    p.Upvotes,
		Engagement: p.Engagement,
		IsOfficial: p.IsOfficial,
	}
}
