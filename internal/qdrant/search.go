package qdrant

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

// DenseSearch performs a dense vector search over the chunk collection.
func (c *Client) DenseSearch(ctx context.Context, collection string, req SearchRequest) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}

	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector is required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	limit := req.Limit
	if limit == 0 {
		limit = 20
	}

	queryPoints := &qdrant.QueryPoints{
		CollectionName: c.collectionName(collection),
		Query:          qdrant.NewQueryDense(req.Vector),
		Using:          qdrant.PtrOf("dense"),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(req.WithPayload),
	}

	if len(req.Filter) > 0 {
		queryPoints.Filter = buildSearchFilter(req.Filter)
	}

	if req.ScoreThreshold != nil {
		queryPoints.ScoreThreshold = req.ScoreThreshold
	}

	results, err := c.client.Query(ctx, queryPoints)
	if err != nil {
		return nil, fmt.Errorf("dense search failed: %w", err)
	}

	return scoredPointsToResults(results), nil
}

// buildSearchFilter builds a Qdrant must-filter from equality conditions.
// Boolean and integer payload fields get their native match types; everything
// else matches as a keyword. Keys iterate in sorted order so the built filter
// is deterministic.
func buildSearchFilter(filter map[string]string) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]*qdrant.Condition, 0, len(filter))
	for _, key := range keys {
		value := filter[key]

		switch key {
		case "is_official":
			b, err := strconv.ParseBool(value)
			if err != nil {
				conditions = append(conditions, keywordCondition(key, value))
				continue
			}
			conditions = append(conditions, boolCondition(key, b))
		case "upvotes", "engagement":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				conditions = append(conditions, keywordCondition(key, value))
				continue
			}
			conditions = append(conditions, intCondition(key, n))
		default:
			conditions = append(conditions, keywordCondition(key, value))
		}
	}

	return &qdrant.Filter{
		Must: conditions,
	}
}

func keywordCondition(key, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{
						Keyword: value,
					},
				},
			},
		},
	}
}

func boolCondition(key string, value bool) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Boolean{
						Boolean: value,
					},
				},
			},
		},
	}
}

func intCondition(key string, value int64) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Integer{
						Integer: value,
					},
				},
			},
		},
	}
}

// scoredPointsToResults converts Qdrant scored points to SearchResults.
func scoredPointsToResults(points []*qdrant.ScoredPoint) []SearchResult {
	results := make([]SearchResult, 0, len(points))

	for _, p := range points {
		var id string
		switch v := p.Id.PointIdOptions.(type) {
		case *qdrant.PointId_Uuid:
			id = v.Uuid
		case *qdrant.PointId_Num:
			id = fmt.Sprintf("%d", v.Num)
		}

		results = append(results, SearchResult{
			ID:      id,
			Score:   p.Score,
			Payload: extractPayload(p.Payload),
		})
	}

	return results
}

// extractPayload extracts ChunkPayload from a Qdrant payload map.
func extractPayload(payload map[string]*qdrant.Value) ChunkPayload {
	result := ChunkPayload{}

	if v := getStringValue(payload, "text"); v != "" {
		result.Text = v
	}
	if v := getStringValue(payload, "source"); v != "" {
		result.Source = v
	}
	if v := getStringValue(payload, "data_type"); v != "" {
		result.DataType = v
	}
	result.Upvotes = getIntValue(payload, "upvotes")
	result.Engagement = getIntValue(payload, "engagement")
	result.IsOfficial = getBoolValue(payload, "is_official")
	if v := getStringValue(payload, "ingested_at"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			result.IngestedAt = t
		}
	}

	return result
}

// Helper functions to extract values from Qdrant payload

func getStringValue(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if sv, ok := v.Kind.(*qdrant.Value_StringValue); ok {
			return sv.StringValue
		}
	}
	return ""
}

func getIntValue(payload map[string]*qdrant.Value, key string) int {
	if v, ok := payload[key]; ok {
		if iv, ok := v.Kind.(*qdrant.Value_IntegerValue); ok {
			return int(iv.IntegerValue)
		}
	}
	return 0
}

func getBoolValue(payload map[string]*qdrant.Value, key string) bool {
	if v, ok := payload[key]; ok {
		if bv, ok := v.Kind.(*qdrant.Value_BoolValue); ok {
			return bv.BoolValue
		}
	}
	return false
}
