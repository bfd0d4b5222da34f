package retrieval

import (
	"github.com/shah-data-scientist/Sports-See-sub000/internal/classify"
)

const (
	// DefaultMinK is the floor for the target result count.
	DefaultMinK = 3

	// DefaultMaxK is the ceiling for the target result count.
	DefaultMaxK = 15

	// DefaultPrefetchMultiplier controls over-fetch before quality
	// filtering. Candidates fetched = targetK * multiplier.
	DefaultPrefetchMultiplier = 3

	// DefaultMinChunkChars is the minimum trimmed chunk length that
	// survives the quality filter.
	DefaultMinChunkChars = 40
)

// recallK is the result count a query category needs to answer well.
// Conversational and complex queries lean on more context than clean
// single-fact questions; noisy queries get a little slack over the floor.
func recallK(category classify.Category) int {
	switch category {
	case classify.CategoryConversational:
		return 8
	case classify.CategoryComplex:
		return 10
	case classify.CategoryNoisy:
		return 6
	default:
		return 5
	}
}

// expansionLimit is how many synonym terms to append per category.
// Noisy queries get minimal expansion to avoid amplifying garbage;
// complex queries stay focused.
func expansionLimit(category classify.Category) int {
	switch category {
	case classify.CategoryNoisy:
		return 1
	case classify.CategoryComplex:
		return 3
	default:
		return 5
	}
}

// complexityK sizes the result count from the query itself: a base of
// two, one more per two tokens, two more per clause beyond the first.
func complexityK(tokenCount, clauses int) int {
	k := 2 + tokenCount/2
	if clauses > 1 {
		k += 2 * (clauses - 1)
	}
	return k
}

func clampK(k, min, max int) int {
	if k < min {
		return min
	}
	if k > max {
		return max
	}
	return k
}
