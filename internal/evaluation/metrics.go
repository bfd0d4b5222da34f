package evaluation

import (
	"math"
	"sort"
)

// NDCG computes Normalized Discounted Cumulative Gain at k. ranked
// holds the grade of each search result in rank order; ideal holds the
// grades of every judged chunk, retrieved or not, and supplies the
// ideal ordering. A relevant chunk the search never returned lowers
// the score.
func NDCG(ranked, ideal []int, k int) float64 {
	if k <= 0 {
		return 0
	}

	dcg := discountedGain(ranked, k)

	sorted := make([]int, len(ideal))
	copy(sorted, ideal)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	idcg := discountedGain(sorted, k)

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// discountedGain sums the first k grades with log2 position discounts.
func discountedGain(grades []int, k int) float64 {
	if k > len(grades) {
		k = len(grades)
	}
	if k == 0 {
		return 0
	}

	gain := float64(grades[0])
	for i := 1; i < k; i++ {
		gain += float64(grades[i]) / math.Log2(float64(i+2))
	}
	return gain
}

// Precision computes the fraction of the top k results with a grade at
// or above threshold.
func Precision(ranked []int, k, threshold int) float64 {
	if k > len(ranked) {
		k = len(ranked)
	}
	if k <= 0 {
		return 0
	}

	hits := 0
	for i := 0; i < k; i++ {
		if ranked[i] >= threshold {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// Recall computes the fraction of all relevant chunks found in the top
// k results. totalRelevant counts every judged chunk at or above
// threshold, not just the retrieved ones.
func Recall(ranked []int, k, threshold, totalRelevant int) float64 {
	if totalRelevant <= 0 {
		return 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}

	hits := 0
	for i := 0; i < k; i++ {
		if ranked[i] >= threshold {
			hits++
		}
	}
	return float64(hits) / float64(totalRelevant)
}

// MRR returns the reciprocal rank of the first result with a grade at
// or above threshold, or 0 when no result is relevant.
func MRR(ranked []int, threshold int) float64 {
	for i, g := range ranked {
		if g >= threshold {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// AveragePrecision averages precision at each relevant hit over
// totalRelevant, the full count of judged relevant chunks.
func AveragePrecision(ranked []int, threshold, totalRelevant int) float64 {
	if totalRelevant <= 0 {
		return 0
	}

	hits := 0
	sum := 0.0
	for i, g := range ranked {
		if g >= threshold {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}
	return sum / float64(totalRelevant)
}
