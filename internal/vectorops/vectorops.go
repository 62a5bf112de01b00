// Package vectorops implements the similarity formulas and top-k
// ordering a Document's search needs: dot product, cosine similarity,
// and Euclidean distance over fixed-length float64 vectors.
package vectorops

import (
	"math"
	"sort"

	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

// By selects the similarity metric.
type By string

const (
	ByDotProduct By = "dp"
	ByCosine     By = "cs"
	ByEuclidean  By = "ed"
)

// Valid reports whether by is one of the three supported metrics.
func (b By) Valid() bool {
	switch b {
	case ByDotProduct, ByCosine, ByEuclidean:
		return true
	default:
		return false
	}
}

// DotProduct computes Σ a_i*b_i. a and b must have equal length.
func DotProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(a []float64) float64 {
	var sumSq float64
	for _, x := range a {
		sumSq += x * x
	}
	return math.Sqrt(sumSq)
}

// Cosine computes dp(a,b) / (‖a‖·‖b‖); a zero-norm vector yields 0 by
// convention rather than NaN.
func Cosine(a, b []float64) float64 {
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return DotProduct(a, b) / (na * nb)
}

// Euclidean computes √Σ(a_i−b_i)².
func Euclidean(a, b []float64) float64 {
	var sumSq float64
	for i := range a {
		d := a[i] - b[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq)
}

// Similarity computes the scalar similarity of a against b under by.
func Similarity(a, b []float64, by By) (float64, error) {
	if len(a) != len(b) {
		return 0, ouxerr.BadArgumentf("vector length mismatch: %d vs %d", len(a), len(b))
	}
	switch by {
	case ByDotProduct:
		return DotProduct(a, b), nil
	case ByCosine:
		return Cosine(a, b), nil
	case ByEuclidean:
		return Euclidean(a, b), nil
	default:
		return 0, ouxerr.BadArgumentf("unknown similarity metric %q", by)
	}
}

// SearchVectors scores query against every row of matrix under by and
// returns (idx_order, scores): idx_order is a permutation of 0..M-1
// sorted descending by score for dp/cs and ascending for ed, ties
// broken by original index so the ordering is stable; scores is indexed
// by original row position, not by idx_order. Rows whose length does
// not match the query (an entry stored without an embedding) rank last
// instead of failing the whole scan.
func SearchVectors(query []float64, matrix [][]float64, by By) ([]int, []float64, error) {
	if !by.Valid() {
		return nil, nil, ouxerr.BadArgumentf("unknown similarity metric %q", by)
	}
	worst := math.Inf(-1)
	if by == ByEuclidean {
		worst = math.Inf(1)
	}
	scores := make([]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != len(query) {
			scores[i] = worst
			continue
		}
		s, err := Similarity(query, row, by)
		if err != nil {
			return nil, nil, err
		}
		scores[i] = s
	}

	idx := make([]int, len(matrix))
	for i := range idx {
		idx[i] = i
	}
	ascending := by == ByEuclidean
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := scores[idx[i]], scores[idx[j]]
		if ascending {
			return a < b
		}
		return a > b
	})
	return idx, scores, nil
}

// TopK returns the first k entries of idx, or all of them if k <= 0 or
// k exceeds len(idx).
func TopK(idx []int, k int) []int {
	if k <= 0 || k > len(idx) {
		return idx
	}
	return idx[:k]
}
