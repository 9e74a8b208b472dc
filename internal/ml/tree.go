package ml

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a CART decision tree. Feature == -1 marks a leaf,
// in which case Probs holds the class distribution aligned with the forest's
// class list. The recursive shape serializes directly to JSON for the model
// artifact.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
	Probs     []float64 `json:"p,omitempty"`
}

func (n *treeNode) predict(vec []float64) []float64 {
	for n.Feature >= 0 {
		if vec[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Probs
}

// treeBuilder grows a single tree on a bootstrap sample. Labels arrive as
// class indices; weights carry the balanced class weighting.
type treeBuilder struct {
	rows       [][]float64
	classIdx   []int
	weights    []float64
	numClasses int

	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	numSubFeatures  int

	rng         *rand.Rand
	importances []float64
}

func (b *treeBuilder) build(indices []int, depth int) *treeNode {
	counts := b.weightedCounts(indices)
	total := sum(counts)

	if depth >= b.maxDepth || len(indices) < b.minSamplesSplit || isPure(counts) {
		return b.leaf(counts, total)
	}

	feature, threshold, ok := b.bestSplit(indices, counts, total)
	if !ok {
		return b.leaf(counts, total)
	}

	var left, right []int
	for _, idx := range indices {
		if b.rows[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

func (b *treeBuilder) leaf(counts []float64, total float64) *treeNode {
	probs := make([]float64, len(counts))
	if total > 0 {
		for i, c := range counts {
			probs[i] = c / total
		}
	}
	return &treeNode{Feature: -1, Probs: probs}
}

func (b *treeBuilder) weightedCounts(indices []int) []float64 {
	counts := make([]float64, b.numClasses)
	for _, idx := range indices {
		counts[b.classIdx[idx]] += b.weights[idx]
	}
	return counts
}

// bestSplit scans a random feature subset for the threshold minimizing the
// weighted Gini impurity of the children.
func (b *treeBuilder) bestSplit(indices []int, parentCounts []float64, parentTotal float64) (int, float64, bool) {
	numFeatures := len(b.rows[0])
	perm := b.rng.Perm(numFeatures)[:b.numSubFeatures]
	sort.Ints(perm)

	parentGini := gini(parentCounts, parentTotal)

	bestScore := parentGini
	bestFeature := -1
	bestThreshold := 0.0
	bestDecrease := 0.0
	found := false

	type valIdx struct {
		val float64
		idx int
	}

	sorted := make([]valIdx, len(indices))

	for _, feature := range perm {
		for i, idx := range indices {
			sorted[i] = valIdx{val: b.rows[idx][feature], idx: idx}
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].val < sorted[j].val })

		leftCounts := make([]float64, b.numClasses)
		leftTotal := 0.0

		for i := 0; i < len(sorted)-1; i++ {
			idx := sorted[i].idx
			leftCounts[b.classIdx[idx]] += b.weights[idx]
			leftTotal += b.weights[idx]

			// Only split between distinct values
			if sorted[i].val == sorted[i+1].val {
				continue
			}
			if i+1 < b.minSamplesLeaf || len(sorted)-(i+1) < b.minSamplesLeaf {
				continue
			}

			rightTotal := parentTotal - leftTotal
			if leftTotal <= 0 || rightTotal <= 0 {
				continue
			}

			rightCounts := make([]float64, b.numClasses)
			for c := range rightCounts {
				rightCounts[c] = parentCounts[c] - leftCounts[c]
			}

			score := (leftTotal*gini(leftCounts, leftTotal) + rightTotal*gini(rightCounts, rightTotal)) / parentTotal
			if score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = (sorted[i].val + sorted[i+1].val) / 2
				bestDecrease = parentTotal * (parentGini - score)
				found = true
			}
		}
	}

	if found {
		b.importances[bestFeature] += bestDecrease
	}

	return bestFeature, bestThreshold, found
}

func gini(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / total
		g -= p * p
	}
	return g
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}
