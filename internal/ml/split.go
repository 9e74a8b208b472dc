package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split holds the train/test partition of a training set.
type Split struct {
	TrainRows   [][]float64
	TrainLabels []string
	TestRows    [][]float64
	TestLabels  []string
}

// StratifiedSplit partitions rows into train and test sets while preserving
// per-class proportions. Deterministic for a given seed. Every class needs at
// least 2 members so that both sides of the split see it; a thinner class is a
// caller-visible error, not a panic.
func StratifiedSplit(rows [][]float64, labels []string, testFraction float64, seed int64) (*Split, error) {
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("rows and labels length mismatch: %d vs %d", len(rows), len(labels))
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}

	byClass := make(map[string][]int)
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}

	classes := make([]string, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Strings(classes)

	for _, label := range classes {
		if len(byClass[label]) < 2 {
			return nil, fmt.Errorf("cannot stratify: class %q has only %d sample(s), need at least 2", label, len(byClass[label]))
		}
	}

	rng := rand.New(rand.NewSource(seed))
	split := &Split{}

	for _, label := range classes {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(math.Round(testFraction * float64(len(indices))))
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= len(indices) {
			nTest = len(indices) - 1
		}

		for k, idx := range indices {
			if k < nTest {
				split.TestRows = append(split.TestRows, rows[idx])
				split.TestLabels = append(split.TestLabels, labels[idx])
			} else {
				split.TrainRows = append(split.TrainRows, rows[idx])
				split.TrainLabels = append(split.TrainLabels, labels[idx])
			}
		}
	}

	return split, nil
}
