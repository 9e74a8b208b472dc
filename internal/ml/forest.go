package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ForestConfig controls forest growth. Defaults mirror the production
// training setup: 100 bounded-depth trees with balanced class weighting and a
// fixed seed so retraining on identical data yields an identical model.
type ForestConfig struct {
	NumTrees        int   `json:"num_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Seed            int64 `json:"seed"`
}

// DefaultForestConfig returns the standard training configuration.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

// RandomForest is a bagged ensemble of CART trees over the maturity classes.
type RandomForest struct {
	Config      ForestConfig `json:"config"`
	Classes     []string     `json:"classes"`
	NumFeatures int          `json:"num_features"`
	Trees       []*treeNode  `json:"trees"`
	Importances []float64    `json:"importances"`
}

// TrainForest fits a random forest on the given rows. Class weights are
// balanced (n / (k * count_c)) to counter label imbalance, matching the
// behavior of the survey datasets this serves, where mid-scale levels
// dominate.
func TrainForest(rows [][]float64, labels []string, cfg ForestConfig) (*RandomForest, error) {
	if len(rows) == 0 || len(rows) != len(labels) {
		return nil, fmt.Errorf("invalid training data: %d rows, %d labels", len(rows), len(labels))
	}

	classSet := make(map[string]int)
	for _, label := range labels {
		classSet[label]++
	}
	classes := make([]string, 0, len(classSet))
	for label := range classSet {
		classes = append(classes, label)
	}
	sort.Strings(classes)

	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	n := len(rows)
	k := len(classes)

	classWeights := make([]float64, k)
	for i, c := range classes {
		classWeights[i] = float64(n) / (float64(k) * float64(classSet[c]))
	}

	classIdx := make([]int, n)
	weights := make([]float64, n)
	for i, label := range labels {
		classIdx[i] = classIndex[label]
		weights[i] = classWeights[classIndex[label]]
	}

	numFeatures := len(rows[0])
	numSub := int(math.Round(math.Sqrt(float64(numFeatures))))
	if numSub < 1 {
		numSub = 1
	}

	forest := &RandomForest{
		Config:      cfg,
		Classes:     classes,
		NumFeatures: numFeatures,
		Trees:       make([]*treeNode, 0, cfg.NumTrees),
		Importances: make([]float64, numFeatures),
	}

	totalImportance := 0.0

	for t := 0; t < cfg.NumTrees; t++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))

		// Bootstrap sample
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}

		builder := &treeBuilder{
			rows:            rows,
			classIdx:        classIdx,
			weights:         weights,
			numClasses:      k,
			maxDepth:        cfg.MaxDepth,
			minSamplesSplit: cfg.MinSamplesSplit,
			minSamplesLeaf:  cfg.MinSamplesLeaf,
			numSubFeatures:  numSub,
			rng:             rng,
			importances:     make([]float64, numFeatures),
		}

		forest.Trees = append(forest.Trees, builder.build(sample, 0))

		for f, imp := range builder.importances {
			forest.Importances[f] += imp
			totalImportance += imp
		}
	}

	if totalImportance > 0 {
		for f := range forest.Importances {
			forest.Importances[f] /= totalImportance
		}
	}

	return forest, nil
}

// PredictProba returns the class probability distribution for a feature
// vector, averaged over all trees and aligned with Classes.
func (f *RandomForest) PredictProba(vec []float64) []float64 {
	probs := make([]float64, len(f.Classes))
	if len(f.Trees) == 0 {
		return probs
	}

	for _, tree := range f.Trees {
		for i, p := range tree.predict(vec) {
			probs[i] += p
		}
	}
	for i := range probs {
		probs[i] /= float64(len(f.Trees))
	}
	return probs
}

// Predict returns the argmax class label for a feature vector. Ties resolve
// to the lexicographically first class, keeping predictions deterministic.
func (f *RandomForest) Predict(vec []float64) string {
	probs := f.PredictProba(vec)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return f.Classes[best]
}
