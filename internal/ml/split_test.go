package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticRows(counts map[string]int) ([][]float64, []string) {
	var rows [][]float64
	var labels []string
	i := 0.0
	for label, n := range counts {
		for k := 0; k < n; k++ {
			rows = append(rows, []float64{i, i + 1})
			labels = append(labels, label)
			i++
		}
	}
	return rows, labels
}

func TestStratifiedSplit(t *testing.T) {
	t.Run("preserves class proportions", func(t *testing.T) {
		rows, labels := syntheticRows(map[string]int{"A": 10, "B": 10, "C": 10})

		split, err := StratifiedSplit(rows, labels, 0.2, 42)
		require.NoError(t, err)

		testCounts := make(map[string]int)
		for _, label := range split.TestLabels {
			testCounts[label]++
		}

		assert.Equal(t, map[string]int{"A": 2, "B": 2, "C": 2}, testCounts)
		assert.Len(t, split.TrainRows, 24)
		assert.Len(t, split.TestRows, 6)
	})

	t.Run("every class appears on both sides", func(t *testing.T) {
		rows, labels := syntheticRows(map[string]int{"A": 2, "B": 2})

		split, err := StratifiedSplit(rows, labels, 0.2, 1)
		require.NoError(t, err)

		for _, side := range [][]string{split.TrainLabels, split.TestLabels} {
			seen := make(map[string]bool)
			for _, label := range side {
				seen[label] = true
			}
			assert.True(t, seen["A"])
			assert.True(t, seen["B"])
		}
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		rows, labels := syntheticRows(map[string]int{"A": 8, "B": 8})

		first, err := StratifiedSplit(rows, labels, 0.25, 7)
		require.NoError(t, err)
		second, err := StratifiedSplit(rows, labels, 0.25, 7)
		require.NoError(t, err)

		assert.Equal(t, first.TestRows, second.TestRows)
		assert.Equal(t, first.TrainLabels, second.TrainLabels)
	})

	t.Run("errors when a class has fewer than two samples", func(t *testing.T) {
		rows, labels := syntheticRows(map[string]int{"A": 5, "B": 1})

		_, err := StratifiedSplit(rows, labels, 0.2, 42)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot stratify")
	})

	t.Run("rejects invalid test fraction", func(t *testing.T) {
		rows, labels := syntheticRows(map[string]int{"A": 4})

		_, err := StratifiedSplit(rows, labels, 1.5, 42)
		assert.Error(t, err)
	})

	t.Run("rejects mismatched lengths", func(t *testing.T) {
		_, err := StratifiedSplit([][]float64{{1}}, []string{"A", "B"}, 0.2, 42)
		assert.Error(t, err)
	})
}
