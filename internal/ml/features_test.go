package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumetrics/maturity-engine/internal/database"
)

func makeRecord(level string, overall float64, scores map[string]float64) database.EvaluationRecord {
	rec := database.EvaluationRecord{
		OverallScore:  overall,
		MaturityLevel: level,
	}
	for name, value := range scores {
		rec.Values = append(rec.Values, database.IndicatorValue{
			IndicatorName: name,
			Value:         value,
		})
	}
	return rec
}

func TestBuildTrainingSet(t *testing.T) {
	order := []string{"Infrastructure", "Competence", "Process", "Security", "Pedagogy"}

	t.Run("keeps only complete records", func(t *testing.T) {
		records := []database.EvaluationRecord{
			makeRecord("Competent", 3.0, map[string]float64{
				"Infrastructure": 3.0, "Competence": 3.1, "Process": 2.9, "Security": 3.2, "Pedagogy": 2.8,
			}),
			// 4/5 indicators: dropped
			makeRecord("Advanced", 4.0, map[string]float64{
				"Infrastructure": 4.0, "Competence": 4.1, "Process": 3.9, "Security": 4.2,
			}),
			// no values at all: dropped
			makeRecord("Initial", 1.2, nil),
		}

		set, err := BuildTrainingSet(records, order)
		require.NoError(t, err)

		assert.Len(t, set.Rows, 1)
		assert.Equal(t, []string{"Competent"}, set.Labels)
	})

	t.Run("row has indicator values in canonical order plus derived columns", func(t *testing.T) {
		records := []database.EvaluationRecord{
			makeRecord("Expert", 4.5, map[string]float64{
				"Pedagogy": 4.1, "Security": 3.8, "Process": 4.2, "Competence": 3.5, "Infrastructure": 4.0,
			}),
		}

		set, err := BuildTrainingSet(records, order)
		require.NoError(t, err)

		require.Len(t, set.Rows, 1)
		assert.Equal(t, []float64{4.0, 3.5, 4.2, 3.8, 4.1, 4.5, 5}, set.Rows[0])
		assert.Equal(t, append(append([]string{}, order...), "overall_score", "indicator_count"), set.Columns)
	})

	t.Run("returns insufficient data when nothing qualifies", func(t *testing.T) {
		records := []database.EvaluationRecord{
			makeRecord("Initial", 1.5, map[string]float64{"Infrastructure": 1.5}),
		}

		_, err := BuildTrainingSet(records, order)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("returns insufficient data for empty indicator set", func(t *testing.T) {
		_, err := BuildTrainingSet(nil, nil)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestBuildFeatureVector(t *testing.T) {
	order := []string{"Infrastructure", "Competence", "Process"}

	tests := []struct {
		name     string
		scores   map[string]float64
		expected []float64
	}{
		{
			name:     "full scores",
			scores:   map[string]float64{"Infrastructure": 4.0, "Competence": 3.0, "Process": 2.0},
			expected: []float64{4.0, 3.0, 2.0, 3.0, 3},
		},
		{
			name:     "missing indicators are zero-filled",
			scores:   map[string]float64{"Competence": 3.0},
			expected: []float64{0, 3.0, 0, 3.0, 1},
		},
		{
			name:     "extra keys are ignored in the ordered part",
			scores:   map[string]float64{"Infrastructure": 2.0, "Unknown": 5.0},
			expected: []float64{2.0, 0, 0, 3.5, 2},
		},
		{
			name:     "empty scores",
			scores:   map[string]float64{},
			expected: []float64{0, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec := BuildFeatureVector(tt.scores, order)

			// length is always len(order)+2 regardless of input
			require.Len(t, vec, len(order)+2)
			assert.InDeltaSlice(t, tt.expected, vec, 1e-9)
		})
	}
}
