package ml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumetrics/maturity-engine/internal/database"
	"github.com/edumetrics/maturity-engine/internal/types"
)

func TestConfidenceBucket(t *testing.T) {
	tests := []struct {
		probability float64
		expected    string
	}{
		{0.71, ConfidenceHigh},
		{0.70, ConfidenceMedium},
		{0.51, ConfidenceMedium},
		{0.50, ConfidenceLow},
		{0.0, ConfidenceLow},
		{1.0, ConfidenceHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ConfidenceBucket(tt.probability), "probability %v", tt.probability)
	}
}

func newTestPredictor(t *testing.T, perLevel int) (*Predictor, *database.Repository, *Store) {
	t.Helper()

	repo := newTestRepo(t)
	indicators := seedTestIndicators(t, repo)
	if perLevel > 0 {
		seedCompleteRecords(t, repo, indicators, perLevel)
	}

	store := NewStore(t.TempDir())
	trainer := newTestTrainer(repo, store)

	return NewPredictor(repo, store, trainer), repo, store
}

func TestPredictorPredict(t *testing.T) {
	predictor, _, store := newTestPredictor(t, 4)

	scores := map[string]float64{
		"Infrastructure": 4.0,
		"Competence":     3.5,
		"Process":        4.2,
		"Security":       3.8,
		"Pedagogy":       4.1,
	}

	result, err := predictor.Predict(context.Background(), scores, 0)
	require.NoError(t, err)

	t.Run("trains on demand when no artifact exists", func(t *testing.T) {
		assert.True(t, store.Exists())
	})

	t.Run("returns a known level with a coherent distribution", func(t *testing.T) {
		assert.Contains(t, types.MaturityLevels, result.Level)

		total := 0.0
		for _, p := range result.Probabilities {
			total += p
		}
		assert.InDelta(t, 1.0, total, 1e-3)
		assert.InDelta(t, result.Probabilities[result.Level], result.Probability, 1e-9)
	})

	t.Run("estimated score is the mean of supplied values", func(t *testing.T) {
		assert.InDelta(t, 3.92, result.EstimatedScore, 1e-9)
	})

	t.Run("confidence bucket matches the winning probability", func(t *testing.T) {
		assert.Equal(t, ConfidenceBucket(result.Probability), result.Confidence)
	})
}

func TestPredictorPartialScores(t *testing.T) {
	predictor, _, _ := newTestPredictor(t, 4)

	// Missing indicators are zero-filled; the call must still succeed.
	result, err := predictor.Predict(context.Background(), map[string]float64{"Infrastructure": 4.0}, 0)
	require.NoError(t, err)

	assert.Contains(t, types.MaturityLevels, result.Level)
	assert.InDelta(t, 4.0, result.EstimatedScore, 1e-9)
}

func TestPredictorNoDataAnywhere(t *testing.T) {
	predictor, _, _ := newTestPredictor(t, 0)

	_, err := predictor.Predict(context.Background(), map[string]float64{"Infrastructure": 4.0}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPredictorOrderingMismatch(t *testing.T) {
	predictor, repo, _ := newTestPredictor(t, 4)

	// First call trains and freezes the indicator ordering in the artifact
	_, err := predictor.Predict(context.Background(), map[string]float64{"Infrastructure": 3.0}, 0)
	require.NoError(t, err)

	// A new indicator changes the canonical set
	_, err = repo.InsertIndicator(context.Background(), "Governance", "Organization")
	require.NoError(t, err)

	_, err = predictor.Predict(context.Background(), map[string]float64{"Infrastructure": 3.0}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrderingMismatch)
}

func TestPredictorPersistsPrediction(t *testing.T) {
	predictor, repo, _ := newTestPredictor(t, 4)

	records, err := repo.ListEvaluationRecords(context.Background(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	target := records[0].ID

	result, err := predictor.Predict(context.Background(), map[string]float64{
		"Infrastructure": 2.0, "Competence": 2.1, "Process": 1.9, "Security": 2.2, "Pedagogy": 2.0,
	}, target)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestPredictorSideEffectFailureDoesNotFailPrediction(t *testing.T) {
	predictor, _, _ := newTestPredictor(t, 4)

	// Nonexistent target record: the prediction log write is skipped with a
	// logged error, but the prediction itself must succeed.
	result, err := predictor.Predict(context.Background(), map[string]float64{
		"Infrastructure": 3.0, "Competence": 3.0, "Process": 3.0, "Security": 3.0, "Pedagogy": 3.0,
	}, 999999)
	require.NoError(t, err)
	assert.Contains(t, types.MaturityLevels, result.Level)
}
