package ml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumetrics/maturity-engine/internal/types"
)

func trainedArtifact(t *testing.T) *Artifact {
	t.Helper()

	rows, labels := separableData(10)
	forest, err := TrainForest(rows, labels, testForestConfig())
	require.NoError(t, err)

	scaler := &StandardScaler{}
	scaler.Fit(rows)

	order := []string{"Infrastructure", "Competence"}

	return &Artifact{
		Forest:         forest,
		Scaler:         scaler,
		IndicatorOrder: order,
		Levels:         types.MaturityLevels,
		Fingerprint:    OrderFingerprint(order),
		Version:        "v20240101_0000",
		TrainedAt:      time.Now().UTC(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	artifact := trainedArtifact(t)

	path, err := store.Save(artifact)
	require.NoError(t, err)
	assert.Equal(t, store.Path(), path)
	assert.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, artifact.IndicatorOrder, loaded.IndicatorOrder)
	assert.Equal(t, artifact.Levels, loaded.Levels)
	assert.Equal(t, artifact.Fingerprint, loaded.Fingerprint)
	assert.Equal(t, artifact.Version, loaded.Version)

	// the reloaded model must predict identically to the original
	probe := []float64{2.8, 3.1}
	scaledBefore := artifact.Scaler.TransformVector(probe)
	scaledAfter := loaded.Scaler.TransformVector(probe)
	assert.Equal(t, scaledBefore, scaledAfter)
	assert.Equal(t, artifact.Forest.Predict(scaledBefore), loaded.Forest.Predict(scaledAfter))
	assert.Equal(t, artifact.Forest.PredictProba(scaledBefore), loaded.Forest.PredictProba(scaledAfter))
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	assert.False(t, store.Exists())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrArtifactMissing)
}

func TestStoreOverwritesSlot(t *testing.T) {
	store := NewStore(t.TempDir())

	first := trainedArtifact(t)
	first.Version = "v1"
	_, err := store.Save(first)
	require.NoError(t, err)

	second := trainedArtifact(t)
	second.Version = "v2"
	_, err = store.Save(second)
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "v2", loaded.Version)
}

func TestOrderFingerprint(t *testing.T) {
	a := OrderFingerprint([]string{"Infrastructure", "Competence"})
	b := OrderFingerprint([]string{"Infrastructure", "Competence"})
	c := OrderFingerprint([]string{"Competence", "Infrastructure"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "order matters")
	assert.NotEqual(t, a, OrderFingerprint([]string{"Infrastructure"}))
}
