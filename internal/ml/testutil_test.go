package ml

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edumetrics/maturity-engine/internal/database"
	"github.com/edumetrics/maturity-engine/internal/types"
)

var testLevelBases = map[string]float64{
	types.LevelInitial:    1.4,
	types.LevelDeveloping: 2.2,
	types.LevelCompetent:  3.0,
	types.LevelAdvanced:   3.8,
	types.LevelExpert:     4.6,
}

func newTestRepo(t *testing.T) *database.Repository {
	t.Helper()

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return database.NewRepository(db)
}

func seedTestIndicators(t *testing.T, repo *database.Repository) []database.Indicator {
	t.Helper()

	names := []string{"Infrastructure", "Competence", "Process", "Security", "Pedagogy"}
	indicators := make([]database.Indicator, 0, len(names))
	for _, name := range names {
		ind, err := repo.InsertIndicator(context.Background(), name, "General")
		require.NoError(t, err)
		indicators = append(indicators, *ind)
	}
	return indicators
}

// seedCompleteRecords inserts perLevel complete evaluation records for every
// maturity level, with deterministic level-centered indicator values and
// timestamps spread over several months.
func seedCompleteRecords(t *testing.T, repo *database.Repository, indicators []database.Indicator, perLevel int) {
	t.Helper()

	rng := rand.New(rand.NewSource(1))
	computedAt := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	for _, level := range types.MaturityLevels {
		for i := 0; i < perLevel; i++ {
			base := testLevelBases[level]
			values := make([]database.IndicatorValue, 0, len(indicators))
			sum := 0.0
			for _, ind := range indicators {
				v := base + (rng.Float64()-0.5)*0.4
				values = append(values, database.IndicatorValue{
					IndicatorID:   ind.ID,
					IndicatorName: ind.Name,
					Value:         v,
					Level:         level,
				})
				sum += v
			}

			rec := database.EvaluationRecord{
				OrganizationID:   int64(1 + i%2),
				OrganizationName: "Test Institute",
				OverallScore:     sum / float64(len(values)),
				MaturityLevel:    level,
				ComputedAt:       computedAt,
				Values:           values,
			}
			require.NoError(t, repo.InsertEvaluationRecord(context.Background(), &rec))
			computedAt = computedAt.AddDate(0, 0, 11)
		}
	}
}

func newTestTrainer(repo *database.Repository, store *Store) *Trainer {
	cfg := DefaultTrainerConfig()
	cfg.Forest.NumTrees = 20
	return NewTrainer(repo, store, cfg)
}
