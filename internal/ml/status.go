package ml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edumetrics/maturity-engine/internal/database"
	"github.com/edumetrics/maturity-engine/internal/types"
)

// Thresholds driving the status recommendations.
const (
	minReliableSamples = 10
	robustSamples      = 50
)

// ModelStatus reports the state of the artifact slot, the latest training run
// and the amount of training-eligible data, with operator-facing
// recommendation notes.
func ModelStatus(ctx context.Context, repo *database.Repository, store *Store) (*types.ModelStatus, error) {
	run, err := repo.LatestTrainingRun(ctx)
	if err != nil {
		return nil, err
	}

	total, err := repo.CountEvaluationRecords(ctx)
	if err != nil {
		return nil, err
	}

	indicators, err := repo.ListIndicators(ctx)
	if err != nil {
		return nil, err
	}
	order := make([]string, len(indicators))
	for i, ind := range indicators {
		order[i] = ind.Name
	}

	records, err := repo.ListEvaluationRecords(ctx, 0)
	if err != nil {
		return nil, err
	}

	complete := 0
	if set, err := BuildTrainingSet(records, order); err == nil {
		complete = len(set.Rows)
	} else if !errors.Is(err, ErrInsufficientData) {
		return nil, err
	}

	status := &types.ModelStatus{
		ArtifactExists:  store.Exists(),
		TotalRecords:    total,
		CompleteRecords: complete,
		IndicatorCount:  len(indicators),
		Recommendations: []string{},
	}

	if run != nil {
		status.Metadata = &types.ModelMetadata{
			Name:      run.ModelName,
			Version:   run.Version,
			Accuracy:  run.Accuracy,
			TrainedAt: run.CreatedAt.Format(time.RFC3339),
		}
	}

	if run == nil || !status.ArtifactExists {
		status.Recommendations = append(status.Recommendations,
			"No trained model available; trigger a training run")
	}
	if complete < minReliableSamples {
		status.Recommendations = append(status.Recommendations,
			fmt.Sprintf("Only %d complete survey results available; collect more for a reliable model", complete))
	}
	if complete >= robustSamples {
		status.Recommendations = append(status.Recommendations,
			"Sufficient data for a robust model")
	}

	return status, nil
}
