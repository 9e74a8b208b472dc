package ml

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edumetrics/maturity-engine/internal/database"
	"github.com/edumetrics/maturity-engine/internal/types"
)

const modelName = "random_forest_maturity"

// TrainerConfig controls the train/test split and forest growth.
type TrainerConfig struct {
	TestFraction float64
	SplitSeed    int64
	Forest       ForestConfig
}

// DefaultTrainerConfig returns the standard 80/20 seeded configuration.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		TestFraction: 0.2,
		SplitSeed:    42,
		Forest:       DefaultForestConfig(),
	}
}

// TrainingResult summarizes one completed training run.
type TrainingResult struct {
	RunID              string                  `json:"training_run_id"`
	Version            string                  `json:"version"`
	Accuracy           float64                 `json:"accuracy"`
	TrainCount         int                     `json:"train_count"`
	TestCount          int                     `json:"test_count"`
	Report             map[string]ClassMetrics `json:"per_class_report"`
	FeatureImportances map[string]float64      `json:"feature_importances"`
	ArtifactPath       string                  `json:"artifact_path"`
}

// Trainer fits the maturity classifier from historical evaluation records and
// persists the resulting artifact.
type Trainer struct {
	repo  *database.Repository
	store *Store
	cfg   TrainerConfig
}

// NewTrainer creates a trainer backed by the given repository and artifact
// store.
func NewTrainer(repo *database.Repository, store *Store, cfg TrainerConfig) *Trainer {
	return &Trainer{repo: repo, store: store, cfg: cfg}
}

// Train runs the full pipeline: extract complete records, stratified split,
// fit scaler on the training split only, grow the forest, evaluate on the
// held-out split, persist the artifact and append a training run record.
//
// Returns ErrInsufficientData (possibly wrapped) when there is nothing to
// train on; any persistence failure propagates as a hard error.
func (t *Trainer) Train(ctx context.Context) (*TrainingResult, error) {
	indicators, err := t.repo.ListIndicators(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load indicators: %w", err)
	}

	order := make([]string, len(indicators))
	for i, ind := range indicators {
		order[i] = ind.Name
	}

	records, err := t.repo.ListEvaluationRecords(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation records: %w", err)
	}

	set, err := BuildTrainingSet(records, order)
	if err != nil {
		return nil, err
	}

	slog.Info("Training data extracted",
		"samples", len(set.Rows),
		"features", len(set.Columns))

	split, err := StratifiedSplit(set.Rows, set.Labels, t.cfg.TestFraction, t.cfg.SplitSeed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}

	scaler := &StandardScaler{}
	scaler.Fit(split.TrainRows)
	trainScaled := scaler.Transform(split.TrainRows)
	testScaled := scaler.Transform(split.TestRows)

	forest, err := TrainForest(trainScaled, split.TrainLabels, t.cfg.Forest)
	if err != nil {
		return nil, fmt.Errorf("failed to train forest: %w", err)
	}

	predicted := make([]string, len(testScaled))
	for i, row := range testScaled {
		predicted[i] = forest.Predict(row)
	}

	accuracy := Accuracy(split.TestLabels, predicted)
	report := ClassificationReport(split.TestLabels, predicted)

	now := time.Now()
	artifact := &Artifact{
		Forest:         forest,
		Scaler:         scaler,
		IndicatorOrder: order,
		Levels:         types.MaturityLevels,
		Fingerprint:    OrderFingerprint(order),
		Version:        "v" + now.Format("20060102_1504"),
		TrainedAt:      now,
	}

	path, err := t.store.Save(artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to persist model artifact: %w", err)
	}

	run := database.NewTrainingRun(modelName, artifact.Version, round4(accuracy), path)
	if err := t.repo.InsertTrainingRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record training run: %w", err)
	}

	importances := make(map[string]float64, len(set.Columns))
	for i, col := range set.Columns {
		importances[col] = forest.Importances[i]
	}

	slog.Info("Model trained",
		"run_id", run.ID,
		"version", artifact.Version,
		"accuracy", accuracy,
		"train_count", len(split.TrainRows),
		"test_count", len(split.TestRows))

	return &TrainingResult{
		RunID:              run.ID,
		Version:            artifact.Version,
		Accuracy:           accuracy,
		TrainCount:         len(split.TrainRows),
		TestCount:          len(split.TestRows),
		Report:             report,
		FeatureImportances: importances,
		ArtifactPath:       path,
	}, nil
}
