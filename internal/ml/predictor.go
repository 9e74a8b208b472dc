package ml

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/edumetrics/maturity-engine/internal/database"
)

// Confidence buckets for the winning class probability. Fixed thresholds:
// > 0.7 high, > 0.5 medium, else low.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// ConfidenceBucket discretizes a winning-class probability.
func ConfidenceBucket(probability float64) string {
	switch {
	case probability > 0.7:
		return ConfidenceHigh
	case probability > 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// PredictionResult is the outcome of a point prediction.
type PredictionResult struct {
	Level          string             `json:"predicted_level"`
	Probability    float64            `json:"probability"`
	Probabilities  map[string]float64 `json:"probabilities_by_level"`
	EstimatedScore float64            `json:"estimated_score"`
	Confidence     string             `json:"confidence"`
}

// Predictor serves point predictions from the current model artifact,
// training on demand when no artifact exists yet.
type Predictor struct {
	repo    *database.Repository
	store   *Store
	trainer *Trainer
}

// NewPredictor creates a predictor over the given store and trainer.
func NewPredictor(repo *database.Repository, store *Store, trainer *Trainer) *Predictor {
	return &Predictor{repo: repo, store: store, trainer: trainer}
}

// Predict classifies a set of indicator scores. Missing indicators are
// zero-filled against the artifact's frozen ordering. When recordID is
// non-zero the prediction is also appended to the prediction log; a failure
// there is logged and never fails the response.
//
// Returns ErrInsufficientData when no artifact exists and on-demand training
// cannot produce one, and ErrOrderingMismatch when the live indicator set no
// longer matches the artifact.
func (p *Predictor) Predict(ctx context.Context, scores map[string]float64, recordID int64) (*PredictionResult, error) {
	artifact, err := p.loadOrTrain(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.checkOrdering(ctx, artifact); err != nil {
		return nil, err
	}

	vec := BuildFeatureVector(scores, artifact.IndicatorOrder)
	scaled := artifact.Scaler.TransformVector(vec)

	probs := artifact.Forest.PredictProba(scaled)
	level := artifact.Forest.Predict(scaled)

	byLevel := make(map[string]float64, len(artifact.Forest.Classes))
	winning := 0.0
	for i, class := range artifact.Forest.Classes {
		byLevel[class] = round4(probs[i])
		if class == level {
			winning = probs[i]
		}
	}

	estimated := 0.0
	if len(scores) > 0 {
		sum := 0.0
		for _, v := range scores {
			sum += v
		}
		estimated = sum / float64(len(scores))
	}

	result := &PredictionResult{
		Level:          level,
		Probability:    round4(winning),
		Probabilities:  byLevel,
		EstimatedScore: math.Round(estimated*100) / 100,
		Confidence:     ConfidenceBucket(winning),
	}

	if recordID > 0 {
		p.persistPrediction(ctx, recordID, result)
	}

	return result, nil
}

// loadOrTrain implements the NO_MODEL -> train -> MODEL_READY fallback.
func (p *Predictor) loadOrTrain(ctx context.Context) (*Artifact, error) {
	artifact, err := p.store.Load()
	if err == nil {
		return artifact, nil
	}
	if !errors.Is(err, ErrArtifactMissing) {
		return nil, err
	}

	slog.Info("No model artifact found, training on demand")

	if _, err := p.trainer.Train(ctx); err != nil {
		if errors.Is(err, ErrInsufficientData) {
			return nil, fmt.Errorf("cannot load or produce a model: %w", err)
		}
		return nil, err
	}

	return p.store.Load()
}

// checkOrdering validates the artifact's indicator fingerprint against the
// live indicator set. A mismatch would silently misalign feature vectors, so
// it is surfaced as an explicit error demanding a retrain.
func (p *Predictor) checkOrdering(ctx context.Context, artifact *Artifact) error {
	indicators, err := p.repo.ListIndicators(ctx)
	if err != nil {
		return fmt.Errorf("failed to load indicators: %w", err)
	}

	current := make([]string, len(indicators))
	for i, ind := range indicators {
		current[i] = ind.Name
	}

	if OrderFingerprint(current) != artifact.Fingerprint {
		return fmt.Errorf("%w: indicator set changed since model version %s was trained, retrain required",
			ErrOrderingMismatch, artifact.Version)
	}

	return nil
}

// persistPrediction appends a prediction log row. Best effort: failures are
// logged and the prediction response proceeds regardless.
func (p *Predictor) persistPrediction(ctx context.Context, recordID int64, result *PredictionResult) {
	record, err := p.repo.GetEvaluationRecord(ctx, recordID)
	if err != nil {
		slog.Error("Failed to load target record for prediction log", "record_id", recordID, "error", err)
		return
	}

	run, err := p.repo.LatestTrainingRun(ctx)
	if err != nil || run == nil {
		slog.Error("Failed to resolve training run for prediction log", "record_id", recordID, "error", err)
		return
	}

	prediction := database.NewPrediction(run.ID, record.ID, result.Level, result.Probability)
	if err := p.repo.InsertPrediction(ctx, prediction); err != nil {
		slog.Error("Failed to persist prediction", "record_id", recordID, "error", err)
	}
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
