package database

import (
	"time"

	"github.com/google/uuid"
)

// Indicator is a named evaluation dimension (e.g. "Infrastructure").
// Reference data: created once, never mutated. Its id doubles as the stable
// ordering key for feature vector construction.
type Indicator struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IndicatorValue is one measured dimension of an EvaluationRecord.
type IndicatorValue struct {
	ID            int64   `json:"id" db:"id"`
	RecordID      int64   `json:"record_id" db:"record_id"`
	IndicatorID   int64   `json:"indicator_id" db:"indicator_id"`
	IndicatorName string  `json:"indicator_name" db:"indicator_name"`
	Value         float64 `json:"value" db:"value"`
	Level         string  `json:"level" db:"level"`
}

// EvaluationRecord is one computed outcome of a completed assessment. Records
// are produced by the survey aggregation pipeline and read-only here.
type EvaluationRecord struct {
	ID               int64            `json:"id" db:"id"`
	OrganizationID   int64            `json:"organization_id" db:"organization_id"`
	OrganizationName string           `json:"organization_name" db:"organization_name"`
	OverallScore     float64          `json:"overall_score" db:"overall_score"`
	MaturityLevel    string           `json:"maturity_level" db:"maturity_level"`
	ComputedAt       time.Time        `json:"computed_at" db:"computed_at"`
	Values           []IndicatorValue `json:"values,omitempty"`
}

// TrainingRun records one completed model training. Append-only.
type TrainingRun struct {
	ID           string    `json:"id" db:"id"`
	ModelName    string    `json:"model_name" db:"model_name"`
	Version      string    `json:"version" db:"version"`
	Accuracy     float64   `json:"accuracy" db:"accuracy"`
	ArtifactPath string    `json:"artifact_path" db:"artifact_path"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Prediction links a trained model to a target record and the label it
// produced for it. Append-only.
type Prediction struct {
	ID             string    `json:"id" db:"id"`
	TrainingRunID  string    `json:"training_run_id" db:"training_run_id"`
	RecordID       int64     `json:"record_id" db:"record_id"`
	PredictedLevel string    `json:"predicted_level" db:"predicted_level"`
	Probability    float64   `json:"probability" db:"probability"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// NewTrainingRun creates a training run record with a generated ID
func NewTrainingRun(modelName, version string, accuracy float64, artifactPath string) *TrainingRun {
	return &TrainingRun{
		ID:           uuid.New().String(),
		ModelName:    modelName,
		Version:      version,
		Accuracy:     accuracy,
		ArtifactPath: artifactPath,
		CreatedAt:    time.Now(),
	}
}

// NewPrediction creates a prediction record with a generated ID
func NewPrediction(trainingRunID string, recordID int64, predictedLevel string, probability float64) *Prediction {
	return &Prediction{
		ID:             uuid.New().String(),
		TrainingRunID:  trainingRunID,
		RecordID:       recordID,
		PredictedLevel: predictedLevel,
		Probability:    probability,
		CreatedAt:      time.Now(),
	}
}
