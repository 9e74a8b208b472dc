package types

// The fixed five-level maturity vocabulary, ordered from lowest to highest.
// Any five distinct labels are valid as long as trainer and predictor agree on
// the set captured in the model artifact; these are the defaults.
const (
	LevelInitial    = "Initial"
	LevelDeveloping = "Developing"
	LevelCompetent  = "Competent"
	LevelAdvanced   = "Advanced"
	LevelExpert     = "Expert"
)

// MaturityLevels lists the vocabulary in ascending order.
var MaturityLevels = []string{
	LevelInitial,
	LevelDeveloping,
	LevelCompetent,
	LevelAdvanced,
	LevelExpert,
}

// PredictRequest carries caller-supplied indicator scores for a point
// prediction. RecordID optionally links the prediction to a stored evaluation
// record. OverallScore is a fallback: when set and no indicator scores are
// given, every indicator is assumed to sit at that score.
type PredictRequest struct {
	IndicatorScores map[string]float64 `json:"indicator_scores,omitempty"`
	OverallScore    *float64           `json:"overall_score,omitempty"`
	RecordID        int64              `json:"record_id,omitempty"`
}

// TrendsRequest filters trend analysis by organization when non-zero.
type TrendsRequest struct {
	OrganizationID int64 `form:"organization_id"`
}

// ModelMetadata describes the most recent training run.
type ModelMetadata struct {
	Name      string  `json:"name"`
	Version   string  `json:"version"`
	Accuracy  float64 `json:"accuracy"`
	TrainedAt string  `json:"trained_at"`
}

// ModelStatus reports artifact and training-data state.
type ModelStatus struct {
	ArtifactExists  bool           `json:"artifact_exists"`
	Metadata        *ModelMetadata `json:"metadata"`
	TotalRecords    int            `json:"total_records"`
	CompleteRecords int            `json:"complete_records"`
	IndicatorCount  int            `json:"indicator_count"`
	Recommendations []string       `json:"recommendations"`
}
