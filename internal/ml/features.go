package ml

import (
	"errors"

	"github.com/edumetrics/maturity-engine/internal/database"
)

// Sentinel errors for the recoverable conditions of the classification core.
var (
	// ErrInsufficientData means zero qualifying rows were available for
	// training or analysis. Expected and recoverable.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrArtifactMissing means no trained model artifact exists yet.
	ErrArtifactMissing = errors.New("model artifact missing")

	// ErrOrderingMismatch means the canonical indicator set changed since the
	// current artifact was trained.
	ErrOrderingMismatch = errors.New("indicator ordering mismatch")
)

// Names of the two derived feature columns appended after the raw indicator
// scores.
const (
	ColOverallScore   = "overall_score"
	ColIndicatorCount = "indicator_count"
)

// TrainingSet is a rectangular feature matrix with a parallel label vector.
// Columns are the canonical indicator names followed by the two derived
// columns.
type TrainingSet struct {
	Columns []string
	Rows    [][]float64
	Labels  []string
}

// FeatureColumns returns the column names for the given indicator ordering:
// one column per indicator plus the two derived columns.
func FeatureColumns(indicatorOrder []string) []string {
	cols := make([]string, 0, len(indicatorOrder)+2)
	cols = append(cols, indicatorOrder...)
	return append(cols, ColOverallScore, ColIndicatorCount)
}

// BuildTrainingSet converts evaluation records into a training set using the
// canonical indicator ordering. A record qualifies only when it carries a
// value for every canonical indicator; partial records are dropped rather than
// imputed. Returns ErrInsufficientData when no record qualifies.
func BuildTrainingSet(records []database.EvaluationRecord, indicatorOrder []string) (*TrainingSet, error) {
	if len(indicatorOrder) == 0 {
		return nil, ErrInsufficientData
	}

	set := &TrainingSet{Columns: FeatureColumns(indicatorOrder)}

	for _, rec := range records {
		if len(rec.Values) == 0 {
			continue
		}

		scores := make(map[string]float64, len(rec.Values))
		for _, v := range rec.Values {
			scores[v.IndicatorName] = v.Value
		}

		// Strict completeness: every canonical indicator must be present
		complete := true
		for _, name := range indicatorOrder {
			if _, ok := scores[name]; !ok {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}

		row := make([]float64, 0, len(indicatorOrder)+2)
		for _, name := range indicatorOrder {
			row = append(row, scores[name])
		}
		row = append(row, rec.OverallScore, float64(len(rec.Values)))

		set.Rows = append(set.Rows, row)
		set.Labels = append(set.Labels, rec.MaturityLevel)
	}

	if len(set.Rows) == 0 {
		return nil, ErrInsufficientData
	}

	return set, nil
}

// BuildFeatureVector builds a single feature vector from caller-supplied
// scores using the artifact's indicator ordering. Missing indicators are
// zero-filled and extra keys ignored; the derived columns are the mean of the
// supplied values and their count. Deliberately lenient, unlike the strict
// training-time filter: ad-hoc callers rarely score every dimension.
func BuildFeatureVector(scores map[string]float64, indicatorOrder []string) []float64 {
	vec := make([]float64, 0, len(indicatorOrder)+2)
	for _, name := range indicatorOrder {
		vec = append(vec, scores[name])
	}

	mean := 0.0
	if len(scores) > 0 {
		sum := 0.0
		for _, v := range scores {
			sum += v
		}
		mean = sum / float64(len(scores))
	}

	return append(vec, mean, float64(len(scores)))
}
