package ml

import (
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each feature column to zero mean and unit variance.
// Fit on the training split only; the fitted parameters travel inside the
// model artifact so prediction inputs get the exact same transform.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit computes per-column mean and standard deviation.
func (s *StandardScaler) Fit(rows [][]float64) {
	if len(rows) == 0 {
		return
	}

	nCols := len(rows[0])
	s.Mean = make([]float64, nCols)
	s.Std = make([]float64, nCols)

	col := make([]float64, len(rows))
	for j := 0; j < nCols; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || len(rows) < 2 {
			// Constant column: leave values centered but unscaled
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
}

// Transform returns a scaled copy of the given rows.
func (s *StandardScaler) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.TransformVector(row)
	}
	return out
}

// TransformVector returns a scaled copy of a single feature vector.
func (s *StandardScaler) TransformVector(vec []float64) []float64 {
	out := make([]float64, len(vec))
	for j, v := range vec {
		if j < len(s.Mean) {
			out[j] = (v - s.Mean[j]) / s.Std[j]
		} else {
			out[j] = v
		}
	}
	return out
}
