package ml

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/edumetrics/maturity-engine/internal/database"
)

// rollingWindow is the number of periods in the rolling average, matching the
// reporting convention of the survey dashboards.
const rollingWindow = 3

// ColumnStats holds descriptive statistics for one numeric column.
type ColumnStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// MonthlyMean is the average overall score for one calendar month.
type MonthlyMean struct {
	Month string  `json:"month"`
	Mean  float64 `json:"mean"`
}

// MonthlyTrend is the month-by-month mean of overall scores plus the
// least-squares slope of those means against month index.
type MonthlyTrend struct {
	Monthly []MonthlyMean `json:"monthly"`
	Slope   float64       `json:"slope"`
}

// CorrelationReport holds Pearson correlations of indicators against the
// overall score and the full pairwise matrix.
type CorrelationReport struct {
	WithOverallScore map[string]float64            `json:"with_overall_score"`
	Matrix           map[string]map[string]float64 `json:"matrix"`
}

// RollingPoint is one step of the rolling average series.
type RollingPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Average   float64   `json:"average"`
}

// RollingAverage is the time-ordered rolling mean of overall scores with a
// first/last/delta summary.
type RollingAverage struct {
	Points []RollingPoint `json:"points"`
	First  float64        `json:"first"`
	Last   float64        `json:"last"`
	Delta  float64        `json:"delta"`
}

// TrendReport is the full trend analysis over historical evaluation records.
type TrendReport struct {
	Summary           map[string]ColumnStats `json:"summary_stats"`
	MonthlyTrend      MonthlyTrend           `json:"monthly_trend"`
	Correlations      CorrelationReport      `json:"correlations"`
	LevelDistribution map[string]int         `json:"level_distribution"`
	RollingAverage    RollingAverage         `json:"rolling_average"`
	SampleCount       int                    `json:"sample_count"`
}

// TrendAnalyzer computes aggregate analyses over historical evaluation
// records. Independent of the trained model; rows here may be sparse, unlike
// the strict completeness required for training.
type TrendAnalyzer struct {
	repo *database.Repository
}

// NewTrendAnalyzer creates a trend analyzer over the given repository.
func NewTrendAnalyzer(repo *database.Repository) *TrendAnalyzer {
	return &TrendAnalyzer{repo: repo}
}

// trendRow is one record flattened for analysis.
type trendRow struct {
	computedAt time.Time
	overall    float64
	level      string
	indicators map[string]float64
}

// Analyze computes the trend report, optionally filtered to one organization.
// Returns ErrInsufficientData when the filtered set is empty. Beyond that
// emptiness check no minimum sample size is enforced; single-row statistics
// are reported as-is.
func (a *TrendAnalyzer) Analyze(ctx context.Context, organizationID int64) (*TrendReport, error) {
	records, err := a.repo.ListEvaluationRecords(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation records: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrInsufficientData
	}

	rows := make([]trendRow, len(records))
	indicatorNames := make(map[string]struct{})
	for i, rec := range records {
		row := trendRow{
			computedAt: rec.ComputedAt,
			overall:    rec.OverallScore,
			level:      rec.MaturityLevel,
			indicators: make(map[string]float64, len(rec.Values)),
		}
		for _, v := range rec.Values {
			row.indicators[v.IndicatorName] = v.Value
			indicatorNames[v.IndicatorName] = struct{}{}
		}
		rows[i] = row
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].computedAt.Before(rows[j].computedAt) })

	names := make([]string, 0, len(indicatorNames))
	for name := range indicatorNames {
		names = append(names, name)
	}
	sort.Strings(names)

	report := &TrendReport{
		Summary:           a.summaryStats(rows, names),
		MonthlyTrend:      a.monthlyTrend(rows),
		Correlations:      a.correlations(rows, names),
		LevelDistribution: a.levelDistribution(rows),
		RollingAverage:    a.rollingAverage(rows),
		SampleCount:       len(rows),
	}

	return report, nil
}

func (a *TrendAnalyzer) summaryStats(rows []trendRow, names []string) map[string]ColumnStats {
	summary := make(map[string]ColumnStats, len(names)+1)

	overall := make([]float64, len(rows))
	for i, row := range rows {
		overall[i] = row.overall
	}
	summary[ColOverallScore] = describe(overall)

	for _, name := range names {
		var values []float64
		for _, row := range rows {
			if v, ok := row.indicators[name]; ok {
				values = append(values, v)
			}
		}
		summary[name] = describe(values)
	}

	return summary
}

func describe(values []float64) ColumnStats {
	if len(values) == 0 {
		return ColumnStats{}
	}

	stats := ColumnStats{
		Count: len(values),
		Mean:  stat.Mean(values, nil),
		Min:   values[0],
		Max:   values[0],
	}
	for _, v := range values {
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	if len(values) > 1 {
		stats.Std = stat.StdDev(values, nil)
	}
	return stats
}

func (a *TrendAnalyzer) monthlyTrend(rows []trendRow) MonthlyTrend {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, row := range rows {
		month := row.computedAt.Format("2006-01")
		sums[month] += row.overall
		counts[month]++
	}

	months := make([]string, 0, len(sums))
	for month := range sums {
		months = append(months, month)
	}
	sort.Strings(months)

	trend := MonthlyTrend{Monthly: make([]MonthlyMean, len(months))}
	indices := make([]float64, len(months))
	means := make([]float64, len(months))
	for i, month := range months {
		mean := sums[month] / float64(counts[month])
		trend.Monthly[i] = MonthlyMean{Month: month, Mean: mean}
		indices[i] = float64(i)
		means[i] = mean
	}

	if len(months) > 1 {
		_, slope := stat.LinearRegression(indices, means, nil, false)
		trend.Slope = slope
	}

	return trend
}

func (a *TrendAnalyzer) correlations(rows []trendRow, names []string) CorrelationReport {
	report := CorrelationReport{
		WithOverallScore: make(map[string]float64),
		Matrix:           make(map[string]map[string]float64),
	}

	columns := append(append([]string{}, names...), ColOverallScore)

	columnValue := func(row trendRow, name string) (float64, bool) {
		if name == ColOverallScore {
			return row.overall, true
		}
		v, ok := row.indicators[name]
		return v, ok
	}

	// Pairwise-complete Pearson correlation over rows where both columns are
	// present; sparse rows are the norm here.
	for _, colA := range columns {
		report.Matrix[colA] = make(map[string]float64)
		for _, colB := range columns {
			var xs, ys []float64
			for _, row := range rows {
				x, okX := columnValue(row, colA)
				y, okY := columnValue(row, colB)
				if okX && okY {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < 2 {
				continue
			}
			r := stat.Correlation(xs, ys, nil)
			if math.IsNaN(r) {
				continue
			}
			report.Matrix[colA][colB] = round4(r)
			if colB == ColOverallScore && colA != ColOverallScore {
				report.WithOverallScore[colA] = round4(r)
			}
		}
	}

	return report
}

func (a *TrendAnalyzer) levelDistribution(rows []trendRow) map[string]int {
	distribution := make(map[string]int)
	for _, row := range rows {
		distribution[row.level]++
	}
	return distribution
}

func (a *TrendAnalyzer) rollingAverage(rows []trendRow) RollingAverage {
	rolling := RollingAverage{Points: make([]RollingPoint, len(rows))}

	for i, row := range rows {
		start := i - rollingWindow + 1
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for j := start; j <= i; j++ {
			sum += rows[j].overall
		}
		rolling.Points[i] = RollingPoint{
			Timestamp: row.computedAt,
			Average:   sum / float64(i-start+1),
		}
	}

	rolling.First = rows[0].overall
	rolling.Last = rows[len(rows)-1].overall
	rolling.Delta = rolling.Last - rolling.First

	return rolling
}
