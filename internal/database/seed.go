package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/edumetrics/maturity-engine/internal/types"
)

var demoIndicators = []struct {
	name     string
	category string
}{
	{"Infrastructure", "Technology"},
	{"Competence", "People"},
	{"Process", "Organization"},
	{"Security", "Technology"},
	{"Pedagogy", "People"},
}

var demoOrganizations = []struct {
	id   int64
	name string
}{
	{1, "North Valley Institute"},
	{2, "Riverside Technical College"},
	{3, "Central Academy"},
}

// SeedDemo populates the database with synthetic indicators and evaluation
// records spanning all five maturity levels, so the classifier can be trained
// without a live survey pipeline. No-op when records already exist.
//
// The seed here drives fixture generation only and is independent of the
// trainer's split seed.
func (r *Repository) SeedDemo(ctx context.Context, seed int64) error {
	count, err := r.CountEvaluationRecords(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Info("Demo seed skipped, records already present", "count", count)
		return nil
	}

	rng := rand.New(rand.NewSource(seed))

	indicators := make([]Indicator, 0, len(demoIndicators))
	existing, err := r.ListIndicators(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		indicators = existing
	} else {
		for _, di := range demoIndicators {
			ind, err := r.InsertIndicator(ctx, di.name, di.category)
			if err != nil {
				return err
			}
			indicators = append(indicators, *ind)
		}
	}

	// Level-centered base scores on the 1-5 response scale
	levelBases := map[string]float64{
		types.LevelInitial:    1.4,
		types.LevelDeveloping: 2.2,
		types.LevelCompetent:  3.0,
		types.LevelAdvanced:   3.8,
		types.LevelExpert:     4.6,
	}

	computedAt := time.Now().AddDate(0, -11, 0)
	inserted := 0

	for _, org := range demoOrganizations {
		for _, level := range types.MaturityLevels {
			for i := 0; i < 4; i++ {
				base := levelBases[level]
				values := make([]IndicatorValue, 0, len(indicators))
				sum := 0.0
				for _, ind := range indicators {
					v := base + (rng.Float64()-0.5)*0.6
					if v < 1 {
						v = 1
					}
					if v > 5 {
						v = 5
					}
					values = append(values, IndicatorValue{
						IndicatorID:   ind.ID,
						IndicatorName: ind.Name,
						Value:         v,
						Level:         level,
					})
					sum += v
				}

				rec := EvaluationRecord{
					OrganizationID:   org.id,
					OrganizationName: org.name,
					OverallScore:     sum / float64(len(values)),
					MaturityLevel:    level,
					ComputedAt:       computedAt,
					Values:           values,
				}
				if err := r.InsertEvaluationRecord(ctx, &rec); err != nil {
					return fmt.Errorf("failed to seed record: %w", err)
				}
				inserted++
				computedAt = computedAt.AddDate(0, 0, 5)
			}
		}
	}

	slog.Info("Demo data seeded",
		"indicators", len(indicators),
		"records", inserted,
		"organizations", len(demoOrganizations))

	return nil
}
