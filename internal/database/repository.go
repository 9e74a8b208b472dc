package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// ListIndicators returns all indicators ordered by their stable id. This
// ordering is the canonical one for feature vector construction.
func (r *Repository) ListIndicators(ctx context.Context) ([]Indicator, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, created_at
		FROM indicators
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list indicators: %w", err)
	}
	defer rows.Close()

	var indicators []Indicator
	for rows.Next() {
		var ind Indicator
		if err := rows.Scan(&ind.ID, &ind.Name, &ind.Category, &ind.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, ind)
	}

	return indicators, rows.Err()
}

// InsertIndicator inserts a new indicator and returns it with its assigned id.
func (r *Repository) InsertIndicator(ctx context.Context, name, category string) (*Indicator, error) {
	ind := Indicator{Name: name, Category: category, CreatedAt: time.Now()}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO indicators (name, category, created_at) VALUES (?, ?, ?)
	`, ind.Name, ind.Category, ind.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert indicator: %w", err)
	}

	ind.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator id: %w", err)
	}

	return &ind, nil
}

// ListEvaluationRecords returns evaluation records with their indicator values
// attached, ordered by computation time. A non-zero organizationID filters to
// that organization.
func (r *Repository) ListEvaluationRecords(ctx context.Context, organizationID int64) ([]EvaluationRecord, error) {
	query := `
		SELECT id, organization_id, organization_name, overall_score, maturity_level, computed_at
		FROM evaluation_records
	`
	args := []interface{}{}
	if organizationID > 0 {
		query += ` WHERE organization_id = ?`
		args = append(args, organizationID)
	}
	query += ` ORDER BY computed_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation records: %w", err)
	}
	defer rows.Close()

	var records []EvaluationRecord
	byID := make(map[int64]int)
	for rows.Next() {
		var rec EvaluationRecord
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.OrganizationName,
			&rec.OverallScore, &rec.MaturityLevel, &rec.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation record: %w", err)
		}
		byID[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return records, nil
	}

	valueQuery := `
		SELECT v.id, v.record_id, v.indicator_id, i.name, v.value, v.level
		FROM indicator_values v
		JOIN indicators i ON i.id = v.indicator_id
	`
	valueArgs := []interface{}{}
	if organizationID > 0 {
		valueQuery += ` JOIN evaluation_records e ON e.id = v.record_id WHERE e.organization_id = ?`
		valueArgs = append(valueArgs, organizationID)
	}
	valueQuery += ` ORDER BY v.indicator_id ASC`

	valueRows, err := r.db.QueryContext(ctx, valueQuery, valueArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list indicator values: %w", err)
	}
	defer valueRows.Close()

	for valueRows.Next() {
		var val IndicatorValue
		if err := valueRows.Scan(&val.ID, &val.RecordID, &val.IndicatorID,
			&val.IndicatorName, &val.Value, &val.Level); err != nil {
			return nil, fmt.Errorf("failed to scan indicator value: %w", err)
		}
		if idx, ok := byID[val.RecordID]; ok {
			records[idx].Values = append(records[idx].Values, val)
		}
	}

	return records, valueRows.Err()
}

// GetEvaluationRecord fetches a single record by id, without indicator values.
// Returns sql.ErrNoRows when the record does not exist.
func (r *Repository) GetEvaluationRecord(ctx context.Context, id int64) (*EvaluationRecord, error) {
	var rec EvaluationRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_id, organization_name, overall_score, maturity_level, computed_at
		FROM evaluation_records
		WHERE id = ?
	`, id).Scan(&rec.ID, &rec.OrganizationID, &rec.OrganizationName,
		&rec.OverallScore, &rec.MaturityLevel, &rec.ComputedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InsertEvaluationRecord inserts a record and its indicator values in one
// transaction. Used by the demo seeder and tests; production records come from
// the survey aggregation pipeline.
func (r *Repository) InsertEvaluationRecord(ctx context.Context, rec *EvaluationRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO evaluation_records (organization_id, organization_name, overall_score, maturity_level, computed_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.OrganizationID, rec.OrganizationName, rec.OverallScore, rec.MaturityLevel, rec.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation record: %w", err)
	}

	rec.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get record id: %w", err)
	}

	for i := range rec.Values {
		rec.Values[i].RecordID = rec.ID
		valRes, err := tx.ExecContext(ctx, `
			INSERT INTO indicator_values (record_id, indicator_id, value, level)
			VALUES (?, ?, ?, ?)
		`, rec.ID, rec.Values[i].IndicatorID, rec.Values[i].Value, rec.Values[i].Level)
		if err != nil {
			return fmt.Errorf("failed to insert indicator value: %w", err)
		}
		rec.Values[i].ID, _ = valRes.LastInsertId()
	}

	return tx.Commit()
}

// CountEvaluationRecords returns the total number of evaluation records.
func (r *Repository) CountEvaluationRecords(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluation_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count evaluation records: %w", err)
	}
	return count, nil
}

// InsertTrainingRun appends a training run to the log.
func (r *Repository) InsertTrainingRun(ctx context.Context, run *TrainingRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO training_runs (id, model_name, version, accuracy, artifact_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.ModelName, run.Version, run.Accuracy, run.ArtifactPath, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}
	return nil
}

// LatestTrainingRun returns the most recent training run, or nil when no
// training has happened yet.
func (r *Repository) LatestTrainingRun(ctx context.Context) (*TrainingRun, error) {
	var run TrainingRun
	err := r.db.QueryRowContext(ctx, `
		SELECT id, model_name, version, accuracy, artifact_path, created_at
		FROM training_runs
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.ModelName, &run.Version, &run.Accuracy, &run.ArtifactPath, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest training run: %w", err)
	}
	return &run, nil
}

// InsertPrediction appends a prediction to the log.
func (r *Repository) InsertPrediction(ctx context.Context, p *Prediction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO predictions (id, training_run_id, record_id, predicted_level, probability, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.TrainingRunID, p.RecordID, p.PredictedLevel, p.Probability, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}
