package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/storage"
)

// DatasetStore implements storage.DatasetStore using PostgreSQL.
// Uses two tables:
//   - datasets: one row per upload with its summary columns
//   - forecast_records: enriched records keyed by (dataset_id, seq)
type DatasetStore struct {
	pool *Pool
}

// NewDatasetStore creates a new DatasetStore.
func NewDatasetStore(pool *Pool) *DatasetStore {
	return &DatasetStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DatasetStore = (*DatasetStore)(nil)

var forecastRecordColumns = []string{
	"dataset_id", "seq", "year",
	"planned_output", "actual_output", "orders", "backlog",
	"production_gap", "predicted_gap", "risk_level", "risk_score",
}

// Insert adds a new dataset and its records atomically. Returns ErrDuplicateKey if id exists,
// ErrInvalidInput if a record has no derived risk score.
func (s *DatasetStore) Insert(ctx context.Context, d *domain.Dataset) error {
	if d == nil || d.ID == "" {
		return storage.ErrInvalidInput
	}

	summary := d.Summarize()

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO datasets (
				id, name, uploaded_at, record_count, year_min, year_max, risk_levels
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			d.ID,
			d.Name,
			d.UploadedAt,
			summary.RecordCount,
			summary.YearMin,
			summary.YearMax,
			levelsToStrings(summary.RiskLevels),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert dataset: %w", err)
		}

		if len(d.Records) == 0 {
			return nil
		}
		rows := make([][]any, len(d.Records))
		for i, r := range d.Records {
			rows[i] = []any{
				d.ID, i, r.Year,
				r.PlannedOutput, r.ActualOutput, r.Orders, r.Backlog,
				r.ProductionGap, r.PredictedGap, string(r.RiskLevel), r.RiskScore,
			}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"forecast_records"}, forecastRecordColumns, pgx.CopyFromRows(rows)); err != nil {
			if isCheckViolation(err) {
				return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
			}
			return fmt.Errorf("copy forecast records: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a dataset with its records in upload order. Returns ErrNotFound if not exists.
func (s *DatasetStore) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	var d domain.Dataset
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, uploaded_at
		FROM datasets
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.UploadedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get dataset by id: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT year, planned_output, actual_output, orders, backlog,
		       production_gap, predicted_gap, risk_level, risk_score
		FROM forecast_records
		WHERE dataset_id = $1
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get forecast records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	d.Records = records
	return &d, nil
}

// List retrieves summaries of all datasets, ordered by uploaded_at ASC, id ASC.
func (s *DatasetStore) List(ctx context.Context) ([]domain.DatasetSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, uploaded_at, record_count, year_min, year_max, risk_levels
		FROM datasets
		ORDER BY uploaded_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	summaries := []domain.DatasetSummary{}
	for rows.Next() {
		var sum domain.DatasetSummary
		var levels []string
		if err := rows.Scan(
			&sum.ID,
			&sum.Name,
			&sum.UploadedAt,
			&sum.RecordCount,
			&sum.YearMin,
			&sum.YearMax,
			&levels,
		); err != nil {
			return nil, fmt.Errorf("scan dataset row: %w", err)
		}
		if sum.RecordCount > 0 {
			sum.YearSpan = sum.YearMax - sum.YearMin + 1
		}
		sum.RiskLevels = stringsToLevels(levels)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset rows: %w", err)
	}
	return summaries, nil
}

// Delete removes a dataset. Records are removed by ON DELETE CASCADE.
// Returns ErrNotFound if not exists.
func (s *DatasetStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanRecords scans forecast_records rows in query order.
func scanRecords(rows pgx.Rows) ([]domain.ForecastRecord, error) {
	records := []domain.ForecastRecord{}

	for rows.Next() {
		var r domain.ForecastRecord
		var level string

		err := rows.Scan(
			&r.Year,
			&r.PlannedOutput,
			&r.ActualOutput,
			&r.Orders,
			&r.Backlog,
			&r.ProductionGap,
			&r.PredictedGap,
			&level,
			&r.RiskScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan forecast record row: %w", err)
		}

		r.RiskLevel = domain.RiskLevel(level)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forecast record rows: %w", err)
	}

	return records, nil
}

func levelsToStrings(levels []domain.RiskLevel) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}

func stringsToLevels(values []string) []domain.RiskLevel {
	if len(values) == 0 {
		return nil
	}
	out := make([]domain.RiskLevel, len(values))
	for i, v := range values {
		out[i] = domain.RiskLevel(v)
	}
	return out
}
