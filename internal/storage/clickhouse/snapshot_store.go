package clickhouse

import (
	"context"
	"fmt"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert adds a new snapshot. Returns ErrDuplicateKey if id exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.KPISnapshot) error {
	if !validSnapshot(snap) {
		return storage.ErrInvalidInput
	}

	// ReplacingMergeTree would silently replace; keep append-only semantics
	exists, err := s.exists(ctx, snap.ID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO kpi_snapshots (
			id, dataset_id, computed_at, year_min, year_max, risk_levels,
			record_count, total_predicted_gap, total_orders,
			max_risk_score, year_of_max_risk,
			mean_actual_output, mean_planned_output, performance_ratio
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	sum := snap.Summary
	err = batch.Append(
		snap.ID,
		snap.DatasetID,
		snap.ComputedAt,
		int32(snap.YearMin),
		int32(snap.YearMax),
		levelsToStrings(snap.Levels),
		uint32(sum.RecordCount),
		sum.TotalPredictedGap,
		sum.TotalOrders,
		toInt32Ptr(sum.MaxRiskScore),
		toInt32Ptr(sum.YearOfMaxRisk),
		sum.MeanActualOutput,
		sum.MeanPlannedOutput,
		sum.PerformanceRatio,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByDataset retrieves all snapshots for a dataset, ordered by computed_at ASC, id ASC.
func (s *SnapshotStore) GetByDataset(ctx context.Context, datasetID string) ([]*domain.KPISnapshot, error) {
	query := `
		SELECT
			id, dataset_id, computed_at, year_min, year_max, risk_levels,
			record_count, total_predicted_gap, total_orders,
			max_risk_score, year_of_max_risk,
			mean_actual_output, mean_planned_output, performance_ratio
		FROM kpi_snapshots FINAL
		WHERE dataset_id = ?
		ORDER BY computed_at ASC, id ASC
	`

	rows, err := s.conn.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query by dataset: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.KPISnapshot
	for rows.Next() {
		var (
			snap             domain.KPISnapshot
			yearMin, yearMax int32
			levels           []string
			recordCount      uint32
			maxRisk, maxYear *int32
		)
		err := rows.Scan(
			&snap.ID,
			&snap.DatasetID,
			&snap.ComputedAt,
			&yearMin,
			&yearMax,
			&levels,
			&recordCount,
			&snap.Summary.TotalPredictedGap,
			&snap.Summary.TotalOrders,
			&maxRisk,
			&maxYear,
			&snap.Summary.MeanActualOutput,
			&snap.Summary.MeanPlannedOutput,
			&snap.Summary.PerformanceRatio,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		snap.YearMin = int(yearMin)
		snap.YearMax = int(yearMax)
		snap.Levels = stringsToLevels(levels)
		snap.Summary.RecordCount = int(recordCount)
		snap.Summary.MaxRiskScore = fromInt32Ptr(maxRisk)
		snap.Summary.YearOfMaxRisk = fromInt32Ptr(maxYear)
		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}

func (s *SnapshotStore) exists(ctx context.Context, id string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM kpi_snapshots WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func levelsToStrings(levels []domain.RiskLevel) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}

func stringsToLevels(values []string) []domain.RiskLevel {
	out := make([]domain.RiskLevel, len(values))
	for i, v := range values {
		out[i] = domain.RiskLevel(v)
	}
	return out
}

// validSnapshot reports whether snap has ids and its years fit the Int32 columns.
func validSnapshot(snap *domain.KPISnapshot) bool {
	if snap == nil || snap.ID == "" || snap.DatasetID == "" {
		return false
	}
	years := []int{snap.YearMin, snap.YearMax}
	if y := snap.Summary.YearOfMaxRisk; y != nil {
		years = append(years, *y)
	}
	for _, y := range years {
		if y < domain.MinYear || y > domain.MaxYear {
			return false
		}
	}
	return true
}

func toInt32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func fromInt32Ptr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
