// Package events publishes dataset and KPI events to Kafka.
package events

import (
	"context"

	"forecast-oversight/internal/domain"
)

// Default topics.
const (
	TopicDatasetUploaded = "dataset.uploaded"
	TopicKPIComputed     = "kpi.computed"
)

// DatasetUploaded is the payload of TopicDatasetUploaded.
type DatasetUploaded struct {
	DatasetID   string   `json:"dataset_id"`
	Name        string   `json:"name"`
	UploadedAt  int64    `json:"uploaded_at"`
	RecordCount int      `json:"record_count"`
	YearMin     int      `json:"year_min"`
	YearMax     int      `json:"year_max"`
	RiskLevels  []string `json:"risk_levels"`
}

// KPIComputed is the payload of TopicKPIComputed.
type KPIComputed struct {
	SnapshotID        string   `json:"snapshot_id"`
	DatasetID         string   `json:"dataset_id"`
	ComputedAt        int64    `json:"computed_at"`
	YearMin           int      `json:"year_min"`
	YearMax           int      `json:"year_max"`
	RiskLevels        []string `json:"risk_levels"`
	RecordCount       int      `json:"record_count"`
	TotalPredictedGap float64  `json:"total_predicted_gap"`
	TotalOrders       int64    `json:"total_orders"`
	MaxRiskScore      *int     `json:"max_risk_score"`
	YearOfMaxRisk     *int     `json:"year_of_max_risk"`
	PerformanceRatio  float64  `json:"performance_ratio"`
}

// Publisher publishes domain events.
type Publisher interface {
	// PublishDatasetUploaded announces a stored dataset.
	PublishDatasetUploaded(ctx context.Context, s domain.DatasetSummary) error

	// PublishKPIComputed announces a recorded KPI snapshot.
	PublishKPIComputed(ctx context.Context, snap *domain.KPISnapshot) error

	// Close flushes and releases resources.
	Close() error
}

// NewDatasetUploaded builds the event payload for a dataset summary.
func NewDatasetUploaded(s domain.DatasetSummary) DatasetUploaded {
	return DatasetUploaded{
		DatasetID:   s.ID,
		Name:        s.Name,
		UploadedAt:  s.UploadedAt,
		RecordCount: s.RecordCount,
		YearMin:     s.YearMin,
		YearMax:     s.YearMax,
		RiskLevels:  levelStrings(s.RiskLevels),
	}
}

// NewKPIComputed builds the event payload for a snapshot.
func NewKPIComputed(snap *domain.KPISnapshot) KPIComputed {
	return KPIComputed{
		SnapshotID:        snap.ID,
		DatasetID:         snap.DatasetID,
		ComputedAt:        snap.ComputedAt,
		YearMin:           snap.YearMin,
		YearMax:           snap.YearMax,
		RiskLevels:        levelStrings(snap.Levels),
		RecordCount:       snap.Summary.RecordCount,
		TotalPredictedGap: snap.Summary.TotalPredictedGap,
		TotalOrders:       snap.Summary.TotalOrders,
		MaxRiskScore:      snap.Summary.MaxRiskScore,
		YearOfMaxRisk:     snap.Summary.YearOfMaxRisk,
		PerformanceRatio:  snap.Summary.PerformanceRatio,
	}
}

func levelStrings(levels []domain.RiskLevel) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}

// NoopPublisher discards all events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishDatasetUploaded(context.Context, domain.DatasetSummary) error { return nil }
func (NoopPublisher) PublishKPIComputed(context.Context, *domain.KPISnapshot) error      { return nil }
func (NoopPublisher) Close() error                                                      { return nil }

var _ Publisher = NoopPublisher{}
