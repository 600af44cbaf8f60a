package dashboard

import (
	"time"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/insights"
)

// KPIResult is one KPI computation over a filtered dataset.
type KPIResult struct {
	DatasetID  string
	Filter     domain.FilterParams
	KPIs       domain.KPISummary
	SnapshotID string
}

// View is everything the dashboard shows for one filter.
type View struct {
	Dataset         domain.DatasetSummary
	Filter          domain.FilterParams
	KPIs            domain.KPISummary
	SnapshotID      string
	Insights        *insights.Insights
	Series          insights.Series
	Roadmap         insights.Roadmap
	Recommendations insights.Recommendations
}

// Stats are the service counters since start.
type Stats struct {
	StartedAt        time.Time
	Uptime           time.Duration
	DatasetsUploaded int64
	KPIComputations  int64
	SnapshotFailures int64
}
