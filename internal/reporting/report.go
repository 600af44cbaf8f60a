package reporting

import (
	"time"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/insights"
)

// Report represents the forecast oversight report for one filtered view
// of a dataset.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Dataset     domain.DatasetSummary

	// Filter applied to the dataset
	Filter FilterRow

	// KPIs of the filtered subset
	KPIs domain.KPISummary

	// Findings
	Insights        *insights.Insights
	Recommendations insights.Recommendations
	Roadmap         insights.Roadmap

	// Filtered subset in dataset order
	Records []domain.ForecastRecord
}

// FilterRow is the filter as rendered in reports.
type FilterRow struct {
	YearMin int
	YearMax int
	Levels  []domain.RiskLevel // sorted by risk score
}
