package domain

// Accepted calendar years. Filters, snapshots and storage columns all
// use this range.
const (
	MinYear = 0
	MaxYear = 9999
)

// ForecastRecord is one row of an uploaded dataset: one year's
// production and risk snapshot.
type ForecastRecord struct {
	Year          int       // unique per well-formed dataset
	PlannedOutput float64   // units planned
	ActualOutput  float64   // units produced
	Orders        int64     // units ordered
	Backlog       float64   // units awaiting fulfillment
	ProductionGap float64   // realized gap, negative when output beat target
	PredictedGap  float64   // forecasted gap
	RiskLevel     RiskLevel // Low | Medium | High
	RiskScore     int       // derived from RiskLevel; 0 until enriched
}

// Enriched reports whether the record carries a derived risk score.
func (r ForecastRecord) Enriched() bool {
	return r.RiskScore > 0
}

// FilterParams selects a subset of a dataset.
// Both year bounds are inclusive.
type FilterParams struct {
	YearMin int
	YearMax int
	Levels  RiskLevelSet
}
