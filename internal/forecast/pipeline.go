// Package forecast implements the forecast aggregation pipeline:
// load -> enrich -> filter -> aggregate.
package forecast

import (
	"io"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/metrics"
)

// Result is the filtered subset together with its aggregate.
type Result struct {
	Subset []domain.ForecastRecord
	KPIs   domain.KPISummary
}

// Run enriches records, applies params and aggregates the subset.
// Fails with *DataValidationError if any record carries an unknown risk label.
func Run(records []domain.ForecastRecord, params domain.FilterParams) (*Result, error) {
	enriched, err := EnrichAll(records)
	if err != nil {
		return nil, err
	}
	subset := Apply(enriched, params)
	return &Result{Subset: subset, KPIs: metrics.Aggregate(subset)}, nil
}

// ComputeKPIs enriches records, filters them to [yearMin, yearMax] and
// allowed, and aggregates the subset. It is the single entry point the
// presentation layer calls on every filter change.
// Aggregates cover the filtered subset only. Fails with
// *DataValidationError if any record carries an unknown risk label.
func ComputeKPIs(records []domain.ForecastRecord, yearMin, yearMax int, allowed domain.RiskLevelSet) (domain.KPISummary, error) {
	res, err := Run(records, domain.FilterParams{YearMin: yearMin, YearMax: yearMax, Levels: allowed})
	if err != nil {
		return domain.KPISummary{}, err
	}
	return res.KPIs, nil
}

// LoadAndEnrich parses CSV input and enriches every record. The result
// is ready for Filter and metrics.Aggregate.
func LoadAndEnrich(r io.Reader) ([]domain.ForecastRecord, error) {
	records, err := Load(r)
	if err != nil {
		return nil, err
	}
	return EnrichAll(records)
}
