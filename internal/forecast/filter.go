package forecast

import "forecast-oversight/internal/domain"

// Filter returns the records with yearMin <= Year <= yearMax whose
// RiskLevel is in allowed, preserving input order.
// An empty allowed set yields an empty subset. Bounds are not reordered:
// yearMin > yearMax matches nothing.
func Filter(records []domain.ForecastRecord, yearMin, yearMax int, allowed domain.RiskLevelSet) []domain.ForecastRecord {
	subset := make([]domain.ForecastRecord, 0, len(records))
	if len(allowed) == 0 {
		return subset
	}
	for _, rec := range records {
		if rec.Year < yearMin || rec.Year > yearMax {
			continue
		}
		if !allowed.Contains(rec.RiskLevel) {
			continue
		}
		subset = append(subset, rec)
	}
	return subset
}

// Apply filters records with the given params.
func Apply(records []domain.ForecastRecord, params domain.FilterParams) []domain.ForecastRecord {
	return Filter(records, params.YearMin, params.YearMax, params.Levels)
}
