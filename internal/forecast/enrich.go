package forecast

import "forecast-oversight/internal/domain"

// Enrich returns a copy of rec with RiskScore derived from RiskLevel
// (Low=1, Medium=2, High=3). Unknown labels fail with *DataValidationError.
func Enrich(rec domain.ForecastRecord) (domain.ForecastRecord, error) {
	score, ok := rec.RiskLevel.Score()
	if !ok {
		return rec, &DataValidationError{Year: rec.Year, Value: rec.RiskLevel}
	}
	rec.RiskScore = score
	return rec, nil
}

// EnrichAll enriches every record into a new slice, stopping at the
// first invalid record. The input slice is not modified.
func EnrichAll(records []domain.ForecastRecord) ([]domain.ForecastRecord, error) {
	out := make([]domain.ForecastRecord, len(records))
	for i, rec := range records {
		enriched, err := Enrich(rec)
		if err != nil {
			return nil, err
		}
		out[i] = enriched
	}
	return out, nil
}
