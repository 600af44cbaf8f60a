// Package metrics computes KPI summaries over forecast records.
package metrics

import "forecast-oversight/internal/domain"

// Aggregate computes the KPI summary of a filtered subset.
// Records must be enriched (RiskScore set).
//
// Empty subset: sums and means are 0, MaxRiskScore and YearOfMaxRisk are nil.
// Ties on the maximum risk score resolve to the first record in subset order.
func Aggregate(subset []domain.ForecastRecord) domain.KPISummary {
	n := len(subset)
	if n == 0 {
		return domain.KPISummary{}
	}

	var (
		totalGap     float64
		totalOrders  int64
		actual       = make([]float64, n)
		planned      = make([]float64, n)
		maxIdx       = -1
		maxRiskScore int
	)

	for i, rec := range subset {
		totalGap += rec.PredictedGap
		totalOrders += rec.Orders
		actual[i] = rec.ActualOutput
		planned[i] = rec.PlannedOutput

		// Strict comparison keeps the first occurrence on ties.
		if maxIdx < 0 || rec.RiskScore > maxRiskScore {
			maxIdx = i
			maxRiskScore = rec.RiskScore
		}
	}

	meanActual := computeMean(actual)
	meanPlanned := computeMean(planned)
	year := subset[maxIdx].Year

	return domain.KPISummary{
		RecordCount:       n,
		TotalPredictedGap: totalGap,
		TotalOrders:       totalOrders,
		MaxRiskScore:      &maxRiskScore,
		YearOfMaxRisk:     &year,
		MeanActualOutput:  meanActual,
		MeanPlannedOutput: meanPlanned,
		PerformanceRatio:  computeRatio(meanActual, meanPlanned),
	}
}

// computeMean calculates the arithmetic mean, 0 for no values.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeRatio returns num/den, or 0 when den <= 0.
func computeRatio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
