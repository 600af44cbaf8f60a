package domain

// KPISummary holds the summary statistics of a filtered subset.
type KPISummary struct {
	RecordCount       int
	TotalPredictedGap float64
	TotalOrders       int64

	// Absent (nil) when the subset is empty. Zero is never a valid score.
	MaxRiskScore  *int
	YearOfMaxRisk *int // first record attaining MaxRiskScore

	MeanActualOutput  float64
	MeanPlannedOutput float64
	PerformanceRatio  float64 // MeanActualOutput / MeanPlannedOutput, 0 if planned mean <= 0
}

// HasRisk reports whether MaxRiskScore is defined.
func (k KPISummary) HasRisk() bool {
	return k.MaxRiskScore != nil
}

// KPISnapshot is a persisted record of one KPI computation.
type KPISnapshot struct {
	ID         string
	DatasetID  string
	ComputedAt int64 // Unix ms
	YearMin    int
	YearMax    int
	Levels     []RiskLevel // sorted by risk score
	Summary    KPISummary
}
