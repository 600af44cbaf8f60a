package insights

import "forecast-oversight/internal/domain"

// GapPoint pairs the realized and forecasted gap of a year.
type GapPoint struct {
	Year          int
	ProductionGap float64 // historical
	PredictedGap  float64
}

// RiskPoint is the risk score of a year.
type RiskPoint struct {
	Year  int
	Score int
	Level domain.RiskLevel
}

// OutputPoint compares planned output, actual output and demand.
type OutputPoint struct {
	Year    int
	Planned float64
	Actual  float64
	Orders  int64
}

// BacklogPoint is the backlog of a year.
type BacklogPoint struct {
	Year    int
	Backlog float64
}

// BacklogSeries is the backlog trend of one risk level.
type BacklogSeries struct {
	Level  domain.RiskLevel
	Points []BacklogPoint
}

// Series holds chart-ready series for a filtered subset.
type Series struct {
	Gap     []GapPoint
	Risk    []RiskPoint
	Output  []OutputPoint
	Backlog []BacklogSeries // by ascending risk score, levels without records omitted
}

// BuildSeries builds chart series from an enriched subset, in subset order.
func BuildSeries(subset []domain.ForecastRecord) Series {
	s := Series{
		Gap:     make([]GapPoint, 0, len(subset)),
		Risk:    make([]RiskPoint, 0, len(subset)),
		Output:  make([]OutputPoint, 0, len(subset)),
		Backlog: []BacklogSeries{},
	}

	byLevel := make(map[domain.RiskLevel][]BacklogPoint)
	for _, r := range subset {
		s.Gap = append(s.Gap, GapPoint{Year: r.Year, ProductionGap: r.ProductionGap, PredictedGap: r.PredictedGap})
		s.Risk = append(s.Risk, RiskPoint{Year: r.Year, Score: r.RiskScore, Level: r.RiskLevel})
		s.Output = append(s.Output, OutputPoint{Year: r.Year, Planned: r.PlannedOutput, Actual: r.ActualOutput, Orders: r.Orders})
		byLevel[r.RiskLevel] = append(byLevel[r.RiskLevel], BacklogPoint{Year: r.Year, Backlog: r.Backlog})
	}

	for _, level := range domain.AllRiskLevels() {
		if points, ok := byLevel[level]; ok {
			s.Backlog = append(s.Backlog, BacklogSeries{Level: level, Points: points})
		}
	}
	return s
}
