package api

import (
	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/insights"
)

type datasetJSON struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	UploadedAt  int64    `json:"uploaded_at"`
	RecordCount int      `json:"record_count"`
	YearMin     int      `json:"year_min"`
	YearMax     int      `json:"year_max"`
	YearSpan    int      `json:"year_span"`
	RiskLevels  []string `json:"risk_levels"`
}

type filterJSON struct {
	YearMin    int      `json:"year_min"`
	YearMax    int      `json:"year_max"`
	RiskLevels []string `json:"risk_levels"`
}

type kpiJSON struct {
	RecordCount       int     `json:"record_count"`
	TotalPredictedGap float64 `json:"total_predicted_gap"`
	TotalOrders       int64   `json:"total_orders"`
	MaxRiskScore      *int    `json:"max_risk_score"`
	YearOfMaxRisk     *int    `json:"year_of_max_risk"`
	MeanActualOutput  float64 `json:"mean_actual_output"`
	MeanPlannedOutput float64 `json:"mean_planned_output"`
	PerformanceRatio  float64 `json:"performance_ratio"`
}

type kpiResponse struct {
	DatasetID  string     `json:"dataset_id"`
	Filter     filterJSON `json:"filter"`
	KPIs       kpiJSON    `json:"kpis"`
	SnapshotID string     `json:"snapshot_id"`
}

type snapshotJSON struct {
	ID         string     `json:"id"`
	DatasetID  string     `json:"dataset_id"`
	ComputedAt int64      `json:"computed_at"`
	Filter     filterJSON `json:"filter"`
	KPIs       kpiJSON    `json:"kpis"`
}

type checkJSON struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
}

type insightsJSON struct {
	HighGap struct {
		Threshold float64 `json:"threshold"`
		Triggered bool    `json:"triggered"`
		Years     []int   `json:"years"`
	} `json:"high_gap"`
	RiskProfile struct {
		High   int `json:"high"`
		Medium int `json:"medium"`
		Low    int `json:"low"`
	} `json:"risk_profile"`
	Performance struct {
		Pct  float64 `json:"pct"`
		Band string  `json:"band"`
	} `json:"performance"`
	RiskBand     string      `json:"risk_band"`
	Checks       []checkJSON `json:"checks"`
	ChecksPassed int         `json:"checks_passed"`
}

type gapPointJSON struct {
	Year          int     `json:"year"`
	ProductionGap float64 `json:"production_gap"`
	PredictedGap  float64 `json:"predicted_gap"`
}

type riskPointJSON struct {
	Year  int    `json:"year"`
	Score int    `json:"score"`
	Level string `json:"level"`
}

type outputPointJSON struct {
	Year    int     `json:"year"`
	Planned float64 `json:"planned"`
	Actual  float64 `json:"actual"`
	Orders  int64   `json:"orders"`
}

type backlogPointJSON struct {
	Year    int     `json:"year"`
	Backlog float64 `json:"backlog"`
}

type backlogSeriesJSON struct {
	Level  string             `json:"level"`
	Points []backlogPointJSON `json:"points"`
}

type seriesJSON struct {
	Gap     []gapPointJSON      `json:"gap"`
	Risk    []riskPointJSON     `json:"risk"`
	Output  []outputPointJSON   `json:"output"`
	Backlog []backlogSeriesJSON `json:"backlog"`
}

type phaseJSON struct {
	Name     string `json:"name"`
	Start    string `json:"start"`
	Finish   string `json:"finish"`
	Category string `json:"category"`
	Days     int    `json:"days"`
}

type milestoneJSON struct {
	Quarter string   `json:"quarter"`
	Theme   string   `json:"theme"`
	Items   []string `json:"items"`
}

type roadmapJSON struct {
	Year       int             `json:"year"`
	Phases     []phaseJSON     `json:"phases"`
	Milestones []milestoneJSON `json:"milestones"`
}

type impactJSON struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
	Detail string `json:"detail"`
}

type recommendationsJSON struct {
	Critical         bool         `json:"critical"`
	Alert            string       `json:"alert,omitempty"`
	ImmediateActions []string     `json:"immediate_actions"`
	Strategic        []string     `json:"strategic"`
	MediumTerm       []string     `json:"medium_term"`
	ExpectedImpact   []impactJSON `json:"expected_impact"`
}

type viewJSON struct {
	Dataset         datasetJSON         `json:"dataset"`
	Filter          filterJSON          `json:"filter"`
	KPIs            kpiJSON             `json:"kpis"`
	SnapshotID      string              `json:"snapshot_id"`
	Insights        insightsJSON        `json:"insights"`
	Series          seriesJSON          `json:"series"`
	Roadmap         roadmapJSON         `json:"roadmap"`
	Recommendations recommendationsJSON `json:"recommendations"`
}

type errorJSON struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func levelStrings(levels []domain.RiskLevel) []string {
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		out = append(out, string(l))
	}
	return out
}

func toDatasetJSON(s domain.DatasetSummary) datasetJSON {
	return datasetJSON{
		ID:          s.ID,
		Name:        s.Name,
		UploadedAt:  s.UploadedAt,
		RecordCount: s.RecordCount,
		YearMin:     s.YearMin,
		YearMax:     s.YearMax,
		YearSpan:    s.YearSpan,
		RiskLevels:  levelStrings(s.RiskLevels),
	}
}

func toFilterJSON(p domain.FilterParams) filterJSON {
	return filterJSON{
		YearMin:    p.YearMin,
		YearMax:    p.YearMax,
		RiskLevels: levelStrings(p.Levels.Sorted()),
	}
}

func toKPIJSON(k domain.KPISummary) kpiJSON {
	return kpiJSON{
		RecordCount:       k.RecordCount,
		TotalPredictedGap: k.TotalPredictedGap,
		TotalOrders:       k.TotalOrders,
		MaxRiskScore:      k.MaxRiskScore,
		YearOfMaxRisk:     k.YearOfMaxRisk,
		MeanActualOutput:  k.MeanActualOutput,
		MeanPlannedOutput: k.MeanPlannedOutput,
		PerformanceRatio:  k.PerformanceRatio,
	}
}

func toSnapshotJSON(s *domain.KPISnapshot) snapshotJSON {
	return snapshotJSON{
		ID:         s.ID,
		DatasetID:  s.DatasetID,
		ComputedAt: s.ComputedAt,
		Filter: filterJSON{
			YearMin:    s.YearMin,
			YearMax:    s.YearMax,
			RiskLevels: levelStrings(s.Levels),
		},
		KPIs: toKPIJSON(s.Summary),
	}
}

func toInsightsJSON(ins *insights.Insights) insightsJSON {
	var out insightsJSON
	out.HighGap.Threshold = ins.HighGap.Threshold
	out.HighGap.Triggered = ins.HighGap.Triggered
	out.HighGap.Years = append([]int{}, ins.HighGap.Years...)
	out.RiskProfile.High = ins.RiskProfile.High
	out.RiskProfile.Medium = ins.RiskProfile.Medium
	out.RiskProfile.Low = ins.RiskProfile.Low
	out.Performance.Pct = ins.Performance.Pct
	out.Performance.Band = string(ins.Performance.Band)
	out.RiskBand = string(ins.RiskBand)
	out.Checks = make([]checkJSON, 0, len(ins.Checks))
	for _, c := range ins.Checks {
		out.Checks = append(out.Checks, checkJSON(c))
	}
	out.ChecksPassed = ins.ChecksPassed()
	return out
}

func toSeriesJSON(s insights.Series) seriesJSON {
	out := seriesJSON{
		Gap:     make([]gapPointJSON, 0, len(s.Gap)),
		Risk:    make([]riskPointJSON, 0, len(s.Risk)),
		Output:  make([]outputPointJSON, 0, len(s.Output)),
		Backlog: make([]backlogSeriesJSON, 0, len(s.Backlog)),
	}
	for _, p := range s.Gap {
		out.Gap = append(out.Gap, gapPointJSON(p))
	}
	for _, p := range s.Risk {
		out.Risk = append(out.Risk, riskPointJSON{Year: p.Year, Score: p.Score, Level: string(p.Level)})
	}
	for _, p := range s.Output {
		out.Output = append(out.Output, outputPointJSON(p))
	}
	for _, b := range s.Backlog {
		points := make([]backlogPointJSON, 0, len(b.Points))
		for _, p := range b.Points {
			points = append(points, backlogPointJSON(p))
		}
		out.Backlog = append(out.Backlog, backlogSeriesJSON{Level: string(b.Level), Points: points})
	}
	return out
}

func toRoadmapJSON(r insights.Roadmap) roadmapJSON {
	out := roadmapJSON{
		Year:       r.Year,
		Phases:     make([]phaseJSON, 0, len(r.Phases)),
		Milestones: make([]milestoneJSON, 0, len(r.Milestones)),
	}
	for _, p := range r.Phases {
		out.Phases = append(out.Phases, phaseJSON{
			Name:     p.Name,
			Start:    p.Start,
			Finish:   p.Finish,
			Category: p.Category,
			Days:     p.Days(),
		})
	}
	for _, m := range r.Milestones {
		out.Milestones = append(out.Milestones, milestoneJSON(m))
	}
	return out
}

func toRecommendationsJSON(r insights.Recommendations) recommendationsJSON {
	out := recommendationsJSON{
		Critical:         r.Critical,
		Alert:            r.Alert,
		ImmediateActions: append([]string{}, r.ImmediateActions...),
		Strategic:        append([]string{}, r.Strategic...),
		MediumTerm:       append([]string{}, r.MediumTerm...),
		ExpectedImpact:   make([]impactJSON, 0, len(r.ExpectedImpact)),
	}
	for _, i := range r.ExpectedImpact {
		out.ExpectedImpact = append(out.ExpectedImpact, impactJSON(i))
	}
	return out
}
