package insights

import "fmt"

// Impact is one expected-impact figure.
type Impact struct {
	Metric string
	Value  string
	Detail string
}

// Recommendations are the actions suggested for a filtered subset.
type Recommendations struct {
	Critical         bool
	Alert            string   // empty when not critical
	ImmediateActions []string // empty when not critical
	Strategic        []string
	MediumTerm       []string
	ExpectedImpact   []Impact
}

// NoCriticalActions is the immediate-actions text when the alert is quiet.
const NoCriticalActions = "No immediate critical actions required"

// Recommend builds recommendations from evaluated insights.
func Recommend(ins *Insights) Recommendations {
	rec := Recommendations{
		ImmediateActions: []string{},
		Strategic: []string{
			"Real-time telemetry monitoring",
			"Automated KPI dashboards",
			"Strengthen supplier partnerships",
			"Capability development programs",
		},
		MediumTerm: []string{
			"Scale to all Tier-1 suppliers by Q3 2025",
			"Establish supplier excellence centers",
			"Negotiate flexible capacity agreements",
			"Invest in predictive analytics & AI",
			"Launch supplier recognition program",
		},
		ExpectedImpact: []Impact{
			{Metric: "Gap reduction", Value: "-25%", Detail: "by Q4 2025"},
			{Metric: "Risk detection", Value: "60%", Detail: "faster identification"},
			{Metric: "Cost savings", Value: "$50M+", Detail: "projected"},
		},
	}

	if ins.HighGap.Triggered {
		rec.Critical = true
		rec.Alert = fmt.Sprintf("High production gaps in years %s", formatYears(ins.HighGap.Years))
		rec.ImmediateActions = []string{
			"Deploy additional supplier oversight teams",
			"Initiate emergency performance reviews",
			"Implement enhanced quality controls",
			"Accelerate digital monitoring deployment",
		}
	}
	return rec
}
