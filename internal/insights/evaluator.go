// Package insights derives oversight findings, chart series and
// recommendations from a filtered set of forecast records.
package insights

import (
	"fmt"
	"strconv"
	"strings"

	"forecast-oversight/internal/domain"
)

// Evaluator evaluates oversight checks against configured thresholds.
type Evaluator struct {
	thresholds Thresholds
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(thresholds Thresholds) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Thresholds returns the evaluator's thresholds.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate produces Insights for a filtered, enriched subset and its KPIs.
// kpis must be the aggregate of subset.
func (e *Evaluator) Evaluate(subset []domain.ForecastRecord, kpis domain.KPISummary) *Insights {
	ins := &Insights{
		HighGap:     e.highGap(subset),
		RiskProfile: riskProfile(subset),
		Performance: e.performance(kpis),
		RiskBand:    riskBand(kpis.MaxRiskScore),
	}
	ins.Checks = e.checks(ins)
	return ins
}

func (e *Evaluator) highGap(subset []domain.ForecastRecord) HighGapAlert {
	alert := HighGapAlert{Threshold: e.thresholds.HighGap, Years: []int{}}
	for _, r := range subset {
		if r.PredictedGap > e.thresholds.HighGap {
			alert.Years = append(alert.Years, r.Year)
		}
	}
	alert.Triggered = len(alert.Years) > 0
	return alert
}

func riskProfile(subset []domain.ForecastRecord) RiskProfile {
	var p RiskProfile
	for _, r := range subset {
		switch r.RiskLevel {
		case domain.RiskHigh:
			p.High++
		case domain.RiskMedium:
			p.Medium++
		case domain.RiskLow:
			p.Low++
		}
	}
	return p
}

func (e *Evaluator) performance(kpis domain.KPISummary) Performance {
	pct := kpis.PerformanceRatio * 100
	band := BandCritical
	switch {
	case pct >= e.thresholds.OnTrackPct:
		band = BandOnTrack
	case pct >= e.thresholds.WatchPct:
		band = BandWatch
	}
	return Performance{Pct: pct, Band: band}
}

func riskBand(maxScore *int) RiskBand {
	if maxScore == nil {
		return RiskBandNone
	}
	switch *maxScore {
	case 3:
		return RiskBandCritical
	case 2:
		return RiskBandElevated
	default:
		return RiskBandNominal
	}
}

// checks builds the checklist. Pass=false means the finding needs attention.
func (e *Evaluator) checks(ins *Insights) []CriterionResult {
	checks := make([]CriterionResult, 3)

	// 1. No year above the high gap threshold
	checks[0] = CriterionResult{
		Name:      "Predicted gap within range",
		Threshold: fmt.Sprintf("<= %.0f", e.thresholds.HighGap),
		Actual:    formatYears(ins.HighGap.Years),
		Pass:      !ins.HighGap.Triggered,
	}

	// 2. Performance not critical
	checks[1] = CriterionResult{
		Name:      "Plan achievement",
		Threshold: fmt.Sprintf(">= %.0f%%", e.thresholds.WatchPct),
		Actual:    fmt.Sprintf("%.1f%% (%s)", ins.Performance.Pct, ins.Performance.Band),
		Pass:      ins.Performance.Band != BandCritical,
	}

	// 3. No High risk years
	checks[2] = CriterionResult{
		Name:      "High risk years",
		Threshold: "0",
		Actual:    strconv.Itoa(ins.RiskProfile.High),
		Pass:      ins.RiskProfile.High == 0,
	}

	return checks
}

func formatYears(years []int) string {
	if len(years) == 0 {
		return "none"
	}
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ", ")
}
