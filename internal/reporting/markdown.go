package reporting

import (
	"fmt"
	"strings"
	"time"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/insights"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Forecast Oversight Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Dataset: %s (%s)\n\n", r.Dataset.Name, r.Dataset.ID))

	// Dataset Summary
	sb.WriteString("## Dataset Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Records | %d |\n", r.Dataset.RecordCount))
	if r.Dataset.RecordCount > 0 {
		sb.WriteString(fmt.Sprintf("| Years | %d-%d |\n", r.Dataset.YearMin, r.Dataset.YearMax))
	} else {
		sb.WriteString("| Years | - |\n")
	}
	sb.WriteString(fmt.Sprintf("| Year Span | %d |\n", r.Dataset.YearSpan))
	sb.WriteString(fmt.Sprintf("| Risk Levels | %s |\n", joinLevels(r.Dataset.RiskLevels)))
	sb.WriteString("\n")

	// Filter
	sb.WriteString("## Filter\n\n")
	sb.WriteString(fmt.Sprintf("Years %d-%d, risk levels: %s\n\n", r.Filter.YearMin, r.Filter.YearMax, joinLevels(r.Filter.Levels)))

	// KPIs
	sb.WriteString("## Key Performance Indicators\n\n")
	sb.WriteString("| KPI | Value |\n")
	sb.WriteString("|-----|-------|\n")
	sb.WriteString(fmt.Sprintf("| Records in View | %d |\n", r.KPIs.RecordCount))
	sb.WriteString(fmt.Sprintf("| Total Predicted Gap | %.0f units |\n", r.KPIs.TotalPredictedGap))
	sb.WriteString(fmt.Sprintf("| Total Orders | %d units |\n", r.KPIs.TotalOrders))
	sb.WriteString(fmt.Sprintf("| Max Risk Score | %s |\n", formatOptional(r.KPIs.MaxRiskScore)))
	sb.WriteString(fmt.Sprintf("| Year of Max Risk | %s |\n", formatOptional(r.KPIs.YearOfMaxRisk)))
	sb.WriteString(fmt.Sprintf("| Performance | %.1f%% |\n", r.KPIs.PerformanceRatio*100))
	sb.WriteString("\n")

	// Insights, recommendations and roadmap
	if r.Insights != nil {
		sb.WriteString(insights.RenderMarkdown(r.Insights, r.Recommendations, r.Roadmap))
	}

	// Records
	sb.WriteString("## Filtered Records\n\n")
	if len(r.Records) > 0 {
		sb.WriteString("| Year | Risk | Score | Planned | Actual | Orders | Backlog | Gap | Predicted Gap |\n")
		sb.WriteString("|------|------|-------|---------|--------|--------|---------|-----|---------------|\n")
		for _, rec := range r.Records {
			sb.WriteString(fmt.Sprintf("| %d | %s | %d | %.0f | %.0f | %d | %.0f | %.0f | %.0f |\n",
				rec.Year, rec.RiskLevel, rec.RiskScore,
				rec.PlannedOutput, rec.ActualOutput, rec.Orders, rec.Backlog,
				rec.ProductionGap, rec.PredictedGap))
		}
	} else {
		sb.WriteString("No records match the filter.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatOptional(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func joinLevels(levels []domain.RiskLevel) string {
	if len(levels) == 0 {
		return "none"
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
