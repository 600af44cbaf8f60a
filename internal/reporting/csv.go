package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"forecast-oversight/internal/domain"
)

// RenderRecordsCSV renders enriched records as CSV string.
// Column names match the upload format plus Risk_Score.
func RenderRecordsCSV(records []domain.ForecastRecord) string {
	var sb strings.Builder

	// Header
	sb.WriteString("Year,PlannedOutput,ActualOutput,Orders,Backlog,ProductionGap,Predicted_Gap,Risk_Level,Risk_Score\n")

	// Rows
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%d,%s,%s,%s,%s,%d\n",
			r.Year,
			formatFloat(r.PlannedOutput),
			formatFloat(r.ActualOutput),
			r.Orders,
			formatFloat(r.Backlog),
			formatFloat(r.ProductionGap),
			formatFloat(r.PredictedGap),
			r.RiskLevel,
			r.RiskScore,
		))
	}

	return sb.String()
}

// RenderKPICSV renders a KPI summary as a single-row CSV string.
// Absent max risk score and year are written as empty fields.
func RenderKPICSV(k domain.KPISummary) string {
	var sb strings.Builder

	sb.WriteString("record_count,total_predicted_gap,total_orders,max_risk_score,year_of_max_risk,")
	sb.WriteString("mean_actual_output,mean_planned_output,performance_ratio\n")

	sb.WriteString(fmt.Sprintf("%d,%s,%d,%s,%s,%.6f,%.6f,%.6f\n",
		k.RecordCount,
		formatFloat(k.TotalPredictedGap),
		k.TotalOrders,
		optionalField(k.MaxRiskScore),
		optionalField(k.YearOfMaxRisk),
		k.MeanActualOutput,
		k.MeanPlannedOutput,
		k.PerformanceRatio,
	))

	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionalField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
