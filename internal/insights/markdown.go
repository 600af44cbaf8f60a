package insights

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders insights, recommendations and roadmap as Markdown
// sections (level-2 headings) for embedding in a larger report.
func RenderMarkdown(ins *Insights, rec Recommendations, roadmap Roadmap) string {
	var sb strings.Builder

	sb.WriteString("## Key Insights\n\n")
	if ins.HighGap.Triggered {
		sb.WriteString(fmt.Sprintf("- **High Gap Alert**: %d years exceed %.0f (years: %s)\n",
			len(ins.HighGap.Years), ins.HighGap.Threshold, formatYears(ins.HighGap.Years)))
	} else {
		sb.WriteString("- **On Track**: all gaps within range\n")
	}
	sb.WriteString(fmt.Sprintf("- **Risk Profile**: %d High | %d Medium | %d Low\n",
		ins.RiskProfile.High, ins.RiskProfile.Medium, ins.RiskProfile.Low))
	sb.WriteString(fmt.Sprintf("- **Performance**: %.1f%% of plan achieved (%s)\n", ins.Performance.Pct, ins.Performance.Band))
	sb.WriteString(fmt.Sprintf("- **Risk Band**: %s\n\n", ins.RiskBand))

	// Checklist
	sb.WriteString("| # | Check | Threshold | Actual | Status |\n")
	sb.WriteString("|---|-------|-----------|--------|--------|\n")
	for i, c := range ins.Checks {
		status := "PASS"
		if !c.Pass {
			status = "ATTENTION"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n", i+1, c.Name, c.Threshold, c.Actual, status))
	}
	sb.WriteString(fmt.Sprintf("\nChecks: %d/%d passed\n\n", ins.ChecksPassed(), len(ins.Checks)))

	sb.WriteString("## Strategic Recommendations\n\n")
	sb.WriteString("### Immediate Actions\n\n")
	if rec.Critical {
		sb.WriteString(fmt.Sprintf("**Critical Alert:** %s\n\n", rec.Alert))
		writeList(&sb, rec.ImmediateActions)
	} else {
		sb.WriteString(NoCriticalActions + "\n\n")
	}
	sb.WriteString("### Strategic Priorities\n\n")
	writeList(&sb, rec.Strategic)
	sb.WriteString("### Medium-Term Strategy\n\n")
	writeList(&sb, rec.MediumTerm)
	sb.WriteString("### Expected Impact\n\n")
	sb.WriteString("| Metric | Value | Detail |\n")
	sb.WriteString("|--------|-------|--------|\n")
	for _, im := range rec.ExpectedImpact {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", im.Metric, im.Value, im.Detail))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("## Implementation Roadmap %d\n\n", roadmap.Year))
	sb.WriteString("| Phase | Start | Finish | Days | Category |\n")
	sb.WriteString("|-------|-------|--------|------|----------|\n")
	for _, p := range roadmap.Phases {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n", p.Name, p.Start, p.Finish, p.Days(), p.Category))
	}
	sb.WriteString("\n")
	for _, m := range roadmap.Milestones {
		sb.WriteString(fmt.Sprintf("**%s: %s**\n\n", m.Quarter, m.Theme))
		writeList(&sb, m.Items)
	}

	return sb.String()
}

func writeList(sb *strings.Builder, items []string) {
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
	sb.WriteString("\n")
}
