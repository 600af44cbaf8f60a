package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"forecast-oversight/internal/config"
	"forecast-oversight/internal/dashboard"
	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/insights"
	"forecast-oversight/internal/reporting"
	"forecast-oversight/internal/storage/memory"
)

func main() {
	cfg, err := config.Load(os.Getenv("FORECAST_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags
	input := flag.String("input", "", "Forecast CSV file")
	name := flag.String("name", "", "Dataset name (defaults to the file name)")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for generated files")
	yearMin := flag.String("year-min", "", "First year of the filter (defaults to the dataset's first year)")
	yearMax := flag.String("year-max", "", "Last year of the filter (defaults to the dataset's last year)")
	risk := flag.String("risk", "", "Comma-separated risk levels (defaults to every level present; set empty to select none)")
	highGap := flag.Float64("high-gap-threshold", cfg.Thresholds.HighGap, "Predicted gap above which a year raises the alert")
	generatedAt := flag.String("generated-at", "", "Fixed report timestamp (RFC3339) for reproducible output")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags|log.Lshortfile)

	// Validate flags
	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: --input is required")
		os.Exit(1)
	}

	q, err := filterFromFlags(*yearMin, *yearMax, *risk, isFlagSet("risk"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	clock := func() time.Time { return time.Now().UTC() }
	if *generatedAt != "" {
		fixed, err := time.Parse(time.RFC3339, *generatedAt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: --generated-at: %v\n", err)
			os.Exit(1)
		}
		clock = func() time.Time { return fixed.UTC() }
	}

	thresholds := cfg.Thresholds.Insights()
	thresholds.HighGap = *highGap
	svc := dashboard.NewService(
		memory.NewDatasetStore(),
		memory.NewSnapshotStore(),
		nil,
		insights.NewEvaluator(thresholds),
		logger,
	).WithClock(clock)

	if *name == "" {
		*name = filepath.Base(*input)
	}

	if err := run(context.Background(), svc, *input, *name, *outputDir, q); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *dashboard.Service, input, name, outputDir string, q dashboard.FilterQuery) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	summary, err := svc.Upload(ctx, name, f)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}

	res, err := svc.KPIs(ctx, summary.ID, q)
	if err != nil {
		return err
	}
	md, err := svc.Report(ctx, summary.ID, q)
	if err != nil {
		return err
	}
	recordsCSV, err := svc.RecordsCSV(ctx, summary.ID, q)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	outputs := []struct {
		file    string
		content string
	}{
		{"REPORT.md", md},
		{"filtered_records.csv", recordsCSV},
		{"kpi_summary.csv", reporting.RenderKPICSV(res.KPIs)},
	}
	for _, o := range outputs {
		if err := os.WriteFile(filepath.Join(outputDir, o.file), []byte(o.content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", o.file, err)
		}
	}

	printKPIs(summary, res)

	fmt.Println("Report generated successfully:")
	for _, o := range outputs {
		fmt.Printf("  - %s\n", filepath.Join(outputDir, o.file))
	}
	return nil
}

// filterFromFlags builds the filter query. riskSet distinguishes an
// explicitly empty --risk from an omitted one.
func filterFromFlags(yearMin, yearMax, risk string, riskSet bool) (dashboard.FilterQuery, error) {
	var q dashboard.FilterQuery
	if yearMin != "" {
		n, err := strconv.Atoi(yearMin)
		if err != nil {
			return q, fmt.Errorf("--year-min: %w", err)
		}
		q.YearMin = &n
	}
	if yearMax != "" {
		n, err := strconv.Atoi(yearMax)
		if err != nil {
			return q, fmt.Errorf("--year-max: %w", err)
		}
		q.YearMax = &n
	}
	if riskSet {
		q.Levels = []string{}
		q.Levels = append(q.Levels, config.SplitList(risk)...)
	}
	return q, nil
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func printKPIs(s domain.DatasetSummary, res *dashboard.KPIResult) {
	k := res.KPIs
	fmt.Printf("Dataset %q: %d records, %d-%d\n", s.Name, s.RecordCount, s.YearMin, s.YearMax)
	fmt.Printf("Filter: years %d-%d, risk levels: %s\n", res.Filter.YearMin, res.Filter.YearMax, joinLevels(res.Filter.Levels.Sorted()))
	fmt.Printf("  Records:             %d\n", k.RecordCount)
	fmt.Printf("  Total predicted gap: %.2f\n", k.TotalPredictedGap)
	fmt.Printf("  Total orders:        %d\n", k.TotalOrders)
	if k.HasRisk() {
		fmt.Printf("  Max risk score:      %d (year %d)\n", *k.MaxRiskScore, *k.YearOfMaxRisk)
	} else {
		fmt.Println("  Max risk score:      -")
	}
	fmt.Printf("  Performance:         %.1f%%\n", k.PerformanceRatio*100)
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
