package forecast

import (
	"errors"
	"strings"
	"testing"

	"forecast-oversight/internal/domain"
)

const sampleCSV = `Year,PlannedOutput,ActualOutput,Orders,Backlog,ProductionGap,Predicted_Gap,Risk_Level,Notes
2021,500,470,100,1200,30,30,Low,baseline
2022,520,400,200,1500,120,400,High,supplier delays
2023,540,500,150,1400,40,50,High,
`

func TestLoad_ParsesRecordsInFileOrder(t *testing.T) {
	records, err := Load(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	want := domain.ForecastRecord{
		Year:          2022,
		PlannedOutput: 520,
		ActualOutput:  400,
		Orders:        200,
		Backlog:       1500,
		ProductionGap: 120,
		PredictedGap:  400,
		RiskLevel:     domain.RiskHigh,
	}
	if records[1] != want {
		t.Errorf("record[1] = %+v, want %+v", records[1], want)
	}

	for i, year := range []int{2021, 2022, 2023} {
		if records[i].Year != year {
			t.Errorf("record[%d].Year = %d, want %d", i, records[i].Year, year)
		}
		if records[i].Enriched() {
			t.Errorf("record[%d] should not be enriched by Load", i)
		}
	}
}

func TestLoad_HeaderOnlyIsEmptyDataset(t *testing.T) {
	input := "Year,Risk_Level,Predicted_Gap,Orders,ProductionGap,PlannedOutput,ActualOutput,Backlog\n"

	records, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestLoad_AcceptsBOMAndWhitespace(t *testing.T) {
	input := "\ufeffYear, Risk_Level ,Predicted_Gap,Orders,ProductionGap,PlannedOutput,ActualOutput,Backlog\n" +
		"2024.0, Medium ,-5.5,12,3,10,9,1\n" +
		"\n" +
		",,,,,,,\n"

	records, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record (blank rows skipped), got %d", len(records))
	}
	if records[0].Year != 2024 {
		t.Errorf("Year = %d, want 2024", records[0].Year)
	}
	if records[0].RiskLevel != domain.RiskMedium {
		t.Errorf("RiskLevel = %q, want Medium", records[0].RiskLevel)
	}
	if records[0].PredictedGap != -5.5 {
		t.Errorf("PredictedGap = %f, want -5.5", records[0].PredictedGap)
	}
}

func TestLoad_UnknownRiskLevelIsNotAParseError(t *testing.T) {
	input := "Year,Risk_Level,Predicted_Gap,Orders,ProductionGap,PlannedOutput,ActualOutput,Backlog\n" +
		"2024,Severe,1,1,1,1,1,1\n"

	records, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if records[0].RiskLevel != "Severe" {
		t.Errorf("RiskLevel = %q, want Severe", records[0].RiskLevel)
	}
}

func TestLoad_Errors(t *testing.T) {
	header := "Year,Risk_Level,Predicted_Gap,Orders,ProductionGap,PlannedOutput,ActualOutput,Backlog\n"

	tests := []struct {
		name       string
		input      string
		wantLine   int
		wantColumn string
		wantReason string
	}{
		{
			name:       "empty input",
			input:      "",
			wantReason: "input is empty",
		},
		{
			name:       "missing columns",
			input:      "Year,Risk_Level,Orders\n2021,Low,1\n",
			wantLine:   1,
			wantReason: "missing required columns: Predicted_Gap, ProductionGap, PlannedOutput, ActualOutput, Backlog",
		},
		{
			name:       "non-integer year",
			input:      header + "20x1,Low,1,1,1,1,1,1\n",
			wantLine:   2,
			wantColumn: ColYear,
		},
		{
			name:       "fractional orders",
			input:      header + "2021,Low,1,1.5,1,1,1,1\n",
			wantLine:   2,
			wantColumn: ColOrders,
		},
		{
			name:       "non-numeric gap",
			input:      header + "2021,Low,1,1,1,1,1,1\n2022,Low,lots,1,1,1,1,1\n",
			wantLine:   3,
			wantColumn: ColPredictedGap,
		},
		{
			name:       "missing trailing value",
			input:      header + "2021,Low,1,1,1,1,1\n",
			wantLine:   2,
			wantColumn: ColBacklog,
		},
		{
			name:       "NaN backlog",
			input:      header + "2021,Low,1,1,1,1,1,NaN\n",
			wantLine:   2,
			wantColumn: ColBacklog,
		},
		{
			name:       "year above range",
			input:      header + "20210,Low,1,1,1,1,1,1\n",
			wantLine:   2,
			wantColumn: ColYear,
		},
		{
			name:       "negative year",
			input:      header + "2021,Low,1,1,1,1,1,1\n-5,Low,1,1,1,1,1,1\n",
			wantLine:   3,
			wantColumn: ColYear,
		},
		{
			name:       "year beyond int32",
			input:      header + "3000000000,Low,1,1,1,1,1,1\n",
			wantLine:   2,
			wantColumn: ColYear,
		},
		{
			name:  "malformed quoting",
			input: header + "2021,\"Low,1,1,1,1,1,1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if tt.wantLine != 0 && perr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", perr.Line, tt.wantLine)
			}
			if perr.Column != tt.wantColumn {
				t.Errorf("Column = %q, want %q", perr.Column, tt.wantColumn)
			}
			if tt.wantReason != "" && perr.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", perr.Reason, tt.wantReason)
			}
		})
	}
}
