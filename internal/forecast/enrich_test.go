package forecast

import (
	"errors"
	"strings"
	"testing"

	"forecast-oversight/internal/domain"
)

func TestEnrich_KnownLevels(t *testing.T) {
	tests := []struct {
		level domain.RiskLevel
		want  int
	}{
		{domain.RiskLow, 1},
		{domain.RiskMedium, 2},
		{domain.RiskHigh, 3},
	}

	for _, tt := range tests {
		in := domain.ForecastRecord{Year: 2021, RiskLevel: tt.level, Orders: 5}
		got, err := Enrich(in)
		if err != nil {
			t.Fatalf("Enrich(%q) failed: %v", tt.level, err)
		}
		if got.RiskScore != tt.want {
			t.Errorf("Enrich(%q).RiskScore = %d, want %d", tt.level, got.RiskScore, tt.want)
		}
		if got.Orders != in.Orders || got.Year != in.Year {
			t.Errorf("Enrich(%q) changed other fields: %+v", tt.level, got)
		}
		if in.RiskScore != 0 {
			t.Error("Enrich mutated its input")
		}
	}
}

func TestEnrich_UnknownLevel(t *testing.T) {
	_, err := Enrich(domain.ForecastRecord{Year: 2030, RiskLevel: "Extreme"})
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
	if !errors.Is(err, ErrDataValidation) {
		t.Fatalf("expected ErrDataValidation, got %v", err)
	}

	var verr *DataValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *DataValidationError, got %T", err)
	}
	if verr.Value != "Extreme" || verr.Year != 2030 {
		t.Errorf("error fields = %+v, want Value=Extreme Year=2030", verr)
	}
	if !strings.Contains(err.Error(), `"Extreme"`) {
		t.Errorf("error message should name the value: %s", err.Error())
	}
}

func TestEnrichAll_StopsAtFirstInvalid(t *testing.T) {
	records := []domain.ForecastRecord{
		{Year: 2021, RiskLevel: domain.RiskLow},
		{Year: 2022, RiskLevel: "medium"},
		{Year: 2023, RiskLevel: "bogus"},
	}

	_, err := EnrichAll(records)

	var verr *DataValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *DataValidationError, got %v", err)
	}
	if verr.Year != 2022 {
		t.Errorf("expected failure at 2022, got %d", verr.Year)
	}
	if records[0].RiskScore != 0 {
		t.Error("EnrichAll mutated its input")
	}
}

func TestEnrichAll_Idempotent(t *testing.T) {
	records := []domain.ForecastRecord{
		{Year: 2021, RiskLevel: domain.RiskHigh},
		{Year: 2022, RiskLevel: domain.RiskMedium},
	}

	once, err := EnrichAll(records)
	if err != nil {
		t.Fatalf("EnrichAll failed: %v", err)
	}
	twice, err := EnrichAll(once)
	if err != nil {
		t.Fatalf("EnrichAll (second pass) failed: %v", err)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("record %d changed on second enrichment: %+v vs %+v", i, once[i], twice[i])
		}
	}
}
