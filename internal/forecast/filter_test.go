package forecast

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"forecast-oversight/internal/domain"
)

func filterFixture() []domain.ForecastRecord {
	return []domain.ForecastRecord{
		{Year: 2024, RiskLevel: domain.RiskMedium, RiskScore: 2},
		{Year: 2020, RiskLevel: domain.RiskLow, RiskScore: 1},
		{Year: 2022, RiskLevel: domain.RiskHigh, RiskScore: 3},
		{Year: 2021, RiskLevel: domain.RiskHigh, RiskScore: 3},
		{Year: 2023, RiskLevel: domain.RiskLow, RiskScore: 1},
	}
}

func years(records []domain.ForecastRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Year
	}
	return out
}

func TestFilter(t *testing.T) {
	all := domain.NewRiskLevelSet(domain.AllRiskLevels()...)

	tests := []struct {
		name      string
		yearMin   int
		yearMax   int
		allowed   domain.RiskLevelSet
		wantYears []int
	}{
		{"full range all levels", 2020, 2024, all, []int{2024, 2020, 2022, 2021, 2023}},
		{"inclusive bounds", 2021, 2023, all, []int{2022, 2021, 2023}},
		{"single year", 2022, 2022, all, []int{2022}},
		{"high only", 2020, 2024, domain.NewRiskLevelSet(domain.RiskHigh), []int{2022, 2021}},
		{"low and medium", 2020, 2024, domain.NewRiskLevelSet(domain.RiskLow, domain.RiskMedium), []int{2024, 2020, 2023}},
		{"empty levels", 2020, 2024, domain.NewRiskLevelSet(), []int{}},
		{"nil levels", 2020, 2024, nil, []int{}},
		{"inverted bounds", 2024, 2020, all, []int{}},
		{"out of range", 1990, 1999, all, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(filterFixture(), tt.yearMin, tt.yearMax, tt.allowed)
			if diff := cmp.Diff(tt.wantYears, years(got)); diff != "" {
				t.Errorf("Filter years mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	allowed := domain.NewRiskLevelSet(domain.RiskLow, domain.RiskHigh)

	once := Filter(filterFixture(), 2021, 2023, allowed)
	twice := Filter(once, 2021, 2023, allowed)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second filter changed subset (-once +twice):\n%s", diff)
	}
}

func TestFilter_EmptyLevelsAlwaysEmpty(t *testing.T) {
	inputs := [][]domain.ForecastRecord{nil, {}, filterFixture()}
	for _, in := range inputs {
		if got := Filter(in, -10000, 10000, domain.RiskLevelSet{}); len(got) != 0 {
			t.Errorf("Filter with no levels returned %d records", len(got))
		}
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	in := filterFixture()
	before := append([]domain.ForecastRecord(nil), in...)

	got := Filter(in, 2020, 2024, domain.NewRiskLevelSet(domain.AllRiskLevels()...))
	got[0].Orders = 12345

	if diff := cmp.Diff(before, in); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestApply(t *testing.T) {
	params := domain.FilterParams{YearMin: 2023, YearMax: 2024, Levels: domain.NewRiskLevelSet(domain.RiskMedium)}

	got := Apply(filterFixture(), params)

	if diff := cmp.Diff([]int{2024}, years(got)); diff != "" {
		t.Errorf("Apply years mismatch (-want +got):\n%s", diff)
	}
}
