package domain

// Dataset is an uploaded, enriched set of forecast records.
// Records are read-only after upload.
type Dataset struct {
	ID         string
	Name       string
	UploadedAt int64 // Unix ms
	Records    []ForecastRecord
}

// DatasetSummary describes a dataset without its records.
type DatasetSummary struct {
	ID          string
	Name        string
	UploadedAt  int64
	RecordCount int
	YearMin     int
	YearMax     int
	YearSpan    int         // YearMax - YearMin + 1, 0 when empty
	RiskLevels  []RiskLevel // levels present, ordered by risk score
}

// Summarize computes the dataset summary.
func (d *Dataset) Summarize() DatasetSummary {
	s := DatasetSummary{
		ID:          d.ID,
		Name:        d.Name,
		UploadedAt:  d.UploadedAt,
		RecordCount: len(d.Records),
	}
	if len(d.Records) == 0 {
		return s
	}

	present := make(RiskLevelSet)
	s.YearMin = d.Records[0].Year
	s.YearMax = d.Records[0].Year
	for _, r := range d.Records {
		if r.Year < s.YearMin {
			s.YearMin = r.Year
		}
		if r.Year > s.YearMax {
			s.YearMax = r.Year
		}
		present[r.RiskLevel] = struct{}{}
	}
	s.YearSpan = s.YearMax - s.YearMin + 1
	s.RiskLevels = present.Sorted()
	return s
}

// DefaultFilter returns the filter selecting the whole dataset:
// the full year range and every level present.
func (d *Dataset) DefaultFilter() FilterParams {
	s := d.Summarize()
	return FilterParams{
		YearMin: s.YearMin,
		YearMax: s.YearMax,
		Levels:  NewRiskLevelSet(s.RiskLevels...),
	}
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	c := *d
	c.Records = make([]ForecastRecord, len(d.Records))
	copy(c.Records, d.Records)
	return &c
}
