package forecast

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"forecast-oversight/internal/domain"
)

// Input column names.
const (
	ColYear          = "Year"
	ColRiskLevel     = "Risk_Level"
	ColPredictedGap  = "Predicted_Gap"
	ColOrders        = "Orders"
	ColProductionGap = "ProductionGap"
	ColPlannedOutput = "PlannedOutput"
	ColActualOutput  = "ActualOutput"
	ColBacklog       = "Backlog"
)

// RequiredColumns lists the columns every input file must carry.
// Extra columns are ignored.
var RequiredColumns = []string{
	ColYear,
	ColRiskLevel,
	ColPredictedGap,
	ColOrders,
	ColProductionGap,
	ColPlannedOutput,
	ColActualOutput,
	ColBacklog,
}

const utf8BOM = "\ufeff"

// Load parses CSV input into forecast records in file order.
// Records are not enriched; RiskLevel is stored as written (trimmed) and
// validated later by Enrich.
// Returns a *ParseError on malformed input, missing columns or mistyped values.
func Load(r io.Reader) ([]domain.ForecastRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // row width is checked against the header below
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Reason: "input is empty"}
		}
		return nil, csvParseError(err)
	}

	index, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var records []domain.ForecastRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		if isBlankRow(row) {
			continue
		}

		line, _ := reader.FieldPos(0)
		rec, err := parseRow(row, index, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// indexHeader maps required column names to field positions.
func indexHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{
			Line:   1,
			Reason: "missing required columns: " + strings.Join(missing, ", "),
		}
	}
	return index, nil
}

func parseRow(row []string, index map[string]int, line int) (domain.ForecastRecord, error) {
	field := func(col string) (string, error) {
		i := index[col]
		if i >= len(row) {
			return "", &ParseError{Line: line, Column: col, Reason: "missing value"}
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			return "", &ParseError{Line: line, Column: col, Reason: "missing value"}
		}
		return v, nil
	}
	intField := func(col string) (int64, error) {
		v, err := field(col)
		if err != nil {
			return 0, err
		}
		n, err := parseInteger(v)
		if err != nil {
			return 0, &ParseError{Line: line, Column: col, Reason: "not an integer: " + strconv.Quote(v)}
		}
		return n, nil
	}
	floatField := func(col string) (float64, error) {
		v, err := field(col)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, &ParseError{Line: line, Column: col, Reason: "not a number: " + strconv.Quote(v)}
		}
		return f, nil
	}

	var rec domain.ForecastRecord

	year, err := intField(ColYear)
	if err != nil {
		return rec, err
	}
	if year < domain.MinYear || year > domain.MaxYear {
		return rec, &ParseError{Line: line, Column: ColYear,
			Reason: fmt.Sprintf("year %d outside %d..%d", year, domain.MinYear, domain.MaxYear)}
	}
	rec.Year = int(year)

	if rec.Orders, err = intField(ColOrders); err != nil {
		return rec, err
	}
	if rec.PredictedGap, err = floatField(ColPredictedGap); err != nil {
		return rec, err
	}
	if rec.ProductionGap, err = floatField(ColProductionGap); err != nil {
		return rec, err
	}
	if rec.PlannedOutput, err = floatField(ColPlannedOutput); err != nil {
		return rec, err
	}
	if rec.ActualOutput, err = floatField(ColActualOutput); err != nil {
		return rec, err
	}
	if rec.Backlog, err = floatField(ColBacklog); err != nil {
		return rec, err
	}

	level, err := field(ColRiskLevel)
	if err != nil {
		return rec, err
	}
	rec.RiskLevel = domain.RiskLevel(level)

	return rec, nil
}

// parseInteger accepts plain integers and floats with a zero fraction
// ("2021.0"), which spreadsheet exports commonly produce.
func parseInteger(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, strconv.ErrSyntax
	}
	return int64(f), nil
}

func isBlankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func csvParseError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Line: perr.Line, Reason: "malformed csv", Err: perr.Err}
	}
	return &ParseError{Reason: "read input", Err: err}
}
