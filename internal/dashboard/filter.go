package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"forecast-oversight/internal/domain"
)

// ErrInvalidFilter is matched by every FilterError.
var ErrInvalidFilter = errors.New("invalid filter")

// FilterError reports a filter request that cannot be applied.
type FilterError struct {
	Reason string
}

func (e *FilterError) Error() string {
	return "invalid filter: " + e.Reason
}

// Is makes errors.Is(err, ErrInvalidFilter) true for any FilterError.
func (e *FilterError) Is(target error) bool { return target == ErrInvalidFilter }

// FilterQuery is a filter as requested by a client. Nil year bounds
// default to the dataset's range. Nil Levels selects every level present
// in the dataset; a non-nil empty slice selects nothing.
type FilterQuery struct {
	// Bounds match domain.MinYear and domain.MaxYear.
	YearMin *int     `json:"year_min,omitempty" validate:"omitnil,gte=0,lte=9999"`
	YearMax *int     `json:"year_max,omitempty" validate:"omitnil,gte=0,lte=9999"`
	Levels  []string `json:"risk_levels" validate:"max=16,dive,max=32"`
}

// ResolveFilter turns q into concrete filter parameters for the dataset
// described by s.
func ResolveFilter(s domain.DatasetSummary, q FilterQuery) (domain.FilterParams, error) {
	params := domain.FilterParams{
		YearMin: s.YearMin,
		YearMax: s.YearMax,
	}
	if q.YearMin != nil {
		params.YearMin = *q.YearMin
	}
	if q.YearMax != nil {
		params.YearMax = *q.YearMax
	}
	if params.YearMin > params.YearMax {
		return domain.FilterParams{}, &FilterError{
			Reason: fmt.Sprintf("year_min %d is after year_max %d", params.YearMin, params.YearMax),
		}
	}

	if q.Levels == nil {
		params.Levels = domain.NewRiskLevelSet(s.RiskLevels...)
		return params, nil
	}

	params.Levels = make(domain.RiskLevelSet, len(q.Levels))
	for _, raw := range q.Levels {
		level := domain.RiskLevel(strings.TrimSpace(raw))
		if !level.IsValid() {
			return domain.FilterParams{}, &FilterError{
				Reason: fmt.Sprintf("unknown risk level %q: want one of Low, Medium, High", raw),
			}
		}
		params.Levels[level] = struct{}{}
	}
	return params, nil
}
