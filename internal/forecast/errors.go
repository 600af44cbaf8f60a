package forecast

import (
	"errors"
	"fmt"

	"forecast-oversight/internal/domain"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrParse is matched by every ParseError.
	ErrParse = errors.New("parse error")

	// ErrDataValidation is matched by every DataValidationError.
	ErrDataValidation = errors.New("data validation error")
)

// ParseError reports input that is not valid tabular data, lacks a
// required column or holds a mistyped value.
type ParseError struct {
	Line   int    // 1-based input line, 0 when not tied to a line
	Column string // offending column, empty when not tied to a column
	Reason string
	Err    error // underlying error, may be nil
}

func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" in column %q", e.Column)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParse) true for any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// DataValidationError reports a record whose risk label is outside
// {Low, Medium, High}.
type DataValidationError struct {
	Year  int
	Value domain.RiskLevel
}

func (e *DataValidationError) Error() string {
	return fmt.Sprintf("invalid risk level %q for year %d: want one of Low, Medium, High", string(e.Value), e.Year)
}

// Is makes errors.Is(err, ErrDataValidation) true for any DataValidationError.
func (e *DataValidationError) Is(target error) bool { return target == ErrDataValidation }
