package domain

import "sort"

// RiskLevel is the categorical severity label attached to a forecast year.
type RiskLevel string

// Risk level constants.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// riskOrder maps each known label to its ordinal score.
var riskOrder = map[RiskLevel]int{
	RiskLow:    1,
	RiskMedium: 2,
	RiskHigh:   3,
}

// Score returns the ordinal score (1..3) for a known label.
// ok is false for labels outside {Low, Medium, High}.
func (r RiskLevel) Score() (score int, ok bool) {
	score, ok = riskOrder[r]
	return score, ok
}

// IsValid reports whether r is one of the known labels.
func (r RiskLevel) IsValid() bool {
	_, ok := riskOrder[r]
	return ok
}

// String returns the label as written in the input file.
func (r RiskLevel) String() string {
	return string(r)
}

// AllRiskLevels returns the known labels ordered by ascending score.
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh}
}

// RiskLevelForScore returns the label with the given score.
func RiskLevelForScore(score int) (RiskLevel, bool) {
	for level, s := range riskOrder {
		if s == score {
			return level, true
		}
	}
	return "", false
}

// RiskLevelSet is the set of allowed levels for a filter.
// A nil or empty set allows nothing.
type RiskLevelSet map[RiskLevel]struct{}

// NewRiskLevelSet builds a set from the given levels.
func NewRiskLevelSet(levels ...RiskLevel) RiskLevelSet {
	set := make(RiskLevelSet, len(levels))
	for _, l := range levels {
		set[l] = struct{}{}
	}
	return set
}

// Contains reports whether level is in the set.
func (s RiskLevelSet) Contains(level RiskLevel) bool {
	_, ok := s[level]
	return ok
}

// Sorted returns the members ordered by risk score; unknown labels sort
// last, alphabetically.
func (s RiskLevelSet) Sorted() []RiskLevel {
	out := make([]RiskLevel, 0, len(s))
	for _, l := range AllRiskLevels() {
		if s.Contains(l) {
			out = append(out, l)
		}
	}
	var unknown []RiskLevel
	for l := range s {
		if !l.IsValid() {
			unknown = append(unknown, l)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return append(out, unknown...)
}
