package insights

// PerformanceBand classifies actual output against plan.
type PerformanceBand string

const (
	BandOnTrack  PerformanceBand = "on_track"
	BandWatch    PerformanceBand = "watch"
	BandCritical PerformanceBand = "critical"
)

// RiskBand classifies the maximum risk score of a subset.
type RiskBand string

const (
	RiskBandCritical RiskBand = "critical" // max score 3
	RiskBandElevated RiskBand = "elevated" // max score 2
	RiskBandNominal  RiskBand = "nominal"  // max score 1
	RiskBandNone     RiskBand = "none"     // empty subset
)

// Thresholds configures the evaluator.
type Thresholds struct {
	HighGap    float64 // predicted gap strictly above this raises the alert
	OnTrackPct float64 // performance % at or above is on track
	WatchPct   float64 // performance % at or above (and below OnTrackPct) is watch
}

// DefaultThresholds returns the standard oversight thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighGap:    300,
		OnTrackPct: 95,
		WatchPct:   85,
	}
}

// HighGapAlert lists the years whose predicted gap exceeds the threshold.
type HighGapAlert struct {
	Threshold float64
	Triggered bool
	Years     []int // subset order
}

// RiskProfile counts records per risk level.
type RiskProfile struct {
	High   int
	Medium int
	Low    int
}

// Performance is the actual/planned output ratio as a percentage.
type Performance struct {
	Pct  float64
	Band PerformanceBand
}

// CriterionResult represents pass/fail for one oversight check.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// Insights contains the evaluated findings for a filtered subset.
type Insights struct {
	HighGap     HighGapAlert
	RiskProfile RiskProfile
	Performance Performance
	RiskBand    RiskBand
	Checks      []CriterionResult // 3 checks: gap, performance, high risk
}

// ChecksPassed counts passing checks.
func (i *Insights) ChecksPassed() int {
	n := 0
	for _, c := range i.Checks {
		if c.Pass {
			n++
		}
	}
	return n
}
