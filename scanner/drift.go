package scanner

// DriftLevel classifies a drift percentage.
type DriftLevel string

const (
	// DriftNone means every expected identifier is mapped.
	DriftNone DriftLevel = "none"
	// DriftLow is drift below 10%.
	DriftLow DriftLevel = "low"
	// DriftMedium is drift from 10% through 25% inclusive. Both boundary
	// values fall in this band.
	DriftMedium DriftLevel = "medium"
	// DriftHigh is drift above 25%.
	DriftHigh DriftLevel = "high"
)

// Drift thresholds in percent. The low bound belongs to the medium band;
// the high bound is the last value still inside it.
const (
	DefaultLowThreshold  = 10.0
	DefaultHighThreshold = 25.0
)

// Thresholds carries the configurable drift band boundaries.
type Thresholds struct {
	// Low is the first percentage classified as medium drift.
	Low float64
	// High is the last percentage classified as medium drift.
	High float64
}

// DefaultThresholds returns the documented 10/25 bands.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: DefaultLowThreshold, High: DefaultHighThreshold}
}

// Classify maps a drift percentage to its level.
func (t Thresholds) Classify(percent float64) DriftLevel {
	switch {
	case percent <= 0:
		return DriftNone
	case percent < t.Low:
		return DriftLow
	case percent <= t.High:
		return DriftMedium
	default:
		return DriftHigh
	}
}

// ExitCode maps a drift percentage to the scanner's process exit code:
// 0 when drift < Low, 1 when Low <= drift <= High, 2 when drift > High.
func (t Thresholds) ExitCode(percent float64) int {
	switch {
	case percent < t.Low:
		return 0
	case percent <= t.High:
		return 1
	default:
		return 2
	}
}

// ExitError carries a non-zero scan exit code up to main without losing the
// drift context. It satisfies error so cobra propagates it unchanged.
type ExitError struct {
	Code         int
	DriftPercent float64
	Level        DriftLevel
}

func (e *ExitError) Error() string {
	switch e.Level {
	case DriftHigh:
		return "high drift detected: must fix before proceeding"
	default:
		return "moderate drift detected"
	}
}
