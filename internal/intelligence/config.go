package intelligence

const (
	// Maximum number of significant events to store
	maxEvents = 200

	// Battery level drop considered highly significant for model building
	significantBatteryDrop = 10

	// Minimum battery change for the small-change significance rule
	minSignificantBatteryChange = 5

	// Minimum time gap considered significant (minutes)
	minSignificantTimeGap = 5

	// Confidence time thresholds (minutes)
	highConfidenceThreshold   = 5
	mediumConfidenceThreshold = 30
	lowConfidenceThreshold    = 60

	// Rolling buffer size for depletion rate samples per component
	maxDepletionSamples = 100

	// Bounded history of observed discharge rates for health tracking
	maxHistoricalRates = 50

	// Battery level at or below which the state is critical
	criticalBatteryLevel = 10
)

// Kalman filter constants for battery state estimation
const (
	processNoiseVariance       = 0.01
	measurementNoiseVariance   = 1.0
	initialEstimateUncertainty = 2.0

	// Seconds under which a raw reading is returned verbatim
	freshReadingSeconds = 30
)

// Settings are the process-wide estimator tunables, fixed at
// controller construction.
type Settings struct {
	LearningEnabled bool `json:"learning_enabled"`

	HighConfidenceMinutes   int `json:"high_confidence_minutes"`
	MediumConfidenceMinutes int `json:"medium_confidence_minutes"`
	LowConfidenceMinutes    int `json:"low_confidence_minutes"`

	MinBatteryChange  int `json:"min_battery_change"`
	MinTimeGapMinutes int `json:"min_time_gap_minutes"`

	MaxEvents int `json:"max_events"`
}

// DefaultSettings returns the stock tunables.
func DefaultSettings() Settings {
	return Settings{
		LearningEnabled:         true,
		HighConfidenceMinutes:   highConfidenceThreshold,
		MediumConfidenceMinutes: mediumConfidenceThreshold,
		LowConfidenceMinutes:    lowConfidenceThreshold,
		MinBatteryChange:        minSignificantBatteryChange,
		MinTimeGapMinutes:       minSignificantTimeGap,
		MaxEvents:               maxEvents,
	}
}
