package intelligence

import "time"

// Component identifies which part of the earbud set a value applies to.
type Component int

const (
	LeftEarbud Component = iota
	RightEarbud
	Case
)

func (c Component) String() string {
	switch c {
	case LeftEarbud:
		return "left"
	case RightEarbud:
		return "right"
	case Case:
		return "case"
	default:
		return "unknown"
	}
}

// Components lists all tracked components in display order.
func Components() [3]Component {
	return [3]Component{LeftEarbud, RightEarbud, Case}
}

// Reading is one raw battery tuple delivered by the scanning collaborator.
// Levels are percentages in [0,100]; nil means the protocol did not
// report that component.
type Reading struct {
	Address string
	Name    string

	Left  *int
	Right *int
	Case  *int

	LeftCharging  bool
	RightCharging bool
	CaseCharging  bool

	LeftInEar  bool
	RightInEar bool

	RSSI *int
}

// BatteryEstimate is the per-component answer to an estimate query.
type BatteryEstimate struct {
	// Estimated battery level; round for display
	Level float64

	// Whether this is a fresh measurement rather than a projection
	IsRealData bool

	// Confidence in the estimate (0.0 to 1.0)
	Confidence float64

	// Predicted time until the next 10% drop, nil without rate data
	TimeToNextTenPercent *time.Duration

	// Predicted time until the critical level (10%), nil without rate data
	TimeToCritical *time.Duration

	// Usage pattern classification at query time
	UsagePattern *UsagePattern
}

// Estimator is the query surface the monitoring collaborator consumes.
type Estimator interface {
	EnsureProfile(address, name string) bool
	Update(reading Reading)
	Estimates() (left, right, caseEst BatteryEstimate, ok bool)
	DisplayLevels() (left, right, caseLevel *int, ok bool)
	Save() error
	Load() error
	PurgeAll() error
}
