package intelligence

import (
	"time"

	"github.com/Jay1/budsctl/internal/logger"
)

// levelMark remembers the last raw level used for depletion-rate
// tracking. Reset whenever the component starts charging.
type levelMark struct {
	Level int       `json:"level"`
	At    time.Time `json:"at"`
}

// BatteryHealthMetrics tracks long-term degradation proxies.
type BatteryHealthMetrics struct {
	MaxObservedLeft  int `json:"max_observed_left"`
	MaxObservedRight int `json:"max_observed_right"`
	MaxObservedCase  int `json:"max_observed_case"`

	HistoricalDischargeRates []float64 `json:"historical_discharge_rates"`

	ChargingEfficiency float64 `json:"charging_efficiency"`
	EstimatedCycles    int     `json:"estimated_cycles"`
	HealthScore        float64 `json:"health_score"`

	// Cumulative observed discharge in percentage points, feeds the
	// cycle estimate (one cycle per 100 points)
	CumulativeDischarge float64 `json:"cumulative_discharge"`
}

func defaultHealthMetrics() BatteryHealthMetrics {
	return BatteryHealthMetrics{
		MaxObservedLeft:    100,
		MaxObservedRight:   100,
		MaxObservedCase:    100,
		ChargingEfficiency: 1.0,
		HealthScore:        1.0,
	}
}

// DeviceBatteryProfile is the aggregate persisted state for the one
// tracked device.
type DeviceBatteryProfile struct {
	DeviceName    string `json:"device_name"`
	DeviceAddress string `json:"device_address"`

	CurrentLeft  *int       `json:"current_left,omitempty"`
	CurrentRight *int       `json:"current_right,omitempty"`
	CurrentCase  *int       `json:"current_case,omitempty"`
	LastUpdate   *time.Time `json:"last_update,omitempty"`

	LeftCharging  bool `json:"left_charging"`
	RightCharging bool `json:"right_charging"`
	CaseCharging  bool `json:"case_charging"`

	LeftInEar  bool `json:"left_in_ear"`
	RightInEar bool `json:"right_in_ear"`

	Events []BatteryEvent `json:"events"`

	DischargeModels map[UsagePattern]DischargeModel `json:"discharge_models"`

	CurrentSession *UsageSession `json:"current_session,omitempty"`

	HealthMetrics BatteryHealthMetrics `json:"health_metrics"`

	DepletionRates DepletionRateBuffer `json:"depletion_rates"`

	LastLeftLevel  *levelMark `json:"last_left_level,omitempty"`
	LastRightLevel *levelMark `json:"last_right_level,omitempty"`
	LastCaseLevel  *levelMark `json:"last_case_level,omitempty"`
}

// NewProfile creates an empty profile for a device.
func NewProfile(name, address string) *DeviceBatteryProfile {
	return &DeviceBatteryProfile{
		DeviceName:      name,
		DeviceAddress:   address,
		Events:          make([]BatteryEvent, 0, maxEvents),
		DischargeModels: make(map[UsagePattern]DischargeModel),
		HealthMetrics:   defaultHealthMetrics(),
		DepletionRates:  NewDepletionRateBuffer(maxDepletionSamples),
	}
}

// addEvent appends to the event log, evicting the oldest entries once
// the capacity is reached.
func (p *DeviceBatteryProfile) addEvent(event BatteryEvent, capacity int) {
	p.Events = append(p.Events, event)
	for len(p.Events) > capacity {
		p.Events = p.Events[1:]
	}
}

// updateCurrentState overwrites the cheap per-call fields and feeds
// the depletion trackers, session state, and health metrics. Runs on
// every raw update regardless of significance.
func (p *DeviceBatteryProfile) updateCurrentState(r Reading, now time.Time) {
	p.trackDepletion(LeftEarbud, r.Left, r.LeftCharging, &p.LastLeftLevel, now)
	p.trackDepletion(RightEarbud, r.Right, r.RightCharging, &p.LastRightLevel, now)
	p.trackDepletion(Case, r.Case, r.CaseCharging, &p.LastCaseLevel, now)

	p.CurrentLeft = r.Left
	p.CurrentRight = r.Right
	p.CurrentCase = r.Case
	p.LeftCharging = r.LeftCharging
	p.RightCharging = r.RightCharging
	p.CaseCharging = r.CaseCharging
	p.LeftInEar = r.LeftInEar
	p.RightInEar = r.RightInEar
	p.LastUpdate = &now

	if r.LeftInEar || r.RightInEar {
		if p.CurrentSession == nil {
			p.CurrentSession = &UsageSession{
				StartTime:  now,
				StartLeft:  r.Left,
				StartRight: r.Right,
				StartCase:  r.Case,
				Type:       SessionUnknown,
				Pattern:    PatternModerate,
			}
		}
	} else {
		p.CurrentSession = nil
	}

	p.updateHealthMaxima(r)
}

// trackDepletion maintains one component's last-level mark and emits a
// depletion sample on a non-charging drop of at least 10 points.
func (p *DeviceBatteryProfile) trackDepletion(target Component, level *int, charging bool, mark **levelMark, now time.Time) {
	if level == nil {
		return
	}

	if charging {
		// A charge cycle invalidates the discharge trend
		*mark = nil
		return
	}

	last := *mark
	if last == nil {
		*mark = &levelMark{Level: *level, At: now}
		return
	}

	drop := last.Level - *level
	if drop < significantBatteryDrop {
		return
	}

	minutes := now.Sub(last.At).Minutes()
	minutesPerPercent := minutes / float64(drop)

	p.DepletionRates.AddSample(DepletionRateSample{
		Timestamp:         now,
		MinutesPerPercent: minutesPerPercent,
		Target:            target,
		StartPercent:      last.Level,
		EndPercent:        *level,
	})
	p.recordDischarge(drop, minutesPerPercent)

	logger.Debug().
		Str("component", target.String()).
		Int("from", last.Level).
		Int("to", *level).
		Float64("minutes_per_percent", minutesPerPercent).
		Msg("Depletion rate sample recorded")

	*mark = &levelMark{Level: *level, At: now}
}

// updateHealthMaxima raises the observed non-charging maxima used as a
// degradation proxy, and refreshes the composite score.
func (p *DeviceBatteryProfile) updateHealthMaxima(r Reading) {
	if r.Left != nil && !r.LeftCharging && *r.Left > p.HealthMetrics.MaxObservedLeft {
		p.HealthMetrics.MaxObservedLeft = *r.Left
	}
	if r.Right != nil && !r.RightCharging && *r.Right > p.HealthMetrics.MaxObservedRight {
		p.HealthMetrics.MaxObservedRight = *r.Right
	}
	if r.Case != nil && !r.CaseCharging && *r.Case > p.HealthMetrics.MaxObservedCase {
		p.HealthMetrics.MaxObservedCase = *r.Case
	}

	score := float64(p.HealthMetrics.MaxObservedLeft+p.HealthMetrics.MaxObservedRight+p.HealthMetrics.MaxObservedCase) / 300.0
	if score > 1.0 {
		score = 1.0
	}
	p.HealthMetrics.HealthScore = score
}

// recordDischarge accumulates discharge history for the health
// metrics: bounded rate history plus an approximate cycle count.
func (p *DeviceBatteryProfile) recordDischarge(drop int, minutesPerPercent float64) {
	rates := append(p.HealthMetrics.HistoricalDischargeRates, minutesPerPercent)
	if len(rates) > maxHistoricalRates {
		rates = rates[len(rates)-maxHistoricalRates:]
	}
	p.HealthMetrics.HistoricalDischargeRates = rates

	p.HealthMetrics.CumulativeDischarge += float64(drop)
	p.HealthMetrics.EstimatedCycles = int(p.HealthMetrics.CumulativeDischarge / 100.0)
}

// currentLevel returns the stored current-state value for a component.
func (p *DeviceBatteryProfile) currentLevel(target Component) *int {
	switch target {
	case LeftEarbud:
		return p.CurrentLeft
	case RightEarbud:
		return p.CurrentRight
	default:
		return p.CurrentCase
	}
}

// charging reports the stored charging flag for a component.
func (p *DeviceBatteryProfile) charging(target Component) bool {
	switch target {
	case LeftEarbud:
		return p.LeftCharging
	case RightEarbud:
		return p.RightCharging
	default:
		return p.CaseCharging
	}
}
