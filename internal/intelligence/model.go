package intelligence

import "time"

// UsagePattern is a coarse classification of a time window, consumed
// only by the discharge-model learner.
type UsagePattern string

const (
	PatternLight    UsagePattern = "light"
	PatternModerate UsagePattern = "moderate"
	PatternHeavy    UsagePattern = "heavy"
	PatternExtreme  UsagePattern = "extreme"
	PatternIdle     UsagePattern = "idle"
	PatternCharging UsagePattern = "charging"
)

// DischargeModel is the learned hourly discharge statistic for one
// usage pattern. Recomputed wholesale on every significant event.
type DischargeModel struct {
	RatePerHour float64   `json:"discharge_rate_per_hour"`
	Confidence  float64   `json:"confidence"`
	SampleCount int       `json:"sample_count"`
	LastUpdated time.Time `json:"last_updated"`
	Variance    float64   `json:"rate_variance"`
}

// updateModels re-derives the per-pattern discharge models from the
// event log. Triggered after every significant event.
func (p *DeviceBatteryProfile) updateModels(now time.Time) {
	dischargeEvents := 0
	for _, e := range p.Events {
		if e.Type == EventDischarge {
			dischargeEvents++
		}
	}
	if dischargeEvents < 2 {
		return
	}

	for _, pattern := range []UsagePattern{PatternLight, PatternModerate, PatternHeavy} {
		if model, ok := p.calculateDischargeModel(pattern, now); ok {
			p.DischargeModels[pattern] = model
		}
	}
}

// calculateDischargeModel derives a model for one pattern from
// consecutive event pairs where the level actually dropped.
func (p *DeviceBatteryProfile) calculateDischargeModel(pattern UsagePattern, now time.Time) (DischargeModel, bool) {
	var relevant []BatteryEvent
	for _, e := range p.Events {
		if classifyUsagePattern(e) == pattern {
			relevant = append(relevant, e)
		}
	}
	if len(relevant) < 2 {
		return DischargeModel{}, false
	}

	var rates []float64
	for i := 1; i < len(relevant); i++ {
		prev, curr := relevant[i-1], relevant[i]
		if prev.LeftBattery == nil || curr.LeftBattery == nil {
			continue
		}

		hours := curr.Timestamp.Sub(prev.Timestamp).Hours()
		if hours > 0 && *prev.LeftBattery > *curr.LeftBattery {
			rates = append(rates, float64(*prev.LeftBattery-*curr.LeftBattery)/hours)
		}
	}
	if len(rates) == 0 {
		return DischargeModel{}, false
	}

	sum := 0.0
	for _, r := range rates {
		sum += r
	}
	avg := sum / float64(len(rates))

	variance := 0.0
	for _, r := range rates {
		variance += (r - avg) * (r - avg)
	}
	variance /= float64(len(rates))

	confidence := 1.0 / (1.0 + variance)
	if confidence > 1.0 {
		confidence = 1.0
	}

	return DischargeModel{
		RatePerHour: avg,
		Confidence:  confidence,
		SampleCount: len(rates),
		LastUpdated: now,
		Variance:    variance,
	}, true
}

// classifyUsagePattern tags an event: charging beats idle beats the
// session-duration heuristic, with light as the fallback.
func classifyUsagePattern(event BatteryEvent) UsagePattern {
	if event.LeftCharging || event.RightCharging || event.CaseCharging {
		return PatternCharging
	}

	if !event.LeftInEar && !event.RightInEar {
		return PatternIdle
	}

	if event.SessionDuration != nil && event.SessionDuration.Hours() > 0.1 {
		return PatternModerate
	}

	return PatternLight
}
