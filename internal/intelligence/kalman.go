package intelligence

import "time"

// KalmanBatteryEstimator is the transient recursive filter state.
// Constructed fresh for every query and never persisted; the durable
// inputs live on the profile and its depletion buffer.
type KalmanBatteryEstimator struct {
	// State estimate (battery percentage)
	StateEstimate float64

	// Estimate uncertainty (P)
	EstimateUncertainty float64

	// Process noise variance (Q)
	ProcessNoise float64

	// Measurement noise variance (R)
	MeasurementNoise float64

	// Discharge rate estimate (percentage per minute)
	DischargeRate float64

	LastUpdate time.Time
	Target     Component
	IsCharging bool

	// Confidence in the current estimate (0.0 to 1.0)
	Confidence float64
}

// newEstimator seeds a filter for one component. The discharge-rate
// prior comes from the depletion buffer median when available,
// otherwise from typical earbud/case behavior.
func (p *DeviceBatteryProfile) newEstimator(target Component, initialLevel float64, now time.Time) *KalmanBatteryEstimator {
	var dischargeRate float64
	if rate, ok := p.DepletionRates.MedianRate(target); ok {
		if rate > 0 {
			// Convert minutes per 1% to percentage per minute
			dischargeRate = 1.0 / rate
		} else {
			dischargeRate = 0.001
		}
	} else {
		switch target {
		case LeftEarbud, RightEarbud:
			dischargeRate = 0.05
		default:
			dischargeRate = 0.01
		}
	}

	return &KalmanBatteryEstimator{
		StateEstimate:       initialLevel,
		EstimateUncertainty: initialEstimateUncertainty,
		ProcessNoise:        processNoiseVariance,
		MeasurementNoise:    measurementNoiseVariance,
		DischargeRate:       dischargeRate,
		LastUpdate:          now,
		Target:              target,
		IsCharging:          p.charging(target),
		Confidence:          0.8,
	}
}

// usageFactor scales the discharge-rate prior by target and in-ear
// state: full rate for an in-ear earbud, reduced for idle earbuds,
// further reduced for the case.
func usageFactor(target Component, inUse bool) float64 {
	if inUse {
		if target == Case {
			return 0.3
		}
		return 1.0
	}
	if target == Case {
		return 0.1
	}
	return 0.3
}

// Step advances the filter to now: the prediction half always runs,
// the gain-based correction only when a measurement is supplied.
// Absent a measurement, uncertainty grows by a flat increment and
// confidence is re-derived from uncertainty scaled by elapsed time.
func (e *KalmanBatteryEstimator) Step(now time.Time, measurement *float64, isCharging, inUse bool) {
	if e.IsCharging != isCharging {
		e.IsCharging = isCharging
		e.EstimateUncertainty += 1.0
	}

	minutesElapsed := now.Sub(e.LastUpdate).Minutes()
	if minutesElapsed < 0 {
		minutesElapsed = 0
	}

	// Time update (prediction)
	if e.IsCharging {
		chargingRate := 1.0 // percent per minute while charging
		if e.Target == Case {
			chargingRate = 0.3
		}
		e.StateEstimate += chargingRate * minutesElapsed
		if e.StateEstimate > 100 {
			e.StateEstimate = 100
		}
		e.EstimateUncertainty += 0.02 * minutesElapsed
	} else {
		predictedDrop := e.DischargeRate * minutesElapsed * usageFactor(e.Target, inUse)
		e.StateEstimate -= predictedDrop
	}
	e.StateEstimate = clampLevel(e.StateEstimate)
	e.EstimateUncertainty += e.ProcessNoise * minutesElapsed

	// Measurement update (correction)
	if measurement != nil {
		gain := e.EstimateUncertainty / (e.EstimateUncertainty + e.MeasurementNoise)
		innovation := *measurement - e.StateEstimate
		e.StateEstimate += gain * innovation
		e.EstimateUncertainty *= 1.0 - gain
		e.Confidence = 1.0 / (1.0 + e.EstimateUncertainty)

		// A sustained down-drift revises the discharge-rate prior via
		// exponential smoothing, bounded to plausible rates
		if !e.IsCharging && innovation < -1.0 && minutesElapsed > 5.0 {
			newRate := -innovation / minutesElapsed
			if newRate > 0 && newRate < 1.0 {
				e.DischargeRate = 0.7*e.DischargeRate + 0.3*newRate
			}
		}
	} else {
		e.EstimateUncertainty += 0.5
		timeFactor := 1.0 / (1.0 + minutesElapsed/60.0)
		e.Confidence = 1.0 / (1.0 + e.EstimateUncertainty) * timeFactor
	}

	e.StateEstimate = clampLevel(e.StateEstimate)
	if e.EstimateUncertainty < 0.1 {
		e.EstimateUncertainty = 0.1
	}
	e.Confidence = clampConfidence(e.Confidence)

	e.LastUpdate = now
}

// estimate answers an on-demand query for one component: fast path for
// readings younger than 30 seconds, otherwise a fresh filter projected
// from the last known state.
func (p *DeviceBatteryProfile) estimate(target Component, now time.Time) BatteryEstimate {
	level := p.currentLevel(target)
	isCharging := p.charging(target)
	inUse := p.inUse(target)

	if level != nil && p.LastUpdate != nil && now.Sub(*p.LastUpdate) < freshReadingSeconds*time.Second {
		return BatteryEstimate{
			Level:                float64(*level),
			IsRealData:           true,
			Confidence:           1.0,
			TimeToNextTenPercent: p.timeUntilDrop(*level, 10, target),
			TimeToCritical:       p.timeUntilLevel(*level, criticalBatteryLevel, target),
			UsagePattern:         queryPattern(isCharging),
		}
	}

	initial := 50.0
	if level != nil {
		initial = float64(*level)
	}

	estimator := p.newEstimator(target, initial, now)
	if p.LastUpdate != nil {
		estimator.LastUpdate = *p.LastUpdate
		estimator.Step(now, nil, isCharging, inUse)
	}

	rounded := int(estimator.StateEstimate)

	return BatteryEstimate{
		Level:                estimator.StateEstimate,
		IsRealData:           false,
		Confidence:           estimator.Confidence,
		TimeToNextTenPercent: p.timeUntilDrop(rounded, 10, target),
		TimeToCritical:       p.timeUntilLevel(rounded, criticalBatteryLevel, target),
		UsagePattern:         queryPattern(isCharging),
	}
}

// inUse reports the usage state fed to the filter. The case counts as
// busy while at least one earbud sits inside it.
func (p *DeviceBatteryProfile) inUse(target Component) bool {
	switch target {
	case LeftEarbud:
		return p.LeftInEar
	case RightEarbud:
		return p.RightInEar
	default:
		return !p.LeftInEar || !p.RightInEar
	}
}

// timeUntilDrop predicts how long until the level falls by percentDrop
// points, from the depletion buffer median. Nil without rate data or
// when the drop would cross zero.
func (p *DeviceBatteryProfile) timeUntilDrop(current, percentDrop int, target Component) *time.Duration {
	if current <= percentDrop {
		return nil
	}

	rate, ok := p.DepletionRates.MedianRate(target)
	if !ok {
		return nil
	}

	d := time.Duration(rate*float64(percentDrop)*60.0) * time.Second

	return &d
}

// timeUntilLevel predicts how long until the level reaches
// targetLevel. Nil when already at or below it.
func (p *DeviceBatteryProfile) timeUntilLevel(current, targetLevel int, target Component) *time.Duration {
	if current <= targetLevel {
		return nil
	}

	return p.timeUntilDrop(current, current-targetLevel, target)
}

func queryPattern(isCharging bool) *UsagePattern {
	pattern := PatternModerate
	if isCharging {
		pattern = PatternCharging
	}

	return &pattern
}

func clampLevel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}

	return v
}

func clampConfidence(v float64) float64 {
	if v < 0.1 {
		return 0.1
	}
	if v > 1.0 {
		return 1.0
	}

	return v
}
