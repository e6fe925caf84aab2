package intelligence

import "time"

// isSignificant decides whether a raw reading is worth appending to
// the event log. The cheap current-state fields update either way.
func isSignificant(profile *DeviceBatteryProfile, r Reading, settings Settings, now time.Time) bool {
	// First-ever update
	if profile.LastUpdate == nil {
		return true
	}

	sinceLast := now.Sub(*profile.LastUpdate)
	minGap := time.Duration(settings.MinTimeGapMinutes) * time.Minute

	// Reconnection after being out of range
	if sinceLast >= minGap {
		return true
	}

	// A drop of 10 points or more is always significant
	if droppedBy(profile.CurrentLeft, r.Left, significantBatteryDrop) ||
		droppedBy(profile.CurrentRight, r.Right, significantBatteryDrop) ||
		droppedBy(profile.CurrentCase, r.Case, significantBatteryDrop) {
		return true
	}

	// Smaller changes count only across a sufficient time gap
	if sinceLast >= minGap {
		if changedBy(profile.CurrentLeft, r.Left, settings.MinBatteryChange) ||
			changedBy(profile.CurrentRight, r.Right, settings.MinBatteryChange) ||
			changedBy(profile.CurrentCase, r.Case, settings.MinBatteryChange) {
			return true
		}
	}

	if r.LeftCharging != profile.LeftCharging ||
		r.RightCharging != profile.RightCharging ||
		r.CaseCharging != profile.CaseCharging {
		return true
	}

	if r.LeftInEar != profile.LeftInEar || r.RightInEar != profile.RightInEar {
		return true
	}

	return false
}

// droppedBy reports whether the level fell by at least threshold
// points. Rises never match.
func droppedBy(stored, incoming *int, threshold int) bool {
	if stored == nil || incoming == nil {
		return false
	}

	return *stored > *incoming && *stored-*incoming >= threshold
}

// changedBy reports whether the level moved by at least threshold
// points in either direction.
func changedBy(stored, incoming *int, threshold int) bool {
	if stored == nil || incoming == nil {
		return false
	}

	delta := *incoming - *stored
	if delta < 0 {
		delta = -delta
	}

	return delta >= threshold
}

// classifyEventType tags a significant reading. First matching
// predicate wins, in fixed priority order.
func classifyEventType(profile *DeviceBatteryProfile, r Reading, now time.Time) EventType {
	if (r.LeftCharging && !profile.LeftCharging) ||
		(r.RightCharging && !profile.RightCharging) ||
		(r.CaseCharging && !profile.CaseCharging) {
		return EventChargingStarted
	}

	if (!r.LeftCharging && profile.LeftCharging) ||
		(!r.RightCharging && profile.RightCharging) ||
		(!r.CaseCharging && profile.CaseCharging) {
		return EventChargingStopped
	}

	if (r.LeftInEar && !profile.LeftInEar) || (r.RightInEar && !profile.RightInEar) {
		return EventUsageStarted
	}

	if (!r.LeftInEar && profile.LeftInEar) || (!r.RightInEar && profile.RightInEar) {
		return EventUsageStopped
	}

	if (r.Left != nil && *r.Left <= criticalBatteryLevel) ||
		(r.Right != nil && *r.Right <= criticalBatteryLevel) {
		return EventCriticalBattery
	}

	if profile.LastUpdate != nil && now.Sub(*profile.LastUpdate) >= time.Duration(minSignificantTimeGap)*time.Minute {
		return EventReconnectedGap
	}

	return EventDischarge
}
