package intelligence

import "time"

// EventType tags a significant battery event.
type EventType string

const (
	EventDischarge         EventType = "discharge"
	EventChargingStarted   EventType = "charging_started"
	EventChargingStopped   EventType = "charging_stopped"
	EventUsageStarted      EventType = "usage_started"
	EventUsageStopped      EventType = "usage_stopped"
	EventReconnectedGap    EventType = "reconnected_after_gap"
	EventCriticalBattery   EventType = "critical_battery"
	EventHealthDegradation EventType = "health_degradation"
)

// BatteryEvent is an immutable snapshot logged by a positive
// significance decision. Destroyed only by FIFO eviction.
type BatteryEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"event_type"`

	LeftBattery  *int `json:"left_battery,omitempty"`
	RightBattery *int `json:"right_battery,omitempty"`
	CaseBattery  *int `json:"case_battery,omitempty"`

	LeftCharging  bool `json:"left_charging"`
	RightCharging bool `json:"right_charging"`
	CaseCharging  bool `json:"case_charging"`

	LeftInEar  bool `json:"left_in_ear"`
	RightInEar bool `json:"right_in_ear"`

	RSSI            *int           `json:"rssi,omitempty"`
	SessionDuration *time.Duration `json:"session_duration,omitempty"`
}

// SessionType classifies what a usage session was for.
type SessionType string

const (
	SessionMusic   SessionType = "music"
	SessionCalls   SessionType = "calls"
	SessionMixed   SessionType = "mixed"
	SessionGaming  SessionType = "gaming"
	SessionWorkout SessionType = "workout"
	SessionUnknown SessionType = "unknown"
)

// UsageSession tracks the currently open in-ear session. Present iff
// at least one earbud is in-ear.
type UsageSession struct {
	StartTime time.Time `json:"start_time"`

	StartLeft  *int `json:"start_left,omitempty"`
	StartRight *int `json:"start_right,omitempty"`
	StartCase  *int `json:"start_case,omitempty"`

	Type    SessionType  `json:"session_type"`
	Pattern UsagePattern `json:"usage_pattern"`
}
