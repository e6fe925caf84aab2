package intelligence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dischargeEvent(at time.Time, left int) BatteryEvent {
	return BatteryEvent{
		Timestamp:   at,
		Type:        EventDischarge,
		LeftBattery: intPtr(left),
		LeftInEar:   true,
		RightInEar:  true,
	}
}

func TestClassifyUsagePattern(t *testing.T) {
	charging := BatteryEvent{LeftCharging: true, LeftInEar: true}
	assert.Equal(t, PatternCharging, classifyUsagePattern(charging))

	idle := BatteryEvent{}
	assert.Equal(t, PatternIdle, classifyUsagePattern(idle))

	longSession := 30 * time.Minute
	moderate := BatteryEvent{LeftInEar: true, SessionDuration: &longSession}
	assert.Equal(t, PatternModerate, classifyUsagePattern(moderate))

	shortSession := 2 * time.Minute
	light := BatteryEvent{RightInEar: true, SessionDuration: &shortSession}
	assert.Equal(t, PatternLight, classifyUsagePattern(light))
	assert.Equal(t, PatternLight, classifyUsagePattern(BatteryEvent{LeftInEar: true}))
}

func TestUpdateModelsNeedsTwoDischargeEvents(t *testing.T) {
	profile := NewProfile("Test Buds", "aa:bb:cc:dd:ee:ff")
	now := time.Now()

	profile.addEvent(dischargeEvent(now.Add(-time.Hour), 80), maxEvents)
	profile.updateModels(now)

	assert.Empty(t, profile.DischargeModels)
}

func TestUpdateModelsLearnsLightPattern(t *testing.T) {
	profile := NewProfile("Test Buds", "aa:bb:cc:dd:ee:ff")
	now := time.Now()

	// Two in-ear events with no open session classify as light:
	// 10 points over 2 hours
	profile.addEvent(dischargeEvent(now.Add(-2*time.Hour), 80), maxEvents)
	profile.addEvent(dischargeEvent(now, 70), maxEvents)
	profile.updateModels(now)

	model, ok := profile.DischargeModels[PatternLight]
	require.True(t, ok)
	assert.InDelta(t, 5.0, model.RatePerHour, 1e-9)
	assert.Equal(t, 1, model.SampleCount)
	assert.Zero(t, model.Variance)
	assert.Equal(t, 1.0, model.Confidence)
	assert.Equal(t, now, model.LastUpdated)
}

func TestModelConfidenceDropsWithVariance(t *testing.T) {
	profile := NewProfile("Test Buds", "aa:bb:cc:dd:ee:ff")
	now := time.Now()

	// Pairwise rates of 4 and 20 %/hour
	profile.addEvent(dischargeEvent(now.Add(-2*time.Hour), 84), maxEvents)
	profile.addEvent(dischargeEvent(now.Add(-time.Hour), 80), maxEvents)
	profile.addEvent(dischargeEvent(now, 60), maxEvents)
	profile.updateModels(now)

	model, ok := profile.DischargeModels[PatternLight]
	require.True(t, ok)
	assert.InDelta(t, 12.0, model.RatePerHour, 1e-9)
	assert.Equal(t, 2, model.SampleCount)
	assert.InDelta(t, 64.0, model.Variance, 1e-9)
	assert.InDelta(t, 1.0/65.0, model.Confidence, 1e-9)
}

func TestModelIgnoresRisingLevels(t *testing.T) {
	profile := NewProfile("Test Buds", "aa:bb:cc:dd:ee:ff")
	now := time.Now()

	profile.addEvent(dischargeEvent(now.Add(-time.Hour), 70), maxEvents)
	profile.addEvent(dischargeEvent(now, 80), maxEvents)
	profile.updateModels(now)

	_, ok := profile.DischargeModels[PatternLight]
	assert.False(t, ok)
}
