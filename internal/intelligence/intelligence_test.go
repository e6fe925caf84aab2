package intelligence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatesWithoutProfile(t *testing.T) {
	intel := New(t.TempDir(), DefaultSettings())

	_, _, _, ok := intel.Estimates()
	assert.False(t, ok)

	_, _, _, ok = intel.DisplayLevels()
	assert.False(t, ok)
}

func TestEstimatesCoverAllComponents(t *testing.T) {
	intel := newTestController(t)

	intel.Update(inEar(reading(72, 70, 90)))

	left, right, caseEst, ok := intel.Estimates()
	require.True(t, ok)

	assert.Equal(t, 72.0, left.Level)
	assert.Equal(t, 70.0, right.Level)
	assert.Equal(t, 90.0, caseEst.Level)
	assert.True(t, left.IsRealData)
	assert.True(t, right.IsRealData)
	assert.True(t, caseEst.IsRealData)
}

func TestDisplayLevelsRoundProjectedEstimates(t *testing.T) {
	intel := newTestController(t)

	intel.Update(inEar(reading(72, 70, 90)))

	// Age the reading so the query takes the projection path
	past := time.Now().Add(-10 * time.Minute)
	intel.Profile().LastUpdate = &past

	left, right, caseLevel, ok := intel.DisplayLevels()
	require.True(t, ok)
	require.NotNil(t, left)
	require.NotNil(t, right)
	require.NotNil(t, caseLevel)

	// 10 minutes at 0.05 %/min rounds back to the last reading
	assert.Equal(t, 72, *left)
	assert.Equal(t, 70, *right)
	assert.Equal(t, 90, *caseLevel)
}

func TestUpdateCreatesProfileFromReading(t *testing.T) {
	intel := newTestController(t)

	r := inEar(reading(72, 70, 90))
	r.Address = "aa:bb:cc:dd:ee:ff"
	r.Name = "Test Buds"
	intel.Update(r)

	profile := intel.Profile()
	require.NotNil(t, profile)
	assert.Equal(t, "Test Buds", profile.DeviceName)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", profile.DeviceAddress)
}

func TestUpdateRecordsSessionDurationOnEvents(t *testing.T) {
	intel := newTestController(t)

	intel.Update(inEar(reading(80, 80, 90)))

	// Backdate the open session, then force another significant event
	profile := intel.Profile()
	require.NotNil(t, profile.CurrentSession)
	profile.CurrentSession.StartTime = time.Now().Add(-20 * time.Minute)

	intel.Update(inEar(reading(70, 80, 90)))

	require.Len(t, profile.Events, 2)
	last := profile.Events[len(profile.Events)-1]
	require.NotNil(t, last.SessionDuration)
	assert.InDelta(t, 20, last.SessionDuration.Minutes(), 1.0)
}

func TestLearningDisabledSkipsModelUpdates(t *testing.T) {
	settings := DefaultSettings()
	settings.LearningEnabled = false
	intel := New(t.TempDir(), settings)

	intel.Update(inEar(reading(80, 80, 90)))
	intel.Update(inEar(reading(70, 80, 90)))
	intel.Update(inEar(reading(60, 80, 90)))

	assert.Empty(t, intel.Profile().DischargeModels)
}
