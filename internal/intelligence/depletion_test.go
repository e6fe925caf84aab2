package intelligence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(target Component, minutesPerPercent float64) DepletionRateSample {
	return DepletionRateSample{
		Timestamp:         time.Now(),
		MinutesPerPercent: minutesPerPercent,
		Target:            target,
	}
}

func TestBufferBound(t *testing.T) {
	buffer := NewDepletionRateBuffer(maxDepletionSamples)

	for i := 0; i < 150; i++ {
		buffer.AddSample(sample(LeftEarbud, float64(i)))
	}

	require.Equal(t, maxDepletionSamples, buffer.SampleCount(LeftEarbud))
	// The 100 retained are the 100 most recent
	assert.Equal(t, 50.0, buffer.LeftSamples[0].MinutesPerPercent)
	assert.Equal(t, 149.0, buffer.LeftSamples[len(buffer.LeftSamples)-1].MinutesPerPercent)
}

func TestBuffersAreIndependentPerComponent(t *testing.T) {
	buffer := NewDepletionRateBuffer(maxDepletionSamples)

	buffer.AddSample(sample(LeftEarbud, 1.0))
	buffer.AddSample(sample(Case, 2.0))

	assert.Equal(t, 1, buffer.SampleCount(LeftEarbud))
	assert.Equal(t, 0, buffer.SampleCount(RightEarbud))
	assert.Equal(t, 1, buffer.SampleCount(Case))
}

func TestMedianOddCount(t *testing.T) {
	buffer := NewDepletionRateBuffer(maxDepletionSamples)
	for _, rate := range []float64{3.0, 1.0, 2.0} {
		buffer.AddSample(sample(RightEarbud, rate))
	}

	median, ok := buffer.MedianRate(RightEarbud)
	require.True(t, ok)
	assert.Equal(t, 2.0, median)
}

func TestMedianEvenCountAveragesMiddleTwo(t *testing.T) {
	buffer := NewDepletionRateBuffer(maxDepletionSamples)
	for _, rate := range []float64{4.0, 1.0, 3.0, 2.0} {
		buffer.AddSample(sample(RightEarbud, rate))
	}

	median, ok := buffer.MedianRate(RightEarbud)
	require.True(t, ok)
	assert.Equal(t, 2.5, median)
}

func TestMeanRate(t *testing.T) {
	buffer := NewDepletionRateBuffer(maxDepletionSamples)
	for _, rate := range []float64{1.0, 2.0, 6.0} {
		buffer.AddSample(sample(Case, rate))
	}

	mean, ok := buffer.MeanRate(Case)
	require.True(t, ok)
	assert.InDelta(t, 3.0, mean, 1e-9)
}

func TestEmptyBufferReturnsNoData(t *testing.T) {
	buffer := NewDepletionRateBuffer(maxDepletionSamples)

	_, ok := buffer.MedianRate(LeftEarbud)
	assert.False(t, ok)
	_, ok = buffer.MeanRate(LeftEarbud)
	assert.False(t, ok)
	assert.Zero(t, buffer.SampleCount(LeftEarbud))
	assert.Zero(t, buffer.Confidence(LeftEarbud))
}

func TestConfidenceSaturatesAtTenSamples(t *testing.T) {
	buffer := NewDepletionRateBuffer(maxDepletionSamples)

	for i := 0; i < 5; i++ {
		buffer.AddSample(sample(LeftEarbud, 1.0))
	}
	assert.InDelta(t, 0.5, buffer.Confidence(LeftEarbud), 1e-9)

	for i := 0; i < 10; i++ {
		buffer.AddSample(sample(LeftEarbud, 1.0))
	}
	assert.Equal(t, 1.0, buffer.Confidence(LeftEarbud))
}

func TestTrackDepletionProducesSampleOnSignificantDrop(t *testing.T) {
	profile := NewProfile("Test Buds", "aa:bb:cc:dd:ee:ff")
	now := time.Now()

	// Seed the tracker, then drop 80 -> 60 over 15 minutes
	profile.updateCurrentState(inEar(reading(80, 75, 90)), now.Add(-15*time.Minute))
	profile.updateCurrentState(inEar(reading(60, 75, 90)), now)

	require.Equal(t, 1, profile.DepletionRates.SampleCount(LeftEarbud))

	s := profile.DepletionRates.LeftSamples[0]
	assert.InDelta(t, 0.75, s.MinutesPerPercent, 1e-9)
	assert.Equal(t, 80, s.StartPercent)
	assert.Equal(t, 60, s.EndPercent)
}

func TestTrackDepletionSmallDropKeepsTracker(t *testing.T) {
	profile := NewProfile("Test Buds", "aa:bb:cc:dd:ee:ff")
	now := time.Now()

	profile.updateCurrentState(inEar(reading(80, 75, 90)), now.Add(-20*time.Minute))
	profile.updateCurrentState(inEar(reading(75, 75, 90)), now.Add(-10*time.Minute))

	// Tracker still anchored at 80, so the cumulative drop counts
	assert.Zero(t, profile.DepletionRates.SampleCount(LeftEarbud))
	require.NotNil(t, profile.LastLeftLevel)
	assert.Equal(t, 80, profile.LastLeftLevel.Level)

	profile.updateCurrentState(inEar(reading(70, 75, 90)), now)
	assert.Equal(t, 1, profile.DepletionRates.SampleCount(LeftEarbud))
}

func TestChargingResetsTracker(t *testing.T) {
	profile := NewProfile("Test Buds", "aa:bb:cc:dd:ee:ff")
	now := time.Now()

	profile.updateCurrentState(reading(50, 50, 80), now.Add(-20*time.Minute))
	require.NotNil(t, profile.LastCaseLevel)

	charging := reading(50, 50, 80)
	charging.CaseCharging = true
	profile.updateCurrentState(charging, now.Add(-10*time.Minute))
	assert.Nil(t, profile.LastCaseLevel, "a charge cycle invalidates the discharge trend")

	// Same level ten minutes later only reseeds the tracker
	profile.updateCurrentState(reading(50, 50, 80), now)
	assert.Zero(t, profile.DepletionRates.SampleCount(Case))
	require.NotNil(t, profile.LastCaseLevel)
	assert.Equal(t, 80, profile.LastCaseLevel.Level)
}
