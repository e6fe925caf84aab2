package intelligence

import (
	"sort"
	"time"
)

// DepletionRateSample records one observed ">=10% non-charging drop"
// as minutes elapsed per percentage point.
type DepletionRateSample struct {
	Timestamp         time.Time `json:"timestamp"`
	MinutesPerPercent float64   `json:"minutes_per_percent"`
	Target            Component `json:"target"`
	StartPercent      int       `json:"start_percent"`
	EndPercent        int       `json:"end_percent"`
}

// DepletionRateBuffer holds a bounded FIFO sample history per component.
type DepletionRateBuffer struct {
	MaxSamples int `json:"max_samples"`

	LeftSamples  []DepletionRateSample `json:"left_samples"`
	RightSamples []DepletionRateSample `json:"right_samples"`
	CaseSamples  []DepletionRateSample `json:"case_samples"`
}

// NewDepletionRateBuffer creates an empty buffer bounded at maxSamples
// per component.
func NewDepletionRateBuffer(maxSamples int) DepletionRateBuffer {
	return DepletionRateBuffer{MaxSamples: maxSamples}
}

func (b *DepletionRateBuffer) samples(target Component) []DepletionRateSample {
	switch target {
	case LeftEarbud:
		return b.LeftSamples
	case RightEarbud:
		return b.RightSamples
	default:
		return b.CaseSamples
	}
}

// AddSample appends a sample to its component buffer, evicting the
// oldest once full.
func (b *DepletionRateBuffer) AddSample(sample DepletionRateSample) {
	push := func(buf []DepletionRateSample) []DepletionRateSample {
		if b.MaxSamples > 0 && len(buf) >= b.MaxSamples {
			buf = buf[1:]
		}
		return append(buf, sample)
	}

	switch sample.Target {
	case LeftEarbud:
		b.LeftSamples = push(b.LeftSamples)
	case RightEarbud:
		b.RightSamples = push(b.RightSamples)
	default:
		b.CaseSamples = push(b.CaseSamples)
	}
}

// MedianRate returns the median minutes-per-percent for a component,
// averaging the middle two on even counts. False when empty.
func (b *DepletionRateBuffer) MedianRate(target Component) (float64, bool) {
	samples := b.samples(target)
	if len(samples) == 0 {
		return 0, false
	}

	rates := make([]float64, 0, len(samples))
	for _, s := range samples {
		rates = append(rates, s.MinutesPerPercent)
	}
	sort.Float64s(rates)

	mid := len(rates) / 2
	if len(rates)%2 == 0 {
		return (rates[mid-1] + rates[mid]) / 2.0, true
	}

	return rates[mid], true
}

// MeanRate returns the mean minutes-per-percent for a component.
// False when empty.
func (b *DepletionRateBuffer) MeanRate(target Component) (float64, bool) {
	samples := b.samples(target)
	if len(samples) == 0 {
		return 0, false
	}

	sum := 0.0
	for _, s := range samples {
		sum += s.MinutesPerPercent
	}

	return sum / float64(len(samples)), true
}

// SampleCount returns the number of stored samples for a component.
func (b *DepletionRateBuffer) SampleCount(target Component) int {
	return len(b.samples(target))
}

// Confidence derives a [0,1] score from sample count; 10 or more
// samples saturate at 1.0.
func (b *DepletionRateBuffer) Confidence(target Component) float64 {
	confidence := float64(b.SampleCount(target)) / 10.0
	if confidence > 1.0 {
		confidence = 1.0
	}

	return confidence
}
