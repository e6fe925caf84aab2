// Package intelligence turns sparse, coarse battery readings from a
// wireless earbud set into continuously available estimates with
// confidence scores and time-to-drop predictions. It tracks a single
// device at a time; callers needing several devices run several
// controllers.
package intelligence

import (
	"math"
	"time"

	"github.com/Jay1/budsctl/internal/logger"
)

const profileFilename = "battery_profile.json"

// Intelligence owns the one optional device profile and wires raw
// updates through the significance filter into it. All methods are
// plain call-and-return; callers serialize concurrent access.
type Intelligence struct {
	profile    *DeviceBatteryProfile
	settings   Settings
	storageDir string
}

// New creates a controller rooted at storageDir and attempts to load
// a previously persisted profile. Load failures are non-fatal.
func New(storageDir string, settings Settings) *Intelligence {
	intel := &Intelligence{
		settings:   settings,
		storageDir: storageDir,
	}

	if err := intel.Load(); err != nil {
		logger.Warn().Err(err).Msg("Failed to load existing battery profile")
	}

	return intel
}

// Profile exposes the tracked profile, nil when no device is tracked.
func (in *Intelligence) Profile() *DeviceBatteryProfile {
	return in.profile
}

// Settings returns the tunables fixed at construction.
func (in *Intelligence) Settings() Settings {
	return in.settings
}

// EnsureProfile makes sure the singleton profile exists and matches
// the given identity, renaming it in place when it differs. Returns
// true when a new profile was created.
func (in *Intelligence) EnsureProfile(address, name string) bool {
	if in.profile != nil {
		if in.profile.DeviceAddress != address || in.profile.DeviceName != name {
			logger.Debug().
				Str("old_name", in.profile.DeviceName).
				Str("old_address", in.profile.DeviceAddress).
				Str("name", name).
				Str("address", address).
				Msg("Retargeting singleton profile")

			in.profile.DeviceName = name
			in.profile.DeviceAddress = address

			if err := in.Save(); err != nil {
				logger.Warn().Err(err).Msg("Failed to save retargeted profile")
			}
		}

		return false
	}

	logger.Debug().
		Str("name", name).
		Str("address", address).
		Msg("Creating battery profile")

	in.profile = NewProfile(name, address)
	if err := in.Save(); err != nil {
		logger.Warn().Err(err).Msg("Failed to save new profile")
	}

	return true
}

// Update feeds one raw reading into the profile. The cheap current
// state always updates; the event log and discharge models only on a
// positive significance decision.
func (in *Intelligence) Update(r Reading) {
	if in.profile == nil {
		in.profile = NewProfile(r.Name, r.Address)
	}

	now := time.Now()
	profile := in.profile

	if isSignificant(profile, r, in.settings, now) {
		event := BatteryEvent{
			Timestamp:     now,
			Type:          classifyEventType(profile, r, now),
			LeftBattery:   r.Left,
			RightBattery:  r.Right,
			CaseBattery:   r.Case,
			LeftCharging:  r.LeftCharging,
			RightCharging: r.RightCharging,
			CaseCharging:  r.CaseCharging,
			LeftInEar:     r.LeftInEar,
			RightInEar:    r.RightInEar,
			RSSI:          r.RSSI,
		}
		if profile.CurrentSession != nil {
			elapsed := now.Sub(profile.CurrentSession.StartTime)
			event.SessionDuration = &elapsed
		}

		profile.addEvent(event, in.settings.MaxEvents)
		if in.settings.LearningEnabled {
			profile.updateModels(now)
		}
	}

	profile.updateCurrentState(r, now)
}

// Estimates returns the per-component battery estimates, false when
// no device is tracked.
func (in *Intelligence) Estimates() (left, right, caseEst BatteryEstimate, ok bool) {
	if in.profile == nil {
		return BatteryEstimate{}, BatteryEstimate{}, BatteryEstimate{}, false
	}

	now := time.Now()

	return in.profile.estimate(LeftEarbud, now),
		in.profile.estimate(RightEarbud, now),
		in.profile.estimate(Case, now),
		true
}

// DisplayLevels returns the rounded, clamped levels for display.
func (in *Intelligence) DisplayLevels() (left, right, caseLevel *int, ok bool) {
	l, r, c, ok := in.Estimates()
	if !ok {
		return nil, nil, nil, false
	}

	round := func(e BatteryEstimate) *int {
		v := int(math.Round(clampLevel(e.Level)))
		return &v
	}

	return round(l), round(r), round(c), true
}
