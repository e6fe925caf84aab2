package intelligence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jay1/budsctl/internal/errors"
	"github.com/Jay1/budsctl/internal/logger"
)

const (
	storageDirPerm  = 0o755
	storageFilePerm = 0o644

	legacyPrefix = "device_"
	legacySuffix = "_profile.json"
)

// Save persists the tracked profile to the fixed-filename JSON
// document. A nil profile is a no-op. I/O failures leave the
// in-memory state untouched.
func (in *Intelligence) Save() error {
	if in.profile == nil {
		return nil
	}

	errFactory := errors.New()

	if err := os.MkdirAll(in.storageDir, storageDirPerm); err != nil {
		return errFactory.Wrap(errors.ErrProfileSave, err)
	}

	data, err := json.MarshalIndent(in.profile, "", "  ")
	if err != nil {
		return errFactory.Wrap(errors.ErrProfileSave, err)
	}

	path := filepath.Join(in.storageDir, profileFilename)
	if err := os.WriteFile(path, data, storageFilePerm); err != nil {
		return errFactory.Wrap(errors.ErrProfileSave, err)
	}

	return nil
}

// Load reads the profile from disk. When the fixed-filename document
// is missing, the first readable legacy per-device file is migrated
// into it and the legacy file removed.
func (in *Intelligence) Load() error {
	errFactory := errors.New()
	path := filepath.Join(in.storageDir, profileFilename)

	if _, err := os.Stat(path); err == nil {
		profile, err := readProfile(path)
		if err != nil {
			return errFactory.Wrap(errors.ErrProfileLoad, err)
		}
		in.profile = profile

		return nil
	}

	return in.migrateLegacyProfiles()
}

// migrateLegacyProfiles upgrades the superseded per-device naming
// scheme. Malformed files are skipped with a warning, never aborting
// the scan.
func (in *Intelligence) migrateLegacyProfiles() error {
	entries, err := os.ReadDir(in.storageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return errors.New().Wrap(errors.ErrProfileLoad, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, legacyPrefix) || !strings.HasSuffix(name, legacySuffix) {
			continue
		}

		path := filepath.Join(in.storageDir, name)
		profile, err := readProfile(path)
		if err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("Skipping malformed legacy profile")
			continue
		}

		logger.Debug().Str("file", name).Msg("Migrating legacy profile")
		in.profile = profile

		if err := in.Save(); err != nil {
			logger.Warn().Err(err).Msg("Failed to save migrated profile")
		}
		if err := os.Remove(path); err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("Failed to remove legacy profile")
		}

		break
	}

	return nil
}

// PurgeAll drops the in-memory profile and deletes all profile JSON
// documents in the storage directory. Destructive, caller-triggered
// only.
func (in *Intelligence) PurgeAll() error {
	errFactory := errors.New()
	in.profile = nil

	entries, err := os.ReadDir(in.storageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return errFactory.Wrap(errors.ErrProfilePurge, err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || !strings.Contains(name, "profile") {
			continue
		}

		if err := os.Remove(filepath.Join(in.storageDir, name)); err != nil {
			return errFactory.Wrap(errors.ErrProfilePurge, err)
		}
		removed++
	}

	logger.Info().Int("files", removed).Msg("Purged battery profiles")

	return nil
}

func readProfile(path string) (*DeviceBatteryProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	profile := &DeviceBatteryProfile{}
	if err := json.Unmarshal(data, profile); err != nil {
		return nil, err
	}

	if profile.DischargeModels == nil {
		profile.DischargeModels = make(map[UsagePattern]DischargeModel)
	}
	if profile.DepletionRates.MaxSamples == 0 {
		profile.DepletionRates.MaxSamples = maxDepletionSamples
	}

	return profile, nil
}
