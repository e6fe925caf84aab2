package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jay1/budsctl/internal/config"
	"github.com/Jay1/budsctl/internal/intelligence"
	"github.com/Jay1/budsctl/internal/logger"
	"github.com/Jay1/budsctl/internal/pid"
	"github.com/Jay1/budsctl/internal/scanner"
	"github.com/Jay1/budsctl/internal/telemetry"
)

var (
	cfg   *config.Config
	intel *intelligence.Intelligence
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	intel = intelligence.New(cfg.StorageDir, settingsFromConfig(cfg))

	collector, err := telemetry.NewService(telemetryConfig(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		if err := collector.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close telemetry")
		}
	}()

	source, err := newSource(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start scanner source")
	}
	defer source.Close()

	if err := loop(ctx, source, collector); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}

	if err := intel.Save(); err != nil {
		logger.Error().Err(err).Msg("failed to save battery profile")
	}
	logger.Info().Msg("Exiting...")
}

func loop(ctx context.Context, source scanner.Source, collector telemetry.Collector) error {
	interval := time.Duration(cfg.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	advs := source.Advertisements()

	for {
		select {
		case <-ctx.Done():
			return nil
		case adv, ok := <-advs:
			if !ok {
				logger.Info().Msg("Advertisement stream closed")
				advs = nil
				continue
			}
			intel.EnsureProfile(adv.Address, adv.Name)
			intel.Update(adv.Reading())
		case <-ticker.C:
			left, right, caseEst, ok := intel.Estimates()
			if !ok {
				continue
			}

			logEstimates(left, right, caseEst)

			snapshot := buildSnapshot(left, right, caseEst)
			if err := collector.Record(ctx, &snapshot); err != nil {
				logger.Error().Err(err).Msg("failed to record telemetry")
			}
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func newSource(cfg *config.Config) (scanner.Source, error) {
	if cfg.ScannerCommand == "" {
		return scanner.NewStreamSource(os.Stdin), nil
	}

	return scanner.NewExecSource(cfg.ScannerCommand)
}

func settingsFromConfig(cfg *config.Config) intelligence.Settings {
	settings := intelligence.DefaultSettings()
	settings.LearningEnabled = cfg.Intelligence.LearningEnabled
	settings.MinBatteryChange = cfg.Intelligence.MinBatteryChange
	settings.MinTimeGapMinutes = cfg.Intelligence.MinTimeGapMinutes
	settings.MaxEvents = cfg.Intelligence.MaxEvents
	settings.HighConfidenceMinutes = cfg.Intelligence.HighConfidenceMinutes
	settings.MediumConfidenceMinutes = cfg.Intelligence.MediumConfidenceMinutes
	settings.LowConfidenceMinutes = cfg.Intelligence.LowConfidenceMinutes

	return settings
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	tcfg := telemetry.DefaultConfig()
	tcfg.Enabled = cfg.Telemetry
	if cfg.TelemetryDB != "" {
		tcfg.DBPath = cfg.TelemetryDB
	}

	return tcfg
}

func buildSnapshot(left, right, caseEst intelligence.BatteryEstimate) telemetry.EstimateSnapshot {
	profile := intel.Profile()

	metrics := func(e intelligence.BatteryEstimate, raw *int, charging bool) telemetry.ComponentMetrics {
		return telemetry.ComponentMetrics{
			Raw:        raw,
			Estimate:   e.Level,
			Confidence: e.Confidence,
			IsReal:     e.IsRealData,
			Charging:   charging,
		}
	}

	return telemetry.EstimateSnapshot{
		Timestamp: time.Now(),
		Left:      metrics(left, profile.CurrentLeft, profile.LeftCharging),
		Right:     metrics(right, profile.CurrentRight, profile.RightCharging),
		Case:      metrics(caseEst, profile.CurrentCase, profile.CaseCharging),
	}
}

func logEstimates(left, right, caseEst intelligence.BatteryEstimate) {
	if cfg.Debug {
		logger.Debug().
			Float64("left", left.Level).
			Float64("right", right.Level).
			Float64("case", caseEst.Level).
			Float64("left_confidence", left.Confidence).
			Float64("right_confidence", right.Confidence).
			Float64("case_confidence", caseEst.Confidence).
			Bool("left_real", left.IsRealData).
			Bool("right_real", right.IsRealData).
			Bool("case_real", caseEst.IsRealData).
			Msg("")
	} else if cfg.Verbose {
		event := logger.Info().
			Float64("left", left.Level).
			Float64("right", right.Level).
			Float64("case", caseEst.Level)
		if left.TimeToCritical != nil {
			event = event.Dur("left_time_to_critical", *left.TimeToCritical)
		}
		event.Msg("")
	}
}
