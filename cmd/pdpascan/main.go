package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/invalder/OpenDGAi/internal/config"
	"github.com/invalder/OpenDGAi/internal/generator"
	"github.com/invalder/OpenDGAi/internal/logging"
	"github.com/invalder/OpenDGAi/internal/pdpa"
)

func main() {
	var (
		input        = flag.String("in", "", "records file (JSON array or {\"records\": [...]}); stdin when empty")
		profileName  = flag.String("profile", pdpa.ProfileDetailed, "scan profile to run")
		profilesFile = flag.String("profiles", "", "YAML file with additional or overriding profiles")
		aggregate    = flag.Bool("aggregate", false, "print per-category counts instead of per-match detections")
		logLevel     = flag.String("log-level", "warn", "log level for diagnostics on stderr")
	)
	flag.Parse()

	logger := logging.NewWithWriter(config.LoggingConfig{Level: *logLevel, Format: "text"}, os.Stderr)

	records, err := readRecords(*input)
	if err != nil {
		logger.Error("failed to read records", "error", err)
		os.Exit(1)
	}

	profiles, err := pdpa.LoadProfilesFile(*profilesFile)
	if err != nil {
		logger.Error("failed to load profiles", "error", err)
		os.Exit(1)
	}
	profile, err := profiles.Get(*profileName)
	if err != nil {
		logger.Error("unknown profile", "profile", *profileName, "available", profiles.Names())
		os.Exit(1)
	}
	engine, err := pdpa.NewEngine(profile, pdpa.WithLogger(logger))
	if err != nil {
		logger.Error("invalid profile", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var result any
	if *aggregate {
		result = engine.Score(records)
	} else {
		result, err = engine.Scan(ctx, records)
		if err != nil {
			logger.Error("scan failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("scan complete", "profile", profile.Name, "records", len(records))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to write result", "error", err)
		os.Exit(1)
	}
}

func readRecords(path string) ([]pdpa.Record, error) {
	if path == "" {
		return generator.ReadRecords(os.Stdin)
	}
	return generator.ReadRecordsFile(path)
}
