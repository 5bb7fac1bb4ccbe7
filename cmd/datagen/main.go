package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/invalder/OpenDGAi/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		records      = flag.Int("records", cfg.NumRecords, "number of records to generate")
		piiChance    = flag.Float64("pii-chance", cfg.PIIChance, "probability that a PII column is populated")
		invalidRate  = flag.Float64("invalid-rate", cfg.InvalidIDChance, "probability that a national ID has a wrong check digit")
		sharedChance = flag.Float64("shared-chance", cfg.SharedChance, "probability of reusing an earlier email, phone or address")
		seed         = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir    = flag.String("out", "data", "directory to write records.json and stats.json")
		writeStdout  = flag.Bool("stdout", false, "write records and stats to stdout instead of files")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumRecords:      *records,
		PIIChance:       clampProbability(*piiChance),
		InvalidIDChance: clampProbability(*invalidRate),
		SharedChance:    clampProbability(*sharedChance),
		Seed:            *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	out, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write records to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteOutput(out, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write records: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d records (%d valid IDs, %d invalid IDs, %d emails, %d phones) into %s\n",
		out.Stats.Records, out.Stats.ValidIDs, out.Stats.InvalidIDs, out.Stats.Emails, out.Stats.Phones, *outputDir)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
