package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/arcticwatch/reescan/internal/deposit"
	"github.com/arcticwatch/reescan/internal/ingest"
	"github.com/arcticwatch/reescan/internal/score"
)

// addSourceFlags registers the flags shared by every command that runs an
// ingestion pass.
func addSourceFlags(fs *pflag.FlagSet) {
	fs.String("dataset", "data/deposits.csv", "Flat CSV dataset path")
	fs.String("wfs", "", "Saved WFS GetFeature response (GeoJSON) path")
	fs.String("filings", "", "Filings CSV path (ownership/status updates)")
	fs.String("ingest-config", "", "Ingestion config YAML (bounds, guard, thresholds)")
	fs.String("weights", "", "Strategic weights YAML (default: built-in allocation)")
}

// pipelineConfig is everything resolved from flags for one run.
type pipelineConfig struct {
	sources []ingest.Source
	ingest  ingest.Config
	weights score.Weights
}

// resolvePipeline reads the shared flags and assembles sources, ingestion
// config and weights. Sources are wrapped with the configured guard.
func resolvePipeline(fs *pflag.FlagSet) (pipelineConfig, error) {
	var cfg pipelineConfig

	cfg.ingest = ingest.DefaultConfig()
	if path, _ := fs.GetString("ingest-config"); path != "" {
		loaded, err := ingest.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg.ingest = loaded
	}

	cfg.weights = score.DefaultWeights()
	weightsPath, _ := fs.GetString("weights")
	if weightsPath == "" {
		// Pick up the checked-in allocation when running from the repo root.
		if _, err := os.Stat(score.DefaultWeightsPath()); err == nil {
			weightsPath = score.DefaultWeightsPath()
		}
	}
	if weightsPath != "" {
		loaded, err := score.LoadWeights(weightsPath)
		if err != nil {
			return cfg, err
		}
		cfg.weights = loaded
	}

	dataset, _ := fs.GetString("dataset")
	if dataset != "" {
		cfg.sources = append(cfg.sources, ingest.NewCSVSource(dataset))
	}
	if path, _ := fs.GetString("wfs"); path != "" {
		cfg.sources = append(cfg.sources, ingest.Guard(ingest.NewWFSSource(path), cfg.ingest.Guard))
	}
	if path, _ := fs.GetString("filings"); path != "" {
		cfg.sources = append(cfg.sources, ingest.NewFilingsSource(path))
	}

	if len(cfg.sources) == 0 {
		return cfg, fmt.Errorf("no ingestion sources configured")
	}

	return cfg, nil
}

// runPipeline executes one ingestion pass and builds the scoring snapshot.
func runPipeline(ctx context.Context, cfg pipelineConfig) (score.Snapshot, *ingest.Normalizer) {
	normalizer := ingest.NewNormalizer(cfg.ingest.Bounds)
	pass := normalizer.Ingest(ctx, cfg.sources...)

	engine := score.NewEngine(cfg.weights,
		score.WithChineseStakeThreshold(cfg.ingest.ChineseStakeThreshold))
	snap := engine.BuildSnapshot(pass.BatchID, normalizer.List())
	snap.Diagnostics = append(pass.Diagnostics, snap.Diagnostics...)

	return snap, normalizer
}

func printDiagnostics(diags []deposit.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Printf("\nDiagnostics (%d):\n", len(diags))
	for _, d := range diags {
		fmt.Printf("  %s\n", d)
	}
}

func logPass(snap score.Snapshot) {
	log.Info().
		Str("batch_id", snap.BatchID).
		Int("ranked", len(snap.Ranking)).
		Int("diagnostics", len(snap.Diagnostics)).
		Msg("scoring complete")
}
