package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "reescan"
	version = "v0.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		// Human at the terminal: pretty console output. Pipes get JSON.
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Greenland rare-earth deposit intelligence",
		Version: version,
		Long: `reescan ingests Greenland REE deposit data (GEUS WFS features, company
filings, flat datasets), normalizes it into canonical per-deposit records and
computes a weighted strategic score per deposit.

Scores combine five analytical lenses: geological, regulatory, ownership,
infrastructure and geopolitical.`,
	}

	rootCmd.AddCommand(newRankCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newWeightsCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
