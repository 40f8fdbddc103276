package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcticwatch/reescan/internal/deposit"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Ownership and portfolio summary",
		Long:  "Runs one ingestion pass and prints the ownership breakdown plus portfolio aggregates.",
		RunE:  runSummary,
	}
	addSourceFlags(cmd.Flags())
	cmd.Flags().Bool("json", false, "Emit the summary as JSON")
	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := resolvePipeline(cmd.Flags())
	if err != nil {
		return err
	}

	snap, normalizer := runPipeline(cmd.Context(), cfg)
	logPass(snap)

	records := normalizer.List()
	var uraniumBlocked, stale, incomplete int
	var treoKt float64
	for _, rec := range records {
		if rec.UraniumBlocked() {
			uraniumBlocked++
		}
		if rec.Stale {
			stale++
		}
		if !rec.Complete() {
			incomplete++
		}
		if kt, ok := rec.ContainedTREOKt(); ok {
			treoKt += kt
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"ownership":         snap.Summary,
			"deposits":          len(records),
			"ranked":            len(snap.Ranking),
			"incomplete":        incomplete,
			"stale":             stale,
			"uranium_blocked":   uraniumBlocked,
			"contained_treo_kt": treoKt,
		})
	}

	fmt.Printf("Deposits:          %d (%d ranked, %d incomplete, %d stale)\n",
		len(records), len(snap.Ranking), incomplete, stale)
	fmt.Printf("Ownership:         Western %.1f%% | Chinese %.1f%% | Unknown %.1f%%\n",
		snap.Summary.WesternPct, snap.Summary.ChinesePct, snap.Summary.UnknownPct)
	fmt.Printf("Uranium blocked:   %d deposits above %g ppm\n", uraniumBlocked, deposit.UraniumBanPPM)
	fmt.Printf("Contained TREO:    %.0f kt (where tonnage and grade known)\n", treoKt)

	printDiagnostics(snap.Diagnostics)
	return nil
}
