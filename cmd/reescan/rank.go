package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank deposits by strategic score",
		Long:  "Runs one ingestion pass over the configured sources and prints deposits ranked by composite strategic score.",
		RunE:  runRank,
	}
	addSourceFlags(cmd.Flags())
	cmd.Flags().Int("top-n", 0, "Limit output to the top N deposits (0 = all)")
	cmd.Flags().Bool("json", false, "Emit the full snapshot as JSON")
	return cmd
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := resolvePipeline(cmd.Flags())
	if err != nil {
		return err
	}

	snap, _ := runPipeline(cmd.Context(), cfg)
	logPass(snap)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return json.NewEncoder(os.Stdout).Encode(snap)
	}

	topN, _ := cmd.Flags().GetInt("top-n")
	ranking := snap.Ranking
	if topN > 0 && topN < len(ranking) {
		ranking = ranking[:topN]
	}

	fmt.Printf("%-4s %-26s %7s %-10s %-11s %s\n",
		"#", "DEPOSIT", "SCORE", "CATEGORY", "STATUS", "OWNER")
	for i, rd := range ranking {
		fmt.Printf("%-4d %-26s %7.1f %-10s %-11s %s\n",
			i+1, rd.Record.Name, rd.Score, rd.Category, rd.Record.Status, rd.Record.Owner)
	}

	printDiagnostics(snap.Diagnostics)
	return nil
}
