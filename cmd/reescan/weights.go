package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcticwatch/reescan/internal/score"
)

func newWeightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Show the strategic weight allocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			weights := score.DefaultWeights()
			if path, _ := cmd.Flags().GetString("weights"); path != "" {
				loaded, err := score.LoadWeights(path)
				if err != nil {
					return err
				}
				weights = loaded
			}
			fmt.Print(weights.Summary())
			return nil
		},
	}
	cmd.Flags().String("weights", "", "Strategic weights YAML (default: built-in allocation)")
	return cmd
}
