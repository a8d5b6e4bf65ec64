package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codyseavey/cardboard-compass/backend/internal/auth"
	"github.com/codyseavey/cardboard-compass/backend/internal/models"
)

var rebuildOwner string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Collection statistics maintenance",
}

var statsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute statistics from stored cards",
	Long: `Recomputes collection statistics from the stored cards. Use it after a
failed statistics write left an owner's totals stale. Without --owner every
tracked owner is rebuilt; an owner whose statistics were never written must
be named explicitly.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		owners, err := targetOwners(cmd, rebuildOwner)
		if err != nil {
			return fmt.Errorf("list owners: %w", err)
		}

		failed := 0
		for _, owner := range owners {
			stats, err := collection.RebuildStats(auth.WithOwner(cmd.Context(), owner))
			if err != nil {
				color.Red("✗ %s: %v", owner, err)
				failed++
				continue
			}
			color.Green("✓ %s: %d cards in %d sets, USD %.2f",
				owner, stats.TotalCards, stats.DistinctSets, stats.TotalValue[models.CurrencyUSD])
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d rebuilds failed", failed, len(owners))
		}
		return nil
	},
}

func init() {
	statsRebuildCmd.Flags().StringVarP(&rebuildOwner, "owner", "o", "", "owner id (default: every tracked owner)")
	statsCmd.AddCommand(statsRebuildCmd)
}
