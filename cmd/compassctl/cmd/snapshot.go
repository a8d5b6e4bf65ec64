package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codyseavey/cardboard-compass/backend/internal/models"
)

var snapshotOwner string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record today's value snapshot",
	Long: `Records a value snapshot for one owner, or for every tracked owner when
--owner is not given. An existing snapshot for today is replaced.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		owners, err := targetOwners(cmd, snapshotOwner)
		if err != nil {
			return fmt.Errorf("list owners: %w", err)
		}

		failed := 0
		for _, owner := range owners {
			snap, err := snapshots.TakeSnapshot(cmd.Context(), owner)
			if err != nil {
				color.Red("✗ %s: %v", owner, err)
				failed++
				continue
			}
			color.Green("✓ %s: %s, %d cards, USD %.2f",
				owner, snap.Date, snap.TotalCards, snap.TotalValue[models.CurrencyUSD])
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d snapshots failed", failed, len(owners))
		}
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotOwner, "owner", "o", "", "owner id (default: every tracked owner)")
}
