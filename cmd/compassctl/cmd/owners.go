package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codyseavey/cardboard-compass/backend/internal/auth"
	"github.com/codyseavey/cardboard-compass/backend/internal/models"
)

type ownerSummary struct {
	Owner string                 `json:"owner"`
	Stats models.CollectionStats `json:"stats"`
}

var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "List owners with stored collection statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		owners, err := snapshots.TrackedOwners(cmd.Context())
		if err != nil {
			return fmt.Errorf("list owners: %w", err)
		}

		summaries := make([]ownerSummary, 0, len(owners))
		for _, owner := range owners {
			stats, err := collection.Stats(auth.WithOwner(cmd.Context(), owner))
			if err != nil {
				return fmt.Errorf("read stats for %s: %w", owner, err)
			}
			summaries = append(summaries, ownerSummary{Owner: owner, Stats: stats})
		}

		if jsonOutput {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(summaries)
		}
		return printOwnersTable(summaries)
	},
}

func printOwnersTable(summaries []ownerSummary) error {
	if len(summaries) == 0 {
		color.Yellow("No owners found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "OWNER\tCARDS\tSETS\tUSD\tAUD\tUPDATED\t\n")
	for _, s := range summaries {
		updated := "-"
		if !s.Stats.LastUpdated.IsZero() {
			updated = s.Stats.LastUpdated.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%.2f\t%s\t\n",
			s.Owner,
			s.Stats.TotalCards,
			s.Stats.DistinctSets,
			s.Stats.TotalValue[models.CurrencyUSD],
			s.Stats.TotalValue[models.CurrencyAUD],
			updated,
		)
	}
	return w.Flush()
}
