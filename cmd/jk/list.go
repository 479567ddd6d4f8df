package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/journeykit/jk/internal/types"
	"github.com/journeykit/jk/internal/ui"
)

var (
	listStatus string
	listTier   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List journeys in the registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		snap, err := p.openStore().Load()
		if err != nil {
			return err
		}

		var journeys []*types.Journey
		for _, id := range snap.IDs {
			j := snap.Records[id].Journey
			if listStatus != "" && string(j.Status) != listStatus {
				continue
			}
			if listTier != "" && string(j.Tier) != listTier {
				continue
			}
			journeys = append(journeys, j)
		}
		sort.Slice(journeys, func(i, k int) bool {
			a, b := journeys[i], journeys[k]
			if r := types.TierRank(a.Tier) - types.TierRank(b.Tier); r != 0 {
				return r < 0
			}
			if r := types.StatusRank(a.Status) - types.StatusRank(b.Status); r != 0 {
				return r < 0
			}
			return a.ID < b.ID
		})

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(journeys)
		}
		for _, j := range journeys {
			fmt.Printf("%s  %-12s %-10s %s\n",
				ui.RenderAccent(j.ID), statusCell(j.Status), j.Tier, j.Title)
		}
		if len(journeys) == 0 {
			fmt.Println("no journeys match")
		}
		return nil
	},
}

func statusCell(s types.Status) string {
	switch s {
	case types.StatusImplemented:
		return ui.RenderPass(string(s))
	case types.StatusQuarantined:
		return ui.RenderWarn(string(s))
	case types.StatusDeprecated:
		return ui.RenderMuted(string(s))
	default:
		return string(s)
	}
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	listCmd.Flags().StringVar(&listTier, "tier", "", "filter by tier")
	rootCmd.AddCommand(listCmd)
}
