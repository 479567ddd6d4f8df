package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/journeykit/jk/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one journey record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		snap, err := p.openStore().Load()
		if err != nil {
			return err
		}
		rec, ok := snap.Records[args[0]]
		if !ok {
			return fmt.Errorf("no journey %s in registry", args[0])
		}
		j := rec.Journey

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(j)
		}

		fmt.Printf("%s  %s\n", ui.RenderHeader(j.ID), j.Title)
		fmt.Printf("status: %s  tier: %s\n", statusCell(j.Status), j.Tier)
		if j.Actor != "" {
			fmt.Printf("actor: %s\n", j.Actor)
		}
		if j.Scope != "" {
			fmt.Printf("scope: %s\n", j.Scope)
		}
		if len(j.Tests) > 0 {
			fmt.Println("tests:")
			for _, t := range j.Tests {
				fmt.Printf("  - %s\n", t)
			}
		}
		if j.Owner != "" {
			fmt.Printf("owner: %s  issue: %s\n", j.Owner, j.IssueRef)
		}
		if j.ReplacedBy != "" || j.Rationale != "" {
			fmt.Printf("replaced-by: %s  rationale: %s\n", j.ReplacedBy, j.Rationale)
		}
		fmt.Println()
		fmt.Println(rec.Body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
