package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/journeykit/jk/internal/artifacts"
	"github.com/journeykit/jk/internal/debug"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Regenerate the derived listings (BACKLOG.md and index.json)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		s := p.openStore()

		snap, err := s.Load()
		if err != nil {
			return err
		}
		res, err := artifacts.Generate(snap, artifacts.Options{Root: s.Root})
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(res)
		}
		report := func(path string, written bool) {
			if written {
				debug.PrintNormal("wrote %s\n", path)
			} else {
				debug.PrintNormal("%s is current\n", path)
			}
		}
		report(res.BacklogPath, res.BacklogWritten)
		report(res.IndexPath, res.IndexWritten)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
