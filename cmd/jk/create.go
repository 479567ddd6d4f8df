package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/spf13/cobra"

	"github.com/journeykit/jk/internal/artifacts"
	"github.com/journeykit/jk/internal/debug"
	"github.com/journeykit/jk/internal/store"
	"github.com/journeykit/jk/internal/types"
)

var (
	createTier      string
	createActor     string
	createScope     string
	createCriteria  []string
	createSteps     []string
	createQuestions []string
	createTests     []string
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new journey record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		s := p.openStore()

		j := &types.Journey{
			Title: args[0],
			Tier:  types.Tier(createTier),
			Actor: createActor,
			Scope: createScope,
		}
		for i, text := range createCriteria {
			j.AcceptanceCriteria = append(j.AcceptanceCriteria, types.Criterion{
				LocalID: fmt.Sprintf("AC-%d", i+1),
				Text:    text,
			})
		}
		j.Steps = createSteps
		j.OpenQuestions = createQuestions
		for _, t := range createTests {
			j.Tests = append(j.Tests, types.ParseTestRef(t))
		}
		j.Provenance.CreatedBy = currentActor()
		j.Provenance.CreatedAt = time.Now().UTC()
		j.SetDefaults()

		err = store.RetryStale(func() error {
			snap, err := s.Load()
			if err != nil {
				return err
			}
			j.ID = "" // reallocate on each attempt: another writer may win the id
			if _, err := s.Upsert(snap, j, p.alloc()); err != nil {
				return err
			}
			return regenerate(s)
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(j)
		}
		debug.PrintNormal("Created %s: %s\n", j.ID, j.Title)
		return nil
	},
}

// regenerate refreshes the derived listings after a registry mutation.
func regenerate(s *store.Store) error {
	snap, err := s.Load()
	if err != nil {
		return err
	}
	res, err := artifacts.Generate(snap, artifacts.Options{Root: s.Root})
	if err != nil {
		return err
	}
	if res.BacklogWritten || res.IndexWritten {
		debug.Logf("regenerated listings: backlog=%t index=%t\n", res.BacklogWritten, res.IndexWritten)
	}
	return nil
}

func currentActor() string {
	if actor := os.Getenv("JK_ACTOR"); actor != "" {
		return actor
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

func init() {
	createCmd.Flags().StringVar(&createTier, "tier", "", "tier: smoke, release, or regression (default regression)")
	createCmd.Flags().StringVar(&createActor, "actor", "", "persona performing the journey")
	createCmd.Flags().StringVar(&createScope, "scope", "", "product area the journey exercises")
	createCmd.Flags().StringArrayVar(&createCriteria, "ac", nil, "acceptance criterion text (repeatable, ids assigned in order)")
	createCmd.Flags().StringArrayVar(&createSteps, "step", nil, "procedural step (repeatable)")
	createCmd.Flags().StringArrayVar(&createQuestions, "question", nil, "open question (repeatable)")
	createCmd.Flags().StringArrayVar(&createTests, "test", nil, "test artifact reference path[#name] (repeatable)")
	rootCmd.AddCommand(createCmd)
}
