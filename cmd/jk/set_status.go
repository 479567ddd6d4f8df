package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/journeykit/jk/internal/debug"
	"github.com/journeykit/jk/internal/engine"
	"github.com/journeykit/jk/internal/store"
	"github.com/journeykit/jk/internal/types"
)

var (
	setStatusOwner      string
	setStatusIssue      string
	setStatusReplacedBy string
	setStatusRationale  string
)

var setStatusCmd = &cobra.Command{
	Use:   "set-status <id> <status>",
	Short: "Move a journey through its lifecycle",
	Long: `Move a journey through its lifecycle.

Statuses only move forward: proposed -> defined -> clarified -> implemented.
Moving to implemented requires the schema and traceability gates to pass in
strict mode: every tests entry must name an existing artifact carrying the
journey's tag. Any non-terminal journey may side-exit to quarantined
(requires --owner and --issue) or deprecated (requires --replaced-by or
--rationale); side-exits are terminal.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		s := p.openStore()
		id, target := args[0], types.Status(args[1])

		var corpus *engine.Corpus
		if target == types.StatusImplemented {
			corpus, err = engine.LoadCorpus(p.Cfg.ArtifactPath(p.Dir), p.Cfg.ArtifactSuffixes)
			if err != nil {
				return err
			}
		}

		err = store.RetryStale(func() error {
			snap, err := s.Load()
			if err != nil {
				return err
			}
			rec, ok := snap.Records[id]
			if !ok {
				return fmt.Errorf("no journey %s in registry", id)
			}

			j := *rec.Journey
			j.Status = target
			if setStatusOwner != "" {
				j.Owner = setStatusOwner
			}
			if setStatusIssue != "" {
				j.IssueRef = setStatusIssue
			}
			if setStatusReplacedBy != "" {
				j.ReplacedBy = setStatusReplacedBy
			}
			if setStatusRationale != "" {
				j.Rationale = setStatusRationale
			}
			j.Provenance.UpdatedBy = currentActor()
			j.Provenance.UpdatedAt = time.Now().UTC()

			// implemented is a claim about the artifacts, so it is gated on
			// the record-level checks and traceability passing strictly.
			if target == types.StatusImplemented {
				rep := engine.Validate(cmd.Context(), &j, corpus, engine.Options{
					Mode:   engine.ModeQuick,
					Strict: true,
					Schema: s.Schema,
				})
				if !rep.Passed {
					var problems []string
					for _, issue := range rep.AllIssues() {
						problems = append(problems, issue.Rule+": "+issue.Message)
					}
					return fmt.Errorf("cannot mark %s implemented:\n  %s",
						id, strings.Join(problems, "\n  "))
				}
			}

			if _, err := s.Upsert(snap, &j, p.alloc()); err != nil {
				return err
			}
			return regenerate(s)
		})
		if err != nil {
			return err
		}

		debug.PrintNormal("%s -> %s\n", id, target)
		return nil
	},
}

func init() {
	setStatusCmd.Flags().StringVar(&setStatusOwner, "owner", "", "owner (required for quarantined)")
	setStatusCmd.Flags().StringVar(&setStatusIssue, "issue", "", "issue reference (required for quarantined)")
	setStatusCmd.Flags().StringVar(&setStatusReplacedBy, "replaced-by", "", "replacement journey id (for deprecated)")
	setStatusCmd.Flags().StringVar(&setStatusRationale, "rationale", "", "retirement rationale (for deprecated)")
	rootCmd.AddCommand(setStatusCmd)
}
