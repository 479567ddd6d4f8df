package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/journeykit/jk/internal/debug"
	"github.com/journeykit/jk/internal/engine"
	"github.com/journeykit/jk/internal/report"
	"github.com/journeykit/jk/internal/store"
	"github.com/journeykit/jk/internal/types"
)

var (
	validateMode     string
	validateStrict   bool
	validateContract string
	validateTarget   string
	validateBackend  string
	validateAutofix  string
	validateNoMerge  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <id>",
	Short: "Run the validation gates over a journey's artifacts",
	Long: `Run the validation gates over a journey's implementation artifacts.

The gate set depends on --mode: quick runs schema and traceability,
standard adds the import boundary and anti-pattern scan, max adds
acceptance-criteria contract mapping. In strict mode every finding is an
error and the command exits non-zero on failure; otherwise findings are
recorded as warnings and the run reports success.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("mode") {
			p.V.Set("mode", validateMode)
		}
		if cmd.Flags().Changed("strict") {
			p.V.Set("strict", validateStrict)
		}
		if cmd.Flags().Changed("contract") {
			p.V.Set("contract", validateContract)
		}
		if cmd.Flags().Changed("backend") {
			p.V.Set("lint-backend", validateBackend)
		}
		if cmd.Flags().Changed("autofix") {
			p.V.Set("autofix", validateAutofix)
		}

		s := p.openStore()
		snap, err := s.Load()
		if err != nil {
			return err
		}
		id := args[0]
		rec, ok := snap.Records[id]
		if !ok {
			return fmt.Errorf("no journey %s in registry", id)
		}

		corpus, err := engine.LoadCorpus(p.Cfg.ArtifactPath(p.Dir), p.Cfg.ArtifactSuffixes)
		if err != nil {
			return err
		}

		opts := engine.Options{
			Mode:             p.V.GetString("mode"),
			Strict:           p.V.GetBool("strict"),
			Contract:         p.V.GetString("contract"),
			Schema:           s.Schema,
			URLAllowlist:     p.Cfg.URLAllowlist,
			SanctionedImport: p.Cfg.SanctionedImport,
			BannedImports:    p.Cfg.BannedImports,
			Backend:          p.V.GetString("lint-backend"),
			LintCommand:      p.Cfg.LintCommand,
			LintTimeout:      p.Cfg.GetLintTimeout(),
		}
		if validateTarget != "" {
			opts.TargetStatus = types.Status(validateTarget)
		}

		switch autofix := p.V.GetString("autofix"); autofix {
		case engine.AutofixOff, "":
		case engine.AutofixOn:
			if err := applyAutofix(rec.Journey, corpus, opts); err != nil {
				return err
			}
		case engine.AutofixAuto:
			// Fix only what a dry run reports as mechanically fixable.
			dry := engine.Validate(cmd.Context(), rec.Journey, corpus, opts)
			if engine.CanFix(dry.AllIssues()) {
				if err := applyAutofix(rec.Journey, corpus, opts); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("invalid autofix value %q (valid: auto, true, false)", autofix)
		}

		rep := engine.Validate(cmd.Context(), rec.Journey, corpus, opts)

		path, err := report.WriteFile(s.Root, rep)
		if err != nil {
			return err
		}
		debug.Logf("report written to %s\n", path)

		if !validateNoMerge {
			var diff string
			err = store.RetryStale(func() error {
				fresh, err := s.Load()
				if err != nil {
					return err
				}
				diff, err = report.MergeStatus(s, fresh, rep)
				return err
			})
			if err != nil {
				return err
			}
			if diff != "" {
				debug.Logf("validation-status change:\n%s", diff)
			}
		}

		if jsonOutput {
			if err := json.NewEncoder(os.Stdout).Encode(rep); err != nil {
				return err
			}
		} else {
			// lipgloss degrades to plain text when stdout is not a terminal.
			fmt.Print(report.Render(rep, true))
		}

		if !rep.Passed {
			return fmt.Errorf("validation failed: %d errors", rep.Errors)
		}
		return nil
	},
}

func applyAutofix(j *types.Journey, corpus *engine.Corpus, opts engine.Options) error {
	fixes, err := engine.Autofix(j, corpus, opts)
	if err != nil {
		return err
	}
	for _, fix := range fixes {
		debug.PrintNormal("autofix: %s:%d %s\n", fix.File, fix.Line, fix.Message)
	}
	return nil
}

func init() {
	validateCmd.Flags().StringVar(&validateMode, "mode", "", "gate set: quick, standard, or max")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat every finding as an error")
	validateCmd.Flags().StringVar(&validateContract, "contract", "", "contract gate behavior: basic, strict, or auto")
	validateCmd.Flags().StringVar(&validateTarget, "target", "", "also check the transition to this status")
	validateCmd.Flags().StringVar(&validateBackend, "backend", "", "lint backend: auto, external, or fallback")
	validateCmd.Flags().StringVar(&validateAutofix, "autofix", "", "whitelisted mechanical fixes: auto (when fixable issues are reported), true, or false")
	validateCmd.Flags().BoolVar(&validateNoMerge, "no-merge", false, "skip writing the result into the record's validation-status region")
	rootCmd.AddCommand(validateCmd)
}
