// Command jk manages a file-backed registry of end-to-end test journeys:
// stable id allocation, lifecycle transitions, derived listings, and
// rule-based validation of implementation artifacts.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/journeykit/jk/internal/configfile"
	"github.com/journeykit/jk/internal/debug"
	"github.com/journeykit/jk/internal/store"
)

var (
	projectDirFlag string
	jsonOutput     bool
	verboseFlag    bool
	quietFlag      bool
)

var rootCmd = &cobra.Command{
	Use:           "jk",
	Short:         "Journey registry and validation engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectDirFlag, "dir", "", "project directory (default: nearest parent with a .jk dir)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress non-essential output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// project is the resolved working context of every command except init.
type project struct {
	Dir string
	Cfg *configfile.Config
	V   *viper.Viper
}

// loadProject locates the project, reads its config, and layers viper on
// top. Precedence: command flags (set by callers via v.Set) > JK_* env vars
// > config file values.
func loadProject() (*project, error) {
	dir := projectDirFlag
	if dir == "" {
		found, err := debug.FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("%w; run 'jk init' first", err)
		}
		dir = found
	}

	cfg, err := configfile.Load(filepath.Join(dir, configfile.JKDirName))
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%s is not a jk project; run 'jk init' first", dir)
	}

	v := viper.New()
	v.SetEnvPrefix("JK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("strict", cfg.Strict)
	v.SetDefault("contract", cfg.Contract)
	v.SetDefault("autofix", cfg.Autofix)
	v.SetDefault("layout", cfg.Layout)
	v.SetDefault("lint-backend", cfg.LintBackend)

	return &project{Dir: dir, Cfg: cfg, V: v}, nil
}

// openStore returns the registry store for the project.
func (p *project) openStore() *store.Store {
	s := store.New(p.Cfg.RootPath(p.Dir), p.V.GetString("layout"))
	s.Schema.CustomStatuses = p.Cfg.Statuses
	s.Schema.CustomTiers = p.Cfg.Tiers
	return s
}

// alloc returns the id allocation options from config.
func (p *project) alloc() store.AllocOptions {
	return store.AllocOptions{Prefix: p.Cfg.IDPrefix, Width: p.Cfg.GetIDWidth()}
}
