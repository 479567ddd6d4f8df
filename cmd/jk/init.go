package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/journeykit/jk/internal/configfile"
	"github.com/journeykit/jk/internal/debug"
)

var (
	initPrefix      string
	initRoot        string
	initLayout      string
	initArtifactDir string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a jk project in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := projectDirFlag
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir = wd
		}

		jkDir := filepath.Join(dir, configfile.JKDirName)
		if existing, err := configfile.Load(jkDir); err != nil {
			return err
		} else if existing != nil {
			return fmt.Errorf("%s already contains a jk project", dir)
		}

		cfg := configfile.DefaultConfig()
		if initPrefix != "" {
			cfg.IDPrefix = initPrefix
		}
		if initRoot != "" {
			cfg.Root = initRoot
		}
		if initLayout != "" {
			cfg.Layout = initLayout
		}
		if initArtifactDir != "" {
			cfg.ArtifactDir = initArtifactDir
		}

		if err := cfg.Save(jkDir); err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.RootPath(dir), 0o755); err != nil {
			return fmt.Errorf("creating registry root: %w", err)
		}

		debug.PrintNormal("Initialized jk project in %s (registry root: %s, prefix: %s)\n",
			dir, cfg.Root, cfg.IDPrefix)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initPrefix, "prefix", "", "id prefix for new journeys (default JRN)")
	initCmd.Flags().StringVar(&initRoot, "root", "", "registry root directory (default journeys)")
	initCmd.Flags().StringVar(&initLayout, "layout", "", "record layout: flat or staged (default flat)")
	initCmd.Flags().StringVar(&initArtifactDir, "artifact-dir", "", "implementation artifact directory (default tests)")
	rootCmd.AddCommand(initCmd)
}
