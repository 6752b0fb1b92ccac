package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/config"
	"github.com/papapumpkin/pulsar/internal/stage"
	"github.com/papapumpkin/pulsar/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "pulsar",
	Short: "Staged release workflow for multi-package git workspaces",
	Long: "Pulsar walks a workspace of independent git packages through a staged\n" +
		"release cycle: prepare dev branches, scan and commit changes, collect\n" +
		"diffs since the last tag, bump versions, tag, and open the next dev\n" +
		"cycle. Each stage reports per package and never lets one package's\n" +
		"failure abort the rest.",
	SilenceUsage: true,
}

// errPackagesFailed maps per-package failures to a non-zero exit without
// dumping usage.
var errPackagesFailed = errors.New("one or more packages failed")

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default pulsar.toml, then release/pulsar.toml)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "print intended git commands and write nothing")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	config.Init(cfgFile)
}

// newEnv loads the configuration and builds the execution environment the
// stage commands share. A malformed config file is fatal here, before any
// package is touched.
func newEnv(cmd *cobra.Command, title string) (*stage.Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		cfg.DryRun = true
	}

	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	printer := ui.New()
	printer.Header(title, config.Source())
	if cfg.DryRun {
		printer.Info("dry-run: nothing will be modified")
	}

	return &stage.Env{
		Root:   root,
		Cfg:    cfg,
		DryRun: cfg.DryRun,
		UI:     printer,
	}, nil
}

// finish prints the aggregate summary and turns failed packages into a
// non-zero exit status.
func finish(env *stage.Env, rep *stage.Report) error {
	processed, skipped, failed := rep.Counts()
	env.UI.Summary(rep.Lines(), processed, skipped, failed)
	if rep.HasFailures() {
		return errPackagesFailed
	}
	return nil
}
