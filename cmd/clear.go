package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/workspace"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all collected change artifacts",
	Long: "Deletes the changes output directory and recreates it empty, resetting\n" +
		"the workspace for the next release cycle.",
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, "clear")
	if err != nil {
		return err
	}

	if env.DryRun {
		files, err := workspace.ListArtifacts(env.Root, env.Cfg)
		if err != nil {
			return err
		}
		for _, f := range files {
			env.UI.Info("would remove " + f)
		}
		env.UI.Info("would clear " + env.Cfg.ChangesOutputDir)
		return nil
	}
	if err := workspace.Clear(env.Root, env.Cfg); err != nil {
		return err
	}
	env.UI.Info("cleared " + env.Cfg.ChangesOutputDir)
	return nil
}
