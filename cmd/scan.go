package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/stage"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Collect uncommitted changes into per-package reports",
	Long: "Writes each dirty package's status, diff stat, and full diff into its\n" +
		"changes directory and seeds an empty commit-message file for the\n" +
		"operator to fill in before the commit stage.",
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, "scan")
	if err != nil {
		return err
	}
	rep, err := stage.Scan(cmd.Context(), env)
	if err != nil {
		return err
	}
	return finish(env, rep)
}
