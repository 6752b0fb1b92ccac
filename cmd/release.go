package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/semver"
	"github.com/papapumpkin/pulsar/internal/stage"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Bump versions and prepare release commits",
	Long: "For every package with an authored tag message: bumps the manifest\n" +
		"version by the requested part, strips workspace dependency markers,\n" +
		"commits the prepared release, and pins the staging promotion manifest\n" +
		"to the new version.",
	RunE: runRelease,
}

func init() {
	rootCmd.AddCommand(releaseCmd)

	releaseCmd.Flags().String("bump", "", "version part to bump: patch, minor, major, or dev")
	releaseCmd.Flags().Bool("push", false, "push the prepared release commits")
	releaseCmd.MarkFlagRequired("bump")
}

func runRelease(cmd *cobra.Command, args []string) error {
	bumpName, _ := cmd.Flags().GetString("bump")
	bump, err := semver.ParsePart(bumpName)
	if err != nil {
		return err
	}

	env, err := newEnv(cmd, "release")
	if err != nil {
		return err
	}

	push, _ := cmd.Flags().GetBool("push")
	rep, err := stage.Release(cmd.Context(), env, stage.ReleaseOptions{
		Bump: bump,
		Push: push,
	})
	if err != nil {
		return err
	}
	return finish(env, rep)
}
