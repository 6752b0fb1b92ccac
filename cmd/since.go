package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/stage"
)

var sinceCmd = &cobra.Command{
	Use:   "since",
	Short: "Collect diffs since the last release tag",
	Long: "Writes each changed package's diff since its latest tag (or an explicit\n" +
		"per-package tag from --tags-file) into its changes directory and seeds\n" +
		"the tag-message template for the operator to author release notes in.",
	RunE: runSince,
}

func init() {
	rootCmd.AddCommand(sinceCmd)

	sinceCmd.Flags().String("tags-file", "", "JSON file mapping package name to the tag to diff from")
}

func runSince(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, "since")
	if err != nil {
		return err
	}

	tagsFile, _ := cmd.Flags().GetString("tags-file")
	rep, err := stage.Since(cmd.Context(), env, stage.SinceOptions{TagsFile: tagsFile})
	if err != nil {
		return err
	}
	return finish(env, rep)
}
