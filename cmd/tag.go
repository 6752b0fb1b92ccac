package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/stage"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Create annotated release tags and pin the prod manifest",
	Long: "Creates the annotated release tag for every package in the current\n" +
		"release cycle, using the authored tag message when present, and records\n" +
		"the tag in the prod promotion manifest. Run after the release commit\n" +
		"has been merged to the main line.",
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)

	tagCmd.Flags().Bool("push", false, "push the created tags and the prod manifest commit")
}

func runTag(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, "tag")
	if err != nil {
		return err
	}

	push, _ := cmd.Flags().GetBool("push")
	rep, err := stage.Tag(cmd.Context(), env, stage.TagOptions{Push: push})
	if err != nil {
		return err
	}
	return finish(env, rep)
}
