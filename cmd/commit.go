package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/stage"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit prepared messages and push packages that are ahead",
	Long: "Commits each package whose commit-message artifact was filled in after\n" +
		"the scan stage. With neither flag the command commits only; --push also\n" +
		"pushes packages that are ahead of their remote.",
	RunE: runCommit,
}

func init() {
	rootCmd.AddCommand(commitCmd)

	commitCmd.Flags().Bool("commit", false, "create commits from the prepared messages")
	commitCmd.Flags().Bool("push", false, "push packages that are ahead of their remote")
}

func runCommit(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, "commit")
	if err != nil {
		return err
	}

	commit, _ := cmd.Flags().GetBool("commit")
	push, _ := cmd.Flags().GetBool("push")
	if !commit && !push {
		commit = true
	}

	rep, err := stage.Commit(cmd.Context(), env, stage.CommitOptions{
		Commit: commit,
		Push:   push,
	})
	if err != nil {
		return err
	}
	return finish(env, rep)
}
