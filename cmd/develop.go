package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/stage"
)

var developCmd = &cobra.Command{
	Use:   "develop",
	Short: "Open the next development cycle after tagging",
	Long: "Checks out the dev branch in every tagged package, advances the\n" +
		"manifest to the next patch dev version (X.Y.(Z+1).dev0), and commits\n" +
		"the start-develop marker.",
	RunE: runDevelop,
}

func init() {
	rootCmd.AddCommand(developCmd)

	developCmd.Flags().String("branch", "dev_branch", "branch the new dev cycle starts on")
	developCmd.Flags().String("base-branch", "main", "branch the dev branch is cut from when missing")
	developCmd.Flags().String("remote", "", "remote to push to (default from config)")
	developCmd.Flags().Bool("push", false, "push the dev-cycle commits")
}

func runDevelop(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, "develop")
	if err != nil {
		return err
	}

	branch, _ := cmd.Flags().GetString("branch")
	baseBranch, _ := cmd.Flags().GetString("base-branch")
	remote, _ := cmd.Flags().GetString("remote")
	push, _ := cmd.Flags().GetBool("push")

	rep, err := stage.Develop(cmd.Context(), env, stage.DevelopOptions{
		Branch:     branch,
		BaseBranch: baseBranch,
		Remote:     remote,
		Push:       push,
	})
	if err != nil {
		return err
	}
	return finish(env, rep)
}
