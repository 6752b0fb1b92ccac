package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/stage"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Prepare the development branch in every package",
	Long: "Fetches each package's remote, checks out the dev branch (creating it\n" +
		"from the base branch when needed, stashing local edits around the\n" +
		"switch), fast-forwards to the remote counterpart, and sets up tracking.",
	RunE: runBranch,
}

func init() {
	rootCmd.AddCommand(branchCmd)

	branchCmd.Flags().String("branch", "dev_branch", "development branch to prepare")
	branchCmd.Flags().String("base-branch", "main", "branch the dev branch is cut from")
	branchCmd.Flags().Bool("push", false, "push the branch after preparing it")
	branchCmd.Flags().Bool("no-stash", false, "skip dirty packages instead of auto-stashing")
	branchCmd.Flags().String("stash-name", "", "stash entry title (default stage0-auto-<branch>)")
	branchCmd.Flags().Bool("keep-stash", false, "keep the stash entry after a clean pop")
	branchCmd.Flags().Bool("fallback-head", true, "fall back to the remote HEAD branch when the base branch has no remote counterpart")
	branchCmd.Flags().Bool("fallback-local", true, "fall back to the local base branch when no remote ref resolves")
}

func runBranch(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, "branch")
	if err != nil {
		return err
	}

	branch, _ := cmd.Flags().GetString("branch")
	baseBranch, _ := cmd.Flags().GetString("base-branch")
	push, _ := cmd.Flags().GetBool("push")
	noStash, _ := cmd.Flags().GetBool("no-stash")
	stashName, _ := cmd.Flags().GetString("stash-name")
	keepStash, _ := cmd.Flags().GetBool("keep-stash")
	fallbackHead, _ := cmd.Flags().GetBool("fallback-head")
	fallbackLocal, _ := cmd.Flags().GetBool("fallback-local")

	if stashName == "" {
		stashName = "stage0-auto-" + branch
	}

	rep, err := stage.Branch(cmd.Context(), env, stage.BranchOptions{
		Branch:        branch,
		BaseBranch:    baseBranch,
		Push:          push,
		NoStash:       noStash,
		StashName:     stashName,
		KeepStash:     keepStash,
		FallbackHead:  fallbackHead,
		FallbackLocal: fallbackLocal,
	})
	if err != nil {
		return err
	}
	return finish(env, rep)
}
