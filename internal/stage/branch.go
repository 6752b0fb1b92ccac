package stage

import (
	"context"
	"fmt"

	"github.com/papapumpkin/pulsar/internal/gitx"
	"github.com/papapumpkin/pulsar/internal/workspace"
)

// BranchOptions configures the dev-branch preparation stage.
type BranchOptions struct {
	Branch     string // development branch to prepare
	BaseBranch string // branch the dev branch is cut from
	Push       bool

	NoStash       bool   // refuse auto-stash; skip dirty packages instead
	StashName     string // stash entry title; defaulted by the command
	KeepStash     bool   // keep the stash entry after a clean pop
	FallbackHead  bool   // use the remote HEAD branch when base is missing
	FallbackLocal bool   // use the local base branch when remote is missing
}

// Branch prepares the development branch in every package: fetch, check
// out (creating from base when needed, stashing local edits around the
// switch), fast-forward to the remote counterpart, set up tracking, and
// optionally push.
func Branch(ctx context.Context, env *Env, opts BranchOptions) (*Report, error) {
	pkgs, err := workspace.Discover(env.Root, env.Cfg, false)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for _, pkg := range pkgs {
		env.ui().Package(pkg.Name)
		env.report(rep, branchOne(ctx, env, pkg, opts))
	}
	return rep, nil
}

func branchOne(ctx context.Context, env *Env, pkg workspace.Package, opts BranchOptions) Result {
	git := env.git(pkg.Dir)
	remote := env.Cfg.GitRemote

	if !git.HasRemote(ctx, remote) {
		return Result{Package: pkg.Name, Outcome: Skipped, Detail: fmt.Sprintf("remote %q not configured", remote)}
	}

	if err := git.Fetch(ctx, remote); err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}

	var (
		stashKept bool
		warning   string
	)

	if git.RemoteBranchExists(ctx, remote, opts.Branch) {
		// The dev branch already lives on the remote: check it out and
		// fast-forward. Divergence is reported, not resolved.
		startPoint := ""
		if !git.LocalBranchExists(ctx, opts.Branch) {
			startPoint = remote + "/" + opts.Branch
		}
		if err := git.Checkout(ctx, opts.Branch, startPoint); err != nil {
			return Result{Package: pkg.Name, Outcome: Failed, Err: err}
		}
		if _, err := git.FastForward(ctx, remote+"/"+opts.Branch); err != nil {
			warning = fmt.Sprintf("local %s diverges from %s/%s, manual rebase needed", opts.Branch, remote, opts.Branch)
		}
	} else {
		startRef := resolveStartRef(ctx, git, remote, opts)

		dirty, err := git.HasUncommitted(ctx)
		if err != nil {
			return Result{Package: pkg.Name, Outcome: Failed, Err: err}
		}
		if dirty && opts.NoStash {
			return Result{Package: pkg.Name, Outcome: Skipped, Detail: "uncommitted changes present and --no-stash set"}
		}

		checkout := func() error { return git.Checkout(ctx, opts.Branch, startRef) }
		if dirty {
			kept, err := git.WithStash(ctx, gitx.StashOptions{
				IncludeUntracked: true,
				Message:          opts.StashName,
				Keep:             opts.KeepStash,
			}, checkout)
			stashKept = kept
			if err != nil {
				return Result{Package: pkg.Name, Outcome: Failed, Err: err}
			}
		} else if err := checkout(); err != nil {
			return Result{Package: pkg.Name, Outcome: Failed, Err: err}
		}
	}

	if err := git.EnsureTracking(ctx, opts.Branch, remote); err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}

	pushed := false
	if opts.Push {
		toPush, err := git.HasCommitsToPush(ctx, remote)
		if err != nil {
			return Result{Package: pkg.Name, Outcome: Failed, Err: err}
		}
		if toPush {
			if err := git.Push(ctx, remote); err != nil {
				return Result{Package: pkg.Name, Outcome: Failed, Err: err}
			}
			pushed = true
		}
	}

	st, err := git.AnalyzeState(ctx, opts.Branch, remote)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}

	detail := fmt.Sprintf("branch %s ready from %s", opts.Branch, opts.BaseBranch)
	note := stateNote(st)
	if stashKept {
		note += ", stash kept"
	}
	if pushed {
		detail += ", pushed"
	}
	return Result{Package: pkg.Name, Outcome: Processed, Detail: detail + " (" + note + ")", Warning: warning}
}

// resolveStartRef picks the ref a new dev branch is created from: the
// remote base branch, then the remote's default branch, then the local
// base branch.
func resolveStartRef(ctx context.Context, git Git, remote string, opts BranchOptions) string {
	if git.RemoteBranchExists(ctx, remote, opts.BaseBranch) {
		return remote + "/" + opts.BaseBranch
	}
	if opts.FallbackHead {
		if def := git.DefaultRemoteBranch(ctx, remote); def != "" {
			return remote + "/" + def
		}
	}
	// FallbackLocal and the final default agree: the local base branch.
	return opts.BaseBranch
}
