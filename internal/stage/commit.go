package stage

import (
	"context"
	"errors"
	"fmt"

	"github.com/papapumpkin/pulsar/internal/gitx"
	"github.com/papapumpkin/pulsar/internal/workspace"
)

// CommitOptions configures the commit stage. With neither flag set the
// command defaults to commit-only.
type CommitOptions struct {
	Commit bool
	Push   bool
}

// Commit creates a commit in every package whose commit-message artifact
// was populated by the external author, and independently pushes packages
// that are ahead of their remote. A missing or empty message file means
// the package has nothing to commit and is skipped.
func Commit(ctx context.Context, env *Env, opts CommitOptions) (*Report, error) {
	pkgs, err := workspace.Discover(env.Root, env.Cfg, false)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for _, pkg := range pkgs {
		env.ui().Package(pkg.Name)
		env.report(rep, commitOne(ctx, env, pkg, opts))
	}
	return rep, nil
}

func commitOne(ctx context.Context, env *Env, pkg workspace.Package, opts CommitOptions) Result {
	git := env.git(pkg.Dir)
	remote := env.Cfg.GitRemote

	committed := false
	if opts.Commit {
		message, err := workspace.ReadArtifact(pkg.Artifact(env.Cfg.CommitMsgFilename))
		if err != nil {
			return Result{Package: pkg.Name, Outcome: Failed, Err: err}
		}
		if message == "" {
			if !opts.Push {
				return Result{Package: pkg.Name, Outcome: Skipped, Detail: "commit message missing or empty"}
			}
		} else {
			switch err := git.CommitAll(ctx, message); {
			case errors.Is(err, gitx.ErrNothingToCommit):
				env.ui().Info(fmt.Sprintf("%s: nothing to commit", pkg.Name))
			case err != nil:
				return Result{Package: pkg.Name, Outcome: Failed, Err: err}
			default:
				committed = true
			}
		}
	}

	pushed := false
	if opts.Push {
		if !pkg.InRelease() {
			env.ui().Info(fmt.Sprintf("%s: not in current release, push skipped", pkg.Name))
		} else {
			branch, err := git.CurrentBranch(ctx)
			if err != nil {
				return Result{Package: pkg.Name, Outcome: Failed, Err: err}
			}
			st, err := git.AnalyzeState(ctx, branch, remote)
			if err != nil {
				return Result{Package: pkg.Name, Outcome: Failed, Err: err}
			}
			if st.Ahead > 0 || !git.RemoteBranchExists(ctx, remote, branch) {
				if err := git.Push(ctx, remote); err != nil {
					return Result{Package: pkg.Name, Outcome: Failed, Err: err}
				}
				pushed = true
			} else {
				env.ui().Info(fmt.Sprintf("%s: nothing to push (ahead:0)", pkg.Name))
			}
		}
	}

	if !committed && !pushed {
		return Result{Package: pkg.Name, Outcome: Skipped, Detail: "nothing committed or pushed"}
	}

	branch, err := git.CurrentBranch(ctx)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	st, err := git.AnalyzeState(ctx, branch, remote)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}

	detail := "committed"
	if !committed {
		detail = "pushed"
	} else if pushed {
		detail = "committed and pushed"
	}
	return Result{Package: pkg.Name, Outcome: Processed, Detail: detail + " (" + stateNote(st) + ")"}
}
