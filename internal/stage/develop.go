package stage

import (
	"context"
	"errors"
	"fmt"

	"github.com/papapumpkin/pulsar/internal/gitx"
	"github.com/papapumpkin/pulsar/internal/manifest"
	"github.com/papapumpkin/pulsar/internal/semver"
	"github.com/papapumpkin/pulsar/internal/workspace"
)

// DevelopOptions configures the next-dev-cycle stage.
type DevelopOptions struct {
	Branch     string
	BaseBranch string
	Remote     string // overrides the configured remote when set
	Push       bool
}

// Develop opens the next development cycle after tagging: check out the dev
// branch from the main line, advance each tagged package's manifest to the
// next patch dev version (X.Y.(Z+1).dev0), and commit the start-develop
// marker. Only packages in the current release participate.
func Develop(ctx context.Context, env *Env, opts DevelopOptions) (*Report, error) {
	pkgs, err := workspace.Discover(env.Root, env.Cfg, true)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for _, pkg := range pkgs {
		env.ui().Package(pkg.Name)
		env.report(rep, developOne(ctx, env, pkg, opts))
	}
	return rep, nil
}

func developOne(ctx context.Context, env *Env, pkg workspace.Package, opts DevelopOptions) Result {
	remote := opts.Remote
	if remote == "" {
		remote = env.Cfg.GitRemote
	}

	m, err := manifest.Load(pkg.ManifestPath)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	currentStr, err := m.Version()
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	current, err := semver.Parse(currentStr)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	next := current.StartNextDevCycle()
	detail := fmt.Sprintf("%s -> %s", current, next)

	git := env.git(pkg.Dir)

	// Cut the dev branch from the remote main line; fall back to a plain
	// local branch when the remote ref is unknown.
	if err := git.Checkout(ctx, opts.Branch, remote+"/"+opts.BaseBranch); err != nil {
		if err := git.Checkout(ctx, opts.Branch, "HEAD"); err != nil {
			return Result{Package: pkg.Name, Outcome: Failed, Err: err}
		}
	}

	if env.DryRun {
		env.ui().Info(fmt.Sprintf("[dry-run] %s: %s, commit %q", pkg.Name, detail, "chore: start "+next.String()+" development"))
		return Result{Package: pkg.Name, Outcome: Processed, Detail: detail + " (dry-run)"}
	}

	if _, err := m.SetVersion(next.String()); err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	if err := m.Save(); err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}

	// Only the manifest is part of the start-develop commit.
	if err := git.Add(ctx, "pyproject.toml"); err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	if err := git.Commit(ctx, "chore: start "+next.String()+" development"); err != nil {
		if errors.Is(err, gitx.ErrNothingToCommit) {
			return Result{Package: pkg.Name, Outcome: Skipped, Detail: "already at " + next.String()}
		}
		return Result{
			Package: pkg.Name,
			Outcome: Failed,
			Err:     err,
			Warning: fmt.Sprintf("manifest already advanced to %s with no matching commit", next),
		}
	}

	if opts.Push {
		if err := git.Push(ctx, remote); err != nil {
			return Result{Package: pkg.Name, Outcome: Processed, Detail: detail,
				Warning: fmt.Sprintf("push failed: %v", err)}
		}
		detail += ", pushed"
	}
	return Result{Package: pkg.Name, Outcome: Processed, Detail: detail}
}
