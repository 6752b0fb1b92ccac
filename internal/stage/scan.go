package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/papapumpkin/pulsar/internal/workspace"
)

// Scan captures each package's uncommitted changes into the
// uncommitted-change report artifact and seeds an empty commit-message
// artifact beside it for external authoring. Packages with a clean working
// tree produce no artifacts and are reported as skipped.
func Scan(ctx context.Context, env *Env) (*Report, error) {
	pkgs, err := workspace.Discover(env.Root, env.Cfg, false)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for _, pkg := range pkgs {
		env.ui().Package(pkg.Name)
		env.report(rep, scanOne(ctx, env, pkg))
	}
	return rep, nil
}

func scanOne(ctx context.Context, env *Env, pkg workspace.Package) Result {
	git := env.git(pkg.Dir)

	dirty, err := git.HasUncommitted(ctx)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	if !dirty {
		return Result{Package: pkg.Name, Outcome: Skipped, Detail: "no uncommitted changes"}
	}

	status, err := git.Status(ctx)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	diffStat, err := git.DiffStat(ctx)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	fullDiff, err := git.Diff(ctx)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}

	sections := []string{
		"# Uncommitted changes (git status --porcelain)\n" + status,
		"# Diff stat (git diff --stat)\n" + diffStat,
	}
	if fullDiff != "" {
		sections = append(sections, "# Full diff (git diff)\n"+fullDiff)
	}
	content := strings.Join(sections, "\n\n") + "\n"

	reportFile := pkg.Artifact(env.Cfg.UncommittedFilename)
	if env.DryRun {
		env.ui().Info(fmt.Sprintf("[dry-run] would write %s (%d bytes)", reportFile, len(content)))
		return Result{Package: pkg.Name, Outcome: Processed, Detail: "changes detected (dry-run, nothing written)"}
	}

	if err := workspace.WriteArtifact(reportFile, content); err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	// The commit-message artifact starts empty; an external author fills
	// it in before the commit stage. Never clobber an existing one.
	if _, err := workspace.EnsureArtifact(pkg.Artifact(env.Cfg.CommitMsgFilename), ""); err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}

	return Result{Package: pkg.Name, Outcome: Processed, Detail: "changes captured to " + reportFile}
}
