package stage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/papapumpkin/pulsar/internal/gitx"
	"github.com/papapumpkin/pulsar/internal/manifest"
	"github.com/papapumpkin/pulsar/internal/semver"
	"github.com/papapumpkin/pulsar/internal/workspace"
)

// ReleaseOptions configures the prepare-release stage.
type ReleaseOptions struct {
	Bump semver.Part
	Push bool
}

// substitutePlaceholders fills the {VERSION} / {PREV_VERSION} markers of an
// authored message.
func substitutePlaceholders(text, version, prevVersion string) string {
	text = strings.ReplaceAll(text, "{VERSION}", version)
	return strings.ReplaceAll(text, "{PREV_VERSION}", prevVersion)
}

// isDefaultTagMessage reports whether the tag-message artifact is still
// the untouched template, i.e. nobody authored release notes yet.
func isDefaultTagMessage(text string) bool {
	return strings.TrimSpace(text) == strings.TrimSpace(TagMessageTemplate)
}

// Release bumps each authored package's manifest version, strips
// workspace-local dependency markers, commits with the authored tag
// message, and records the new version in the staging promotion manifest.
// No tag is created here; that happens after the release commit has been
// merged to the main line.
func Release(ctx context.Context, env *Env, opts ReleaseOptions) (*Report, error) {
	pkgs, err := workspace.Discover(env.Root, env.Cfg, false)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	stagingChanged := false
	for _, pkg := range pkgs {
		env.ui().Package(pkg.Name)
		res, changed := releaseOne(ctx, env, pkg, opts)
		stagingChanged = stagingChanged || changed
		env.report(rep, res)
	}

	if stagingChanged {
		if err := commitPromotionManifest(ctx, env, env.Cfg.StagingManifestPath,
			"chore(staging): update dependencies", opts.Push); err != nil {
			env.ui().Error(fmt.Sprintf("staging manifest commit: %v", err))
		}
	}
	return rep, nil
}

// releaseOne processes one package and reports whether the staging
// promotion manifest changed for it.
func releaseOne(ctx context.Context, env *Env, pkg workspace.Package, opts ReleaseOptions) (Result, bool) {
	rawMsg, err := workspace.RawArtifact(pkg.Artifact(env.Cfg.TagMsgFilename))
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}
	if strings.TrimSpace(rawMsg) == "" {
		return Result{Package: pkg.Name, Outcome: Skipped, Detail: "tag message missing or empty"}, false
	}
	if isDefaultTagMessage(rawMsg) {
		return Result{Package: pkg.Name, Outcome: Skipped, Detail: "tag message still the untouched template"}, false
	}

	m, err := manifest.Load(pkg.ManifestPath)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}
	name, err := m.Name()
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}
	currentStr, err := m.Version()
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}
	current, err := semver.Parse(currentStr)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}
	next, err := current.Bump(opts.Bump)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}

	message := strings.TrimSpace(substitutePlaceholders(rawMsg, next.String(), current.String()))
	detail := fmt.Sprintf("%s -> %s", current, next)

	if env.DryRun {
		env.ui().Info(fmt.Sprintf("[dry-run] %s: %s, commit with authored tag message", pkg.Name, detail))
		git := env.git(pkg.Dir)
		_ = git.CommitAll(ctx, message) // prints the commands it would run
		changed, err := manifest.UpdateDependencyTag(
			filepath.Join(env.Root, env.Cfg.StagingManifestPath), name, next.String(), true)
		if err != nil {
			return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
		}
		return Result{Package: pkg.Name, Outcome: Processed, Detail: detail + " (dry-run)"}, changed
	}

	if _, err := m.SetVersion(next.String()); err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}
	m.StripWorkspaceSources()
	if err := m.Save(); err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}

	git := env.git(pkg.Dir)
	if err := git.CommitAll(ctx, message); err != nil && !errors.Is(err, gitx.ErrNothingToCommit) {
		// The manifest now carries the bumped version with no matching
		// commit. Surface it; never retry or roll back.
		return Result{
			Package: pkg.Name,
			Outcome: Failed,
			Err:     err,
			Warning: fmt.Sprintf("manifest already bumped to %s with no matching commit", next),
		}, false
	}

	if opts.Push {
		if err := git.Push(ctx, env.Cfg.GitRemote); err != nil {
			return Result{Package: pkg.Name, Outcome: Processed, Detail: detail,
				Warning: fmt.Sprintf("push failed: %v", err)}, false
		}
	}

	changed, err := manifest.UpdateDependencyTag(
		filepath.Join(env.Root, env.Cfg.StagingManifestPath), name, next.String(), false)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Processed, Detail: detail,
			Warning: fmt.Sprintf("staging manifest update failed: %v", err)}, false
	}
	if changed {
		detail += ", staging pinned to " + next.String()
	}
	return Result{Package: pkg.Name, Outcome: Processed, Detail: detail}, changed
}

// commitPromotionManifest commits the workspace root repository after a
// promotion-tier manifest changed.
func commitPromotionManifest(ctx context.Context, env *Env, manifestPath, message string, push bool) error {
	root := env.git(env.Root)
	if err := root.Add(ctx, manifestPath); err != nil {
		return err
	}
	if err := root.Commit(ctx, message); err != nil && !errors.Is(err, gitx.ErrNothingToCommit) {
		return err
	}
	if push {
		return root.Push(ctx, env.Cfg.GitRemote)
	}
	return nil
}
