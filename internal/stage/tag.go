package stage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/papapumpkin/pulsar/internal/manifest"
	"github.com/papapumpkin/pulsar/internal/workspace"
)

// TagOptions configures the tag stage.
type TagOptions struct {
	Push bool
}

// Tag creates the annotated release tag for every package participating in
// the current release (those with a changes directory), using the authored
// tag message when present, and records the tag in the prod promotion
// manifest. Run after the prepare-release commit has been merged to the
// main line.
func Tag(ctx context.Context, env *Env, opts TagOptions) (*Report, error) {
	pkgs, err := workspace.Discover(env.Root, env.Cfg, true)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	prodChanged := false
	for _, pkg := range pkgs {
		env.ui().Package(pkg.Name)
		res, changed := tagOne(ctx, env, pkg, opts)
		prodChanged = prodChanged || changed
		env.report(rep, res)
	}

	if prodChanged {
		if err := commitPromotionManifest(ctx, env, env.Cfg.ProdManifestPath,
			"chore(prod): update dependencies", opts.Push); err != nil {
			env.ui().Error(fmt.Sprintf("prod manifest commit: %v", err))
		}
	}
	return rep, nil
}

// tagOne tags one package and reports whether the prod promotion manifest
// changed for it.
func tagOne(ctx context.Context, env *Env, pkg workspace.Package, opts TagOptions) (Result, bool) {
	m, err := manifest.Load(pkg.ManifestPath)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}
	version, err := m.Version()
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}
	tagName := env.Cfg.TagPrefix + version

	git := env.git(pkg.Dir)
	exists, err := git.TagExists(ctx, tagName)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}
	if exists {
		return Result{Package: pkg.Name, Outcome: Skipped, Detail: "tag " + tagName + " already exists"}, false
	}

	// Prefer the authored tag message; fall back to the release commit's
	// message, then a bare "Release <tag>".
	message, err := workspace.ReadArtifact(pkg.Artifact(env.Cfg.TagMsgFilename))
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
	}
	if message == "" {
		head, err := git.HeadMessage(ctx)
		if err != nil {
			return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
		}
		message = strings.TrimSpace(head)
	}
	if message == "" {
		message = "Release " + tagName
	}
	message = substitutePlaceholders(message, version, version)

	// Prod reference first: last write wins, no downgrade protection.
	var prodChanged bool
	if name, err := m.Name(); err == nil {
		prodChanged, err = manifest.UpdateDependencyTag(
			filepath.Join(env.Root, env.Cfg.ProdManifestPath), name, tagName, env.DryRun)
		if err != nil {
			return Result{Package: pkg.Name, Outcome: Failed, Err: err}, false
		}
	}

	if err := git.TagAnnotated(ctx, tagName, message); err != nil {
		res := Result{Package: pkg.Name, Outcome: Failed, Err: err}
		if prodChanged {
			res.Warning = "prod manifest already references " + tagName + " but the tag was not created"
		}
		return res, prodChanged
	}
	if opts.Push {
		if err := git.PushRef(ctx, env.Cfg.GitRemote, tagName); err != nil {
			return Result{Package: pkg.Name, Outcome: Processed, Detail: "tagged " + tagName,
				Warning: fmt.Sprintf("tag push failed: %v", err)}, prodChanged
		}
	}

	detail := "tagged " + tagName
	if prodChanged {
		detail += ", prod pinned"
	}
	return Result{Package: pkg.Name, Outcome: Processed, Detail: detail}, prodChanged
}
