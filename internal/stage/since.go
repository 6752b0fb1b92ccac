package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/papapumpkin/pulsar/internal/workspace"
)

// TagMessageTemplate seeds the tag-message artifact. The placeholders are
// substituted at release time; a file still equal to the template counts
// as unauthored and the package is skipped by the release stage.
const TagMessageTemplate = `## Release {VERSION}

_Changes compared to {PREV_VERSION}_

<!-- Describe the main changes here -->
`

// SinceOptions configures the since-tag scan.
type SinceOptions struct {
	// TagsFile optionally names a JSON file mapping package name to the
	// reference tag to diff from, overriding "latest tag" per package.
	TagsFile string
}

// LoadTagsFile parses a {package: tag} JSON map.
func LoadTagsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tags file: %w", err)
	}
	var tags map[string]string
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("tags file %s: %w", path, err)
	}
	return tags, nil
}

// Since captures, per package, the diff between a reference tag and HEAD
// into the since-tag report artifact and seeds the tag-message template
// beside it. Packages with no commits past the reference tag produce no
// artifacts and are skipped.
func Since(ctx context.Context, env *Env, opts SinceOptions) (*Report, error) {
	tags := map[string]string{}
	if opts.TagsFile != "" {
		var err error
		tags, err = LoadTagsFile(opts.TagsFile)
		if err != nil {
			return nil, err
		}
	}

	pkgs, err := workspace.Discover(env.Root, env.Cfg, false)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for _, pkg := range pkgs {
		env.ui().Package(pkg.Name)
		env.report(rep, sinceOne(ctx, env, pkg, tags[pkg.Name]))
	}
	return rep, nil
}

func sinceOne(ctx context.Context, env *Env, pkg workspace.Package, fromTag string) Result {
	git := env.git(pkg.Dir)

	var tag string
	if fromTag != "" {
		if !git.RefExists(ctx, fromTag) {
			return Result{Package: pkg.Name, Outcome: Failed, Err: fmt.Errorf("tag %q not found", fromTag)}
		}
		tag = fromTag
	} else {
		tag = git.LastTag(ctx)
		count, err := git.CommitCountSince(ctx, tag)
		if err != nil {
			return Result{Package: pkg.Name, Outcome: Failed, Err: err}
		}
		if tag != "" && count == 0 {
			return Result{Package: pkg.Name, Outcome: Skipped, Detail: "no commits since " + tag}
		}
	}

	diff, err := git.DiffSince(ctx, tag)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	if strings.TrimSpace(diff) == "" {
		return Result{Package: pkg.Name, Outcome: Skipped, Detail: "no changes to record"}
	}

	reportFile := pkg.Artifact(env.Cfg.SinceTagFilename)
	if env.DryRun {
		env.ui().Info(fmt.Sprintf("[dry-run] would write %s (%d bytes)", reportFile, len(diff)))
		return Result{Package: pkg.Name, Outcome: Processed, Detail: "changes detected (dry-run, nothing written)"}
	}

	if err := workspace.WriteArtifact(reportFile, diff+"\n"); err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}
	created, err := workspace.EnsureArtifact(pkg.Artifact(env.Cfg.TagMsgFilename), TagMessageTemplate)
	if err != nil {
		return Result{Package: pkg.Name, Outcome: Failed, Err: err}
	}

	from := tag
	if from == "" {
		from = "last commit"
	}
	detail := "diff since " + from + " captured"
	if created {
		detail += ", tag message template created"
	}
	return Result{Package: pkg.Name, Outcome: Processed, Detail: detail}
}
