// Package stage implements the seven release workflow stages. Stages are
// invoked in order by convention, each reading the artifacts of the one
// before it; nothing enforces the order programmatically. Every stage
// processes each discovered package independently and collects a tagged
// outcome per package, so one package failing never aborts its siblings.
package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/papapumpkin/pulsar/internal/config"
	"github.com/papapumpkin/pulsar/internal/gitx"
	"github.com/papapumpkin/pulsar/internal/ui"
)

// Git is the version-control capability a stage needs for one repository.
// *gitx.Repo is the production implementation; tests substitute stubs.
type Git interface {
	Status(ctx context.Context) (string, error)
	HasUncommitted(ctx context.Context) (bool, error)
	DiffStat(ctx context.Context) (string, error)
	Diff(ctx context.Context) (string, error)
	DiffSince(ctx context.Context, tag string) (string, error)
	LastTag(ctx context.Context) string
	CommitCountSince(ctx context.Context, tag string) (int, error)
	RefExists(ctx context.Context, ref string) bool
	TagExists(ctx context.Context, tag string) (bool, error)
	CurrentBranch(ctx context.Context) (string, error)
	HeadMessage(ctx context.Context) (string, error)
	HasRemote(ctx context.Context, remote string) bool
	LocalBranchExists(ctx context.Context, branch string) bool
	RemoteBranchExists(ctx context.Context, remote, branch string) bool
	DefaultRemoteBranch(ctx context.Context, remote string) string
	HasCommitsToPush(ctx context.Context, remote string) (bool, error)
	AnalyzeState(ctx context.Context, branch, remote string) (gitx.RepoState, error)

	Fetch(ctx context.Context, remote string) error
	Checkout(ctx context.Context, branch, startPoint string) error
	FastForward(ctx context.Context, ref string) (bool, error)
	EnsureTracking(ctx context.Context, branch, remote string) error
	Add(ctx context.Context, path string) error
	Commit(ctx context.Context, message string) error
	CommitAll(ctx context.Context, message string) error
	TagAnnotated(ctx context.Context, tag, message string) error
	Push(ctx context.Context, remote string) error
	PushRef(ctx context.Context, remote, ref string) error
	WithStash(ctx context.Context, opts gitx.StashOptions, fn func() error) (bool, error)
}

var _ Git = (*gitx.Repo)(nil)

// Env carries the cross-stage execution context: workspace root, resolved
// configuration, the dry-run mode, and the console printer.
type Env struct {
	Root   string
	Cfg    config.Config
	DryRun bool
	UI     *ui.Printer

	// Open returns the Git capability for a repository directory.
	// Left nil, it opens a real gitx.Repo honoring DryRun.
	Open func(dir string) Git
}

func (e *Env) git(dir string) Git {
	if e.Open != nil {
		return e.Open(dir)
	}
	repo := gitx.New(dir, e.DryRun)
	if e.UI != nil {
		repo.Out = e.UI.W
	}
	return repo
}

func (e *Env) ui() *ui.Printer {
	if e.UI != nil {
		return e.UI
	}
	return ui.New()
}

// Outcome tags a package's result at one stage.
type Outcome int

const (
	Processed Outcome = iota
	Skipped
	Failed
)

// Result is the per-package outcome of one stage run.
type Result struct {
	Package string
	Outcome Outcome
	Detail  string // success note or skip reason
	Err     error  // set when Outcome is Failed
	Warning string // inconsistent-state warning, surfaced but never repaired
}

// Report aggregates per-package results for one stage invocation.
type Report struct {
	Results []Result
}

func (r *Report) add(res Result) { r.Results = append(r.Results, res) }

// Counts returns the processed/skipped/failed totals.
func (r *Report) Counts() (processed, skipped, failed int) {
	for _, res := range r.Results {
		switch res.Outcome {
		case Processed:
			processed++
		case Skipped:
			skipped++
		case Failed:
			failed++
		}
	}
	return
}

// HasFailures reports whether any package hard-failed; the process exit
// status reflects this.
func (r *Report) HasFailures() bool {
	_, _, failed := r.Counts()
	return failed > 0
}

// Lines renders one summary line per package.
func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		var status string
		switch res.Outcome {
		case Processed:
			status = res.Detail
			if status == "" {
				status = "ok"
			}
		case Skipped:
			status = "skipped: " + res.Detail
		case Failed:
			status = fmt.Sprintf("failed: %v", res.Err)
		}
		if res.Warning != "" {
			status += " ⚠ " + res.Warning
		}
		lines = append(lines, fmt.Sprintf("• %-18s %s", res.Package, status))
	}
	return lines
}

// report prints a result through the printer as it is recorded.
func (e *Env) report(rep *Report, res Result) {
	switch res.Outcome {
	case Processed:
		e.ui().Done(res.Package, res.Detail)
	case Skipped:
		e.ui().Skip(res.Package, res.Detail)
	case Failed:
		e.ui().Fail(res.Package, res.Err)
	}
	if res.Warning != "" {
		e.ui().Warn(res.Package, res.Warning)
	}
	rep.add(res)
}

// stateNote formats ahead/behind/uncommitted for summary lines.
func stateNote(st gitx.RepoState) string {
	parts := []string{}
	if st.Ahead > 0 {
		parts = append(parts, fmt.Sprintf("ahead:%d", st.Ahead))
	}
	if st.Behind > 0 {
		parts = append(parts, fmt.Sprintf("behind:%d", st.Behind))
	}
	if st.Uncommitted {
		parts = append(parts, "uncommitted")
	}
	if len(parts) == 0 {
		return "ok"
	}
	return strings.Join(parts, ", ")
}
