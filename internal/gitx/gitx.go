// Package gitx wraps the git CLI for a single package repository. Every
// operation runs against an explicit repository directory; nothing depends
// on the process working directory. Mutating operations are gated by the
// repo's dry-run flag and print the command they would have run instead.
package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// CommandError reports a git command that exited non-zero.
type CommandError struct {
	Dir    string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s in %s: %v", strings.Join(e.Args, " "), e.Dir, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// ErrNothingToCommit is returned by CommitAll when the working tree has no
// staged changes. Callers treat it as "nothing to do", not a failure.
var ErrNothingToCommit = errors.New("nothing to commit")

// Repo runs git commands in one repository directory.
type Repo struct {
	Dir    string
	DryRun bool
	Out    io.Writer // dry-run previews; defaults to os.Stderr
}

// New returns a Repo for dir. It does not verify that dir is a repository;
// use IsRepo for discovery-time checks.
func New(dir string, dryRun bool) *Repo {
	return &Repo{Dir: dir, DryRun: dryRun}
}

// IsRepo reports whether dir is the root of a git work tree.
func IsRepo(dir string) bool {
	if _, err := os.Stat(dir + "/.git"); err != nil {
		return false
	}
	return true
}

func (r *Repo) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stderr
}

// run executes git with the given args in the repo directory, capturing
// stdout and stderr. Non-zero exit becomes a *CommandError.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.Dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &CommandError{
			Dir:    r.Dir,
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// preview prints the command a mutating operation would run under dry-run.
func (r *Repo) preview(args ...string) {
	fmt.Fprintf(r.out(), "[dry-run] git -C %s %s\n", r.Dir, strings.Join(args, " "))
}

// --- read-only queries ----------------------------------------------------

// Status returns `git status --porcelain` output, trimmed.
func (r *Repo) Status(ctx context.Context) (string, error) {
	return r.run(ctx, "status", "--porcelain")
}

// HasUncommitted reports whether the working tree has any local edits.
func (r *Repo) HasUncommitted(ctx context.Context) (bool, error) {
	out, err := r.Status(ctx)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// DiffStat returns `git diff --stat` for unstaged changes.
func (r *Repo) DiffStat(ctx context.Context) (string, error) {
	return r.run(ctx, "diff", "--stat")
}

// Diff returns the full unstaged diff.
func (r *Repo) Diff(ctx context.Context) (string, error) {
	return r.run(ctx, "diff")
}

// DiffSince returns the diff from tag to HEAD. With an empty tag (a repo
// that has never been tagged) it falls back to the last commit's diff.
func (r *Repo) DiffSince(ctx context.Context, tag string) (string, error) {
	revspec := "HEAD^..HEAD"
	if tag != "" {
		revspec = tag + "..HEAD"
	}
	return r.run(ctx, "diff", revspec)
}

// LastTag returns the most recent reachable tag, or "" when the repository
// has no tags.
func (r *Repo) LastTag(ctx context.Context) string {
	out, err := r.run(ctx, "describe", "--tags", "--abbrev=0")
	if err != nil {
		return ""
	}
	return out
}

// CommitCountSince counts commits in tag..HEAD. An empty tag counts all
// commits reachable from HEAD.
func (r *Repo) CommitCountSince(ctx context.Context, tag string) (int, error) {
	revspec := "HEAD"
	if tag != "" {
		revspec = tag + "..HEAD"
	}
	out, err := r.run(ctx, "rev-list", revspec, "--count")
	if err != nil {
		return 0, err
	}
	if out == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", out, err)
	}
	return n, nil
}

// RefExists reports whether ref resolves in this repository.
func (r *Repo) RefExists(ctx context.Context, ref string) bool {
	_, err := r.run(ctx, "rev-parse", "--verify", ref)
	return err == nil
}

// TagExists reports whether an exact tag name exists.
func (r *Repo) TagExists(ctx context.Context, tag string) (bool, error) {
	out, err := r.run(ctx, "tag", "-l", tag)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// CurrentBranch returns the checked-out branch name.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// HeadMessage returns the full message of the most recent commit.
func (r *Repo) HeadMessage(ctx context.Context) (string, error) {
	return r.run(ctx, "log", "-1", "--pretty=%B")
}

// HasRemote reports whether the named remote is configured.
func (r *Repo) HasRemote(ctx context.Context, remote string) bool {
	_, err := r.run(ctx, "remote", "get-url", remote)
	return err == nil
}

// LocalBranchExists reports whether branch exists as a local head.
func (r *Repo) LocalBranchExists(ctx context.Context, branch string) bool {
	_, err := r.run(ctx, "show-ref", "--verify", "refs/heads/"+branch)
	return err == nil
}

// RemoteBranchExists reports whether remote/branch is known locally.
func (r *Repo) RemoteBranchExists(ctx context.Context, remote, branch string) bool {
	return r.RefExists(ctx, remote+"/"+branch)
}

// DefaultRemoteBranch resolves the remote's HEAD branch name (e.g. "main"),
// or "" when the symbolic ref is unknown.
func (r *Repo) DefaultRemoteBranch(ctx context.Context, remote string) string {
	out, err := r.run(ctx, "symbolic-ref", "refs/remotes/"+remote+"/HEAD")
	if err != nil || out == "" {
		return ""
	}
	parts := strings.Split(out, "/")
	return parts[len(parts)-1]
}

// AheadBehind counts commits on branch not on remoteRef and vice versa.
// Unresolvable refs count as (0, 0) rather than failing; callers use this
// for reporting only.
func (r *Repo) AheadBehind(ctx context.Context, branch, remoteRef string) (ahead, behind int) {
	out, err := r.run(ctx, "rev-list", "--left-right", "--count", branch+"..."+remoteRef)
	if err != nil || out == "" {
		return 0, 0
	}
	fields := strings.Fields(out)
	switch len(fields) {
	case 2:
		ahead, _ = strconv.Atoi(fields[0])
		behind, _ = strconv.Atoi(fields[1])
	case 1:
		ahead, _ = strconv.Atoi(fields[0])
	}
	return ahead, behind
}

// HasCommitsToPush reports whether the current branch has commits its
// remote counterpart lacks. A branch with no remote counterpart always has
// commits to push.
func (r *Repo) HasCommitsToPush(ctx context.Context, remote string) (bool, error) {
	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		return false, err
	}
	if !r.RefExists(ctx, remote+"/"+branch) {
		return true, nil
	}
	out, err := r.run(ctx, "rev-list", "--left-right", "--count", remote+"/"+branch+"..HEAD")
	if err != nil {
		return false, err
	}
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return false, nil
	}
	n, _ := strconv.Atoi(fields[0])
	return n > 0, nil
}

// RepoState summarizes a package branch relative to its remote counterpart.
type RepoState struct {
	Ahead       int
	Behind      int
	Uncommitted bool
}

// AnalyzeState computes ahead/behind against remote/branch (zero when the
// remote branch does not exist) plus the uncommitted flag.
func (r *Repo) AnalyzeState(ctx context.Context, branch, remote string) (RepoState, error) {
	var st RepoState
	if r.RemoteBranchExists(ctx, remote, branch) {
		st.Ahead, st.Behind = r.AheadBehind(ctx, branch, remote+"/"+branch)
	}
	uncommitted, err := r.HasUncommitted(ctx)
	if err != nil {
		return st, err
	}
	st.Uncommitted = uncommitted
	return st, nil
}

// --- mutating operations ----------------------------------------------------

// Fetch updates remote-tracking refs.
func (r *Repo) Fetch(ctx context.Context, remote string) error {
	if r.DryRun {
		r.preview("fetch", remote)
		return nil
	}
	_, err := r.run(ctx, "fetch", remote)
	return err
}

// Checkout switches to branch. A non-empty startPoint creates or resets the
// branch at that ref (checkout -B).
func (r *Repo) Checkout(ctx context.Context, branch, startPoint string) error {
	args := []string{"checkout", branch}
	if startPoint != "" {
		args = []string{"checkout", "-B", branch, startPoint}
	}
	if r.DryRun {
		r.preview(args...)
		return nil
	}
	_, err := r.run(ctx, args...)
	return err
}

// FastForward merges ref with --ff-only. It returns true when the branch
// advanced, false when already up to date, and an error on divergence.
func (r *Repo) FastForward(ctx context.Context, ref string) (bool, error) {
	if r.DryRun {
		r.preview("merge", "--ff-only", ref)
		return false, nil
	}
	out, err := r.run(ctx, "merge", "--ff-only", ref)
	if err == nil {
		return out != "", nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && strings.Contains(strings.ToLower(cmdErr.Stderr+out), "already up to date") {
		return false, nil
	}
	return false, err
}

// EnsureTracking points branch's upstream at remote/branch when that
// remote branch exists.
func (r *Repo) EnsureTracking(ctx context.Context, branch, remote string) error {
	if !r.RemoteBranchExists(ctx, remote, branch) {
		return nil
	}
	if r.DryRun {
		r.preview("branch", "--set-upstream-to", remote+"/"+branch, branch)
		return nil
	}
	_, err := r.run(ctx, "branch", "--set-upstream-to", remote+"/"+branch, branch)
	return err
}

// Add stages a single path.
func (r *Repo) Add(ctx context.Context, path string) error {
	if r.DryRun {
		r.preview("add", path)
		return nil
	}
	_, err := r.run(ctx, "add", path)
	return err
}

// Commit creates a commit from whatever is staged. A clean index yields
// ErrNothingToCommit.
func (r *Repo) Commit(ctx context.Context, message string) error {
	if r.DryRun {
		r.preview("commit", "-m", "<message>")
		return nil
	}
	_, err := r.run(ctx, "commit", "-m", message)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && strings.Contains(cmdErr.Stderr, "nothing to commit") {
			return ErrNothingToCommit
		}
		return err
	}
	return nil
}

// CommitAll stages everything and commits with message. Git reports a
// clean tree on stdout, not stderr, so both streams are checked; that case
// surfaces as ErrNothingToCommit.
func (r *Repo) CommitAll(ctx context.Context, message string) error {
	if r.DryRun {
		r.preview("add", "-A")
		r.preview("commit", "-m", "<message>")
		return nil
	}
	if _, err := r.run(ctx, "add", "-A"); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, "git", "-C", r.Dir, "commit", "-m", message)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		combined := stdout.String() + stderr.String()
		if strings.Contains(combined, "nothing to commit") || strings.Contains(combined, "nothing added to commit") {
			return ErrNothingToCommit
		}
		return &CommandError{Dir: r.Dir, Args: []string{"commit", "-m", message}, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return nil
}

// TagAnnotated creates an annotated tag.
func (r *Repo) TagAnnotated(ctx context.Context, tag, message string) error {
	if r.DryRun {
		r.preview("tag", "-a", tag, "-m", "<message>")
		return nil
	}
	_, err := r.run(ctx, "tag", "-a", tag, "-m", message)
	return err
}

// upstreamPhrases mark the push errors that mean "no upstream configured".
var upstreamPhrases = []string{
	"set upstream",
	"--set-upstream",
	"have no upstream",
	"upstream branch",
}

// Push pushes the current branch. When the branch has no upstream yet, it
// retries with --set-upstream.
func (r *Repo) Push(ctx context.Context, remote string) error {
	if r.DryRun {
		r.preview("push", remote)
		return nil
	}
	_, err := r.run(ctx, "push", remote)
	if err == nil {
		return nil
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	needsUpstream := false
	for _, phrase := range upstreamPhrases {
		if strings.Contains(cmdErr.Stderr, phrase) {
			needsUpstream = true
			break
		}
	}
	if !needsUpstream {
		return err
	}
	branch, berr := r.CurrentBranch(ctx)
	if berr != nil {
		return err
	}
	if _, uerr := r.run(ctx, "push", "--set-upstream", remote, branch); uerr != nil {
		return uerr
	}
	return nil
}

// PushRef pushes a single ref (a tag or branch) to remote.
func (r *Repo) PushRef(ctx context.Context, remote, ref string) error {
	if r.DryRun {
		r.preview("push", remote, ref)
		return nil
	}
	_, err := r.run(ctx, "push", remote, ref)
	return err
}
