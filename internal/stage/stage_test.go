package stage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/papapumpkin/pulsar/internal/config"
	"github.com/papapumpkin/pulsar/internal/gitx"
	"github.com/papapumpkin/pulsar/internal/ui"
)

// fakeGit implements Git with overridable behavior per method. Unset
// fields return zero values, which reads as "clean repo, everything fine".
type fakeGit struct {
	status        string
	diffStat      string
	diff          string
	diffSince     string
	lastTag       string
	commitCount   int
	refs          map[string]bool
	tags          map[string]bool
	branch        string
	headMessage   string
	hasRemote     bool
	localBranches map[string]bool

	commitAllErr error
	commits      []string // messages passed to Commit/CommitAll
	tagged       []string
	pushedRemote []string
	pushedRefs   []string
	checkouts    []string
	added        []string
}

func (f *fakeGit) Status(ctx context.Context) (string, error)   { return f.status, nil }
func (f *fakeGit) DiffStat(ctx context.Context) (string, error) { return f.diffStat, nil }
func (f *fakeGit) Diff(ctx context.Context) (string, error)     { return f.diff, nil }

func (f *fakeGit) HasUncommitted(ctx context.Context) (bool, error) {
	return f.status != "", nil
}

func (f *fakeGit) DiffSince(ctx context.Context, tag string) (string, error) {
	return f.diffSince, nil
}

func (f *fakeGit) LastTag(ctx context.Context) string { return f.lastTag }

func (f *fakeGit) CommitCountSince(ctx context.Context, tag string) (int, error) {
	return f.commitCount, nil
}

func (f *fakeGit) RefExists(ctx context.Context, ref string) bool { return f.refs[ref] }

func (f *fakeGit) TagExists(ctx context.Context, tag string) (bool, error) {
	return f.tags[tag], nil
}

func (f *fakeGit) CurrentBranch(ctx context.Context) (string, error) {
	if f.branch == "" {
		return "main", nil
	}
	return f.branch, nil
}

func (f *fakeGit) HeadMessage(ctx context.Context) (string, error) { return f.headMessage, nil }

func (f *fakeGit) HasRemote(ctx context.Context, remote string) bool { return f.hasRemote }

func (f *fakeGit) LocalBranchExists(ctx context.Context, branch string) bool {
	return f.localBranches[branch]
}

func (f *fakeGit) RemoteBranchExists(ctx context.Context, remote, branch string) bool {
	return f.refs[remote+"/"+branch]
}

func (f *fakeGit) DefaultRemoteBranch(ctx context.Context, remote string) string { return "" }

func (f *fakeGit) HasCommitsToPush(ctx context.Context, remote string) (bool, error) {
	return false, nil
}

func (f *fakeGit) AnalyzeState(ctx context.Context, branch, remote string) (gitx.RepoState, error) {
	return gitx.RepoState{Ahead: 1}, nil
}

func (f *fakeGit) Fetch(ctx context.Context, remote string) error { return nil }

func (f *fakeGit) Checkout(ctx context.Context, branch, startPoint string) error {
	f.checkouts = append(f.checkouts, branch+"@"+startPoint)
	return nil
}

func (f *fakeGit) FastForward(ctx context.Context, ref string) (bool, error) { return false, nil }

func (f *fakeGit) EnsureTracking(ctx context.Context, branch, remote string) error { return nil }

func (f *fakeGit) Add(ctx context.Context, path string) error {
	f.added = append(f.added, path)
	return nil
}

func (f *fakeGit) Commit(ctx context.Context, message string) error {
	f.commits = append(f.commits, message)
	return nil
}

func (f *fakeGit) CommitAll(ctx context.Context, message string) error {
	if f.commitAllErr != nil {
		return f.commitAllErr
	}
	f.commits = append(f.commits, message)
	return nil
}

func (f *fakeGit) TagAnnotated(ctx context.Context, tag, message string) error {
	f.tagged = append(f.tagged, tag)
	return nil
}

func (f *fakeGit) Push(ctx context.Context, remote string) error {
	f.pushedRemote = append(f.pushedRemote, remote)
	return nil
}

func (f *fakeGit) PushRef(ctx context.Context, remote, ref string) error {
	f.pushedRefs = append(f.pushedRefs, ref)
	return nil
}

func (f *fakeGit) WithStash(ctx context.Context, opts gitx.StashOptions, fn func() error) (bool, error) {
	return false, fn()
}

var _ Git = (*fakeGit)(nil)

// testEnv builds an Env over a temp workspace with the given fake repos,
// keyed by package name.
func testEnv(t *testing.T, fakes map[string]*fakeGit) *Env {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		PackagesDir:         "packages",
		ChangesOutputDir:    "release/changes",
		UncommittedFilename: "changes_uncommitted.txt",
		SinceTagFilename:    "changes_since_tag.txt",
		CommitMsgFilename:   "commit_message.txt",
		TagMsgFilename:      "tag_message.txt",
		TagPrefix:           "v",
		GitRemote:           "origin",
		StagingManifestPath: "staging/pyproject.toml",
		ProdManifestPath:    "prod/pyproject.toml",
	}

	byDir := map[string]*fakeGit{}
	for name, fake := range fakes {
		dir := filepath.Join(root, "packages", name)
		if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
			t.Fatal(err)
		}
		byDir[dir] = fake
	}
	rootFake := &fakeGit{}
	byDir[root] = rootFake

	return &Env{
		Root: root,
		Cfg:  cfg,
		UI:   &ui.Printer{W: io.Discard},
		Open: func(dir string) Git {
			if g, ok := byDir[dir]; ok {
				return g
			}
			t.Fatalf("unexpected repo dir %s", dir)
			return nil
		},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func pkgDir(env *Env, name string) string {
	return filepath.Join(env.Root, "packages", name)
}

func changesDir(env *Env, name string) string {
	return filepath.Join(env.Root, "release", "changes", name)
}
