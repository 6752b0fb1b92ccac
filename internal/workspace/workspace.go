// Package workspace discovers release packages and owns the per-package
// artifact layout under the changes output directory. Artifacts are plain
// text hand-off files: one stage writes them, an external author may edit
// them, and a later stage consumes them. A missing artifact is never an
// error; it means the package has nothing to do at that stage.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/papapumpkin/pulsar/internal/config"
	"github.com/papapumpkin/pulsar/internal/gitx"
)

// Package is one independently-released unit: a subdirectory of the
// packages dir with its own git history and pyproject manifest.
type Package struct {
	Name         string
	Dir          string // repository root
	ManifestPath string // <dir>/pyproject.toml
	ChangesDir   string // <changes_output_dir>/<name>
}

// Artifact returns the path of a named artifact file for this package.
func (p Package) Artifact(filename string) string {
	return filepath.Join(p.ChangesDir, filename)
}

// InRelease reports whether the package participates in the current
// release cycle, i.e. an earlier stage created its changes directory.
func (p Package) InRelease() bool {
	info, err := os.Stat(p.ChangesDir)
	return err == nil && info.IsDir()
}

// Discover lists packages under root's packages dir, sorted by name. Only
// directories that are git repositories qualify. With onlyInRelease set,
// packages without a changes directory are filtered out.
func Discover(root string, cfg config.Config, onlyInRelease bool) ([]Package, error) {
	packagesDir := filepath.Join(root, cfg.PackagesDir)
	entries, err := os.ReadDir(packagesDir)
	if err != nil {
		return nil, fmt.Errorf("packages directory %s: %w", packagesDir, err)
	}
	changesRoot := filepath.Join(root, cfg.ChangesOutputDir)

	var pkgs []Package
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(packagesDir, entry.Name())
		if !gitx.IsRepo(dir) {
			continue
		}
		pkg := Package{
			Name:         entry.Name(),
			Dir:          dir,
			ManifestPath: filepath.Join(dir, "pyproject.toml"),
			ChangesDir:   filepath.Join(changesRoot, entry.Name()),
		}
		if onlyInRelease && !pkg.InRelease() {
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	return pkgs, nil
}

// ReadArtifact returns the trimmed content of an artifact file. A missing
// file reads as empty; consuming stages treat both the same way.
func ReadArtifact(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading artifact %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// RawArtifact returns artifact content without trimming, for template
// comparison. Missing files read as empty.
func RawArtifact(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading artifact %s: %w", path, err)
	}
	return string(data), nil
}

// WriteArtifact writes an artifact file, creating the package's changes
// directory as needed.
func WriteArtifact(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return nil
}

// EnsureArtifact creates an artifact with the given content only when the
// file does not exist yet, so hand-written message files survive re-runs.
// Reports whether the file was created.
func EnsureArtifact(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := WriteArtifact(path, content); err != nil {
		return false, err
	}
	return true, nil
}

// ListArtifacts returns every file under the changes root, relative to
// root, for dry-run previews of Clear.
func ListArtifacts(root string, cfg config.Config) ([]string, error) {
	changesRoot := filepath.Join(root, cfg.ChangesOutputDir)
	var files []string
	err := filepath.WalkDir(changesRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == changesRoot {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return files, nil
}

// Clear removes the changes output directory and recreates it empty.
func Clear(root string, cfg config.Config) error {
	changesRoot := filepath.Join(root, cfg.ChangesOutputDir)
	if err := os.RemoveAll(changesRoot); err != nil {
		return fmt.Errorf("removing %s: %w", changesRoot, err)
	}
	if err := os.MkdirAll(changesRoot, 0o755); err != nil {
		return fmt.Errorf("recreating %s: %w", changesRoot, err)
	}
	return nil
}
