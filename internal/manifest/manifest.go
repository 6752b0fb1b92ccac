// Package manifest reads and edits pyproject.toml files: the per-package
// manifests that carry the authoritative version, and the staging/prod
// promotion manifests whose [tool.uv.sources] tables pin each package to a
// version or tag reference.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrNoProject is returned when a manifest lacks the [project] table or a
// required field inside it.
var ErrNoProject = errors.New("project table or field missing")

// Manifest is a loaded pyproject document. Edits happen in memory; Save
// writes the document back.
type Manifest struct {
	Path string
	doc  map[string]any
}

// Load parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return &Manifest{Path: path, doc: doc}, nil
}

// Save writes the document back to its path, creating parent directories
// as needed.
func (m *Manifest) Save() error {
	dir := filepath.Dir(m.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	data, err := toml.Marshal(m.doc)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", m.Path, err)
	}
	if err := os.WriteFile(m.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", m.Path, err)
	}
	return nil
}

// project returns the [project] table, or nil when absent.
func (m *Manifest) project() map[string]any {
	tbl, _ := m.doc["project"].(map[string]any)
	return tbl
}

// Name returns project.name.
func (m *Manifest) Name() (string, error) {
	tbl := m.project()
	if tbl == nil {
		return "", fmt.Errorf("%s: %w", m.Path, ErrNoProject)
	}
	name, ok := tbl["name"].(string)
	if !ok || name == "" {
		return "", fmt.Errorf("%s: name: %w", m.Path, ErrNoProject)
	}
	return name, nil
}

// Version returns project.version as a raw string.
func (m *Manifest) Version() (string, error) {
	tbl := m.project()
	if tbl == nil {
		return "", fmt.Errorf("%s: %w", m.Path, ErrNoProject)
	}
	version, ok := tbl["version"].(string)
	if !ok || version == "" {
		return "", fmt.Errorf("%s: version: %w", m.Path, ErrNoProject)
	}
	return version, nil
}

// SetVersion updates project.version in memory. Setting the same value is
// a no-op and reports false.
func (m *Manifest) SetVersion(version string) (bool, error) {
	tbl := m.project()
	if tbl == nil {
		return false, fmt.Errorf("%s: %w", m.Path, ErrNoProject)
	}
	if cur, ok := tbl["version"].(string); ok && cur == version {
		return false, nil
	}
	tbl["version"] = version
	return true, nil
}

// sources returns the [tool.uv.sources] table, or nil when any level of
// the path is absent.
func (m *Manifest) sources() map[string]any {
	tool, _ := m.doc["tool"].(map[string]any)
	if tool == nil {
		return nil
	}
	uv, _ := tool["uv"].(map[string]any)
	if uv == nil {
		return nil
	}
	srcs, _ := uv["sources"].(map[string]any)
	return srcs
}

// StripWorkspaceSources removes `workspace = true` markers from every
// entry of [tool.uv.sources], deleting entries left empty. Reports whether
// anything changed. A release artifact must not reference workspace-local
// checkouts.
func (m *Manifest) StripWorkspaceSources() bool {
	srcs := m.sources()
	if srcs == nil {
		return false
	}
	changed := false
	for name, raw := range srcs {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if ws, ok := entry["workspace"].(bool); ok && ws {
			delete(entry, "workspace")
			if len(entry) == 0 {
				delete(srcs, name)
			}
			changed = true
		}
	}
	return changed
}

// SetDependencyTag points the source entry for dep at ref (a version or a
// tag name). Only entries already declared in [tool.uv.sources] are
// touched; the promotion manifest decides which packages it tracks.
// Reports whether the document changed. Last write wins: no ordering
// check is made against the previous reference.
func (m *Manifest) SetDependencyTag(dep, ref string) bool {
	srcs := m.sources()
	if srcs == nil {
		return false
	}
	entry, ok := srcs[dep].(map[string]any)
	if !ok {
		return false
	}
	if cur, ok := entry["tag"].(string); ok && cur == ref {
		return false
	}
	entry["tag"] = ref
	return true
}

// UpdateDependencyTag loads the promotion manifest at path, updates the
// reference for dep, and saves when something changed. A missing manifest
// is a no-op. Under dryRun the change is computed but not written.
func UpdateDependencyTag(path, dep, ref string, dryRun bool) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	m, err := Load(path)
	if err != nil {
		return false, err
	}
	if !m.SetDependencyTag(dep, ref) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	return true, m.Save()
}
