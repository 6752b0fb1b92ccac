package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyproject.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const packageManifest = `
[project]
name = "stellar-core"
version = "1.4.9"

[tool.uv.sources.stellar-common]
workspace = true

[tool.uv.sources.stellar-proto]
workspace = true
tag = "v0.3.0"
`

func TestNameAndVersion(t *testing.T) {
	t.Parallel()

	m, err := Load(writeManifest(t, packageManifest))
	if err != nil {
		t.Fatal(err)
	}
	name, err := m.Name()
	if err != nil {
		t.Fatal(err)
	}
	if name != "stellar-core" {
		t.Errorf("Name() = %q, want %q", name, "stellar-core")
	}
	version, err := m.Version()
	if err != nil {
		t.Fatal(err)
	}
	if version != "1.4.9" {
		t.Errorf("Version() = %q, want %q", version, "1.4.9")
	}
}

func TestSetVersionRoundTrip(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, packageManifest)
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	changed, err := m.SetVersion("1.5.0")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("SetVersion to a new value should report changed")
	}
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	version, err := reloaded.Version()
	if err != nil {
		t.Fatal(err)
	}
	if version != "1.5.0" {
		t.Errorf("version after save = %q, want %q", version, "1.5.0")
	}

	changed, err = reloaded.SetVersion("1.5.0")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("SetVersion to the same value should report unchanged")
	}
}

func TestVersionMissing(t *testing.T) {
	t.Parallel()

	m, err := Load(writeManifest(t, "[project]\nname = \"x\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Version(); err == nil {
		t.Error("Version() on manifest without version: want error")
	}
}

func TestStripWorkspaceSources(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, packageManifest)
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !m.StripWorkspaceSources() {
		t.Fatal("StripWorkspaceSources should report changed")
	}
	if err := m.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if strings.Contains(text, "workspace") {
		t.Errorf("workspace markers survived:\n%s", text)
	}
	// Entry with only the workspace key is dropped entirely; the one that
	// also pinned a tag keeps its tag.
	if strings.Contains(text, "stellar-common") {
		t.Errorf("emptied source entry survived:\n%s", text)
	}
	if !strings.Contains(text, "stellar-proto") || !strings.Contains(text, "v0.3.0") {
		t.Errorf("tagged source entry lost:\n%s", text)
	}

	// Second strip is a no-op.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.StripWorkspaceSources() {
		t.Error("second StripWorkspaceSources should report unchanged")
	}
}

const promotionManifest = `
[project]
name = "staging"
version = "0.0.0"

[tool.uv.sources.stellar-core]
git = "https://example.com/stellar-core.git"
tag = "v1.4.8"
`

func TestSetDependencyTag(t *testing.T) {
	t.Parallel()

	m, err := Load(writeManifest(t, promotionManifest))
	if err != nil {
		t.Fatal(err)
	}
	if !m.SetDependencyTag("stellar-core", "v1.4.9") {
		t.Error("update to a new ref should report changed")
	}
	if m.SetDependencyTag("stellar-core", "v1.4.9") {
		t.Error("update to the same ref should report unchanged")
	}
	// Undeclared dependencies are never added.
	if m.SetDependencyTag("unknown-pkg", "v9.9.9") {
		t.Error("undeclared dependency should not be added")
	}
}

func TestUpdateDependencyTag(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, promotionManifest)

	changed, err := UpdateDependencyTag(path, "stellar-core", "v2.0.0", false)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("want changed")
	}
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	srcs := m.sources()
	entry := srcs["stellar-core"].(map[string]any)
	if entry["tag"] != "v2.0.0" {
		t.Errorf("tag = %v, want v2.0.0", entry["tag"])
	}
	if entry["git"] != "https://example.com/stellar-core.git" {
		t.Errorf("sibling key lost: %v", entry["git"])
	}
}

func TestUpdateDependencyTagDryRun(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, promotionManifest)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	changed, err := UpdateDependencyTag(path, "stellar-core", "v2.0.0", true)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("dry-run should still report the change it would make")
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("dry-run must not write the file")
	}
}

func TestUpdateDependencyTagMissingFile(t *testing.T) {
	t.Parallel()

	changed, err := UpdateDependencyTag(filepath.Join(t.TempDir(), "absent.toml"), "x", "v1", false)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("missing promotion manifest is a no-op")
	}
}
