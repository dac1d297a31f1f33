package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Workspace is an isolated directory for tests that read and write files
type Workspace struct {
	T   *testing.T
	Dir string
}

// SetupWorkspace creates a workspace in a temporary directory that is
// removed when the test finishes
func SetupWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return &Workspace{T: t, Dir: t.TempDir()}
}

// Path returns the absolute path of name inside the workspace
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// WriteFile writes content to name and returns its path
func (w *Workspace) WriteFile(name, content string) string {
	w.T.Helper()
	path := w.Path(name)
	require.NoError(w.T, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(w.T, os.WriteFile(path, []byte(content), 0644), "Failed to write %s", name)
	return path
}

// WriteYAML marshals v as YAML into name and returns its path
func (w *Workspace) WriteYAML(name string, v any) string {
	w.T.Helper()
	data, err := yaml.Marshal(v)
	require.NoError(w.T, err, "Failed to marshal %s", name)
	return w.WriteFile(name, string(data))
}

// ReadFile returns the content of name
func (w *Workspace) ReadFile(name string) string {
	w.T.Helper()
	data, err := os.ReadFile(w.Path(name))
	require.NoError(w.T, err, "Failed to read %s", name)
	return string(data)
}
