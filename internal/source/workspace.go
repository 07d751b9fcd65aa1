package source

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
)

// Workspace is an ephemeral directory holding a clone for one run.
type Workspace struct {
	baseDir string
	dir     string
}

// NewWorkspace creates a workspace below baseDir (os.TempDir when empty).
func NewWorkspace(baseDir string) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create workspace base: %w", err)
	}
	dir, err := os.MkdirTemp(baseDir, "contractcatalog-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace directory: %w", err)
	}
	slog.Debug("Created workspace", logfields.Path(dir))
	return &Workspace{baseDir: baseDir, dir: dir}, nil
}

// Path returns the workspace directory.
func (w *Workspace) Path() string {
	return w.dir
}

// Cleanup removes the workspace directory. It is safe to call twice.
func (w *Workspace) Cleanup() error {
	if w == nil || w.dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(w.dir))
	w.dir = ""
	return nil
}
