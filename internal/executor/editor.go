package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Editor drives the code editor, VS Code by default.
type Editor struct {
	Command       string
	WorkspaceRoot string

	launch Launcher
}

func NewEditor(command, workspaceRoot string, launch Launcher) *Editor {
	if strings.TrimSpace(command) == "" {
		command = "code"
	}
	if strings.TrimSpace(workspaceRoot) == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			workspaceRoot = filepath.Join(home, "workspace")
		} else {
			workspaceRoot = "workspace"
		}
	}
	if launch == nil {
		launch = StartDetached
	}
	return &Editor{Command: command, WorkspaceRoot: workspaceRoot, launch: launch}
}

func (e *Editor) Open() (string, error) {
	if err := e.launch(e.Command); err != nil {
		return "", err
	}
	return "Opening VS Code", nil
}

func (e *Editor) OpenFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("no file path provided")
	}
	if err := e.launch(e.Command, "--goto", path); err != nil {
		return "", err
	}
	return fmt.Sprintf("Opening file %s", path), nil
}

// CreateWorkspace makes a directory under the workspace root and opens it
// in a new editor window.
func (e *Editor) CreateWorkspace(name string) (string, error) {
	name = sanitizeWorkspaceName(name)
	dir := filepath.Join(e.WorkspaceRoot, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create workspace dir: %w", err)
	}
	if err := e.launch(e.Command, "--new-window", dir); err != nil {
		return "", err
	}
	return fmt.Sprintf("Created workspace %s", name), nil
}

// sanitizeWorkspaceName keeps spoken names filesystem-safe.
func sanitizeWorkspaceName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "new_workspace"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "new_workspace"
	}
	return b.String()
}
