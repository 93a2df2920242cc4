package executor

import (
	"fmt"
	"strings"
)

// Window manipulates application windows through wmctrl.
type Window struct {
	Tool string

	launch Launcher
}

func NewWindow(tool string, launch Launcher) *Window {
	if strings.TrimSpace(tool) == "" {
		tool = "wmctrl"
	}
	if launch == nil {
		launch = StartDetached
	}
	return &Window{Tool: tool, launch: launch}
}

func (w *Window) Maximize(app string) (string, error) {
	if err := w.launch(w.Tool, "-r", windowTarget(app), "-b", "add,maximized_vert,maximized_horz"); err != nil {
		return "", err
	}
	return fmt.Sprintf("Maximizing %s", describeWindow(app)), nil
}

func (w *Window) Minimize(app string) (string, error) {
	if err := w.launch(w.Tool, "-r", windowTarget(app), "-b", "add,hidden"); err != nil {
		return "", err
	}
	return fmt.Sprintf("Minimizing %s", describeWindow(app)), nil
}

func (w *Window) Restore(app string) (string, error) {
	if err := w.launch(w.Tool, "-r", windowTarget(app), "-b", "remove,maximized_vert,maximized_horz"); err != nil {
		return "", err
	}
	return fmt.Sprintf("Restoring %s", describeWindow(app)), nil
}

func (w *Window) Switch(app string) (string, error) {
	if strings.TrimSpace(app) == "" || app == "active" {
		return "", fmt.Errorf("which application should I switch to?")
	}
	if err := w.launch(w.Tool, "-a", app); err != nil {
		return "", err
	}
	return fmt.Sprintf("Switching to %s", app), nil
}

// windowTarget maps the classifier's "active" marker onto wmctrl's :ACTIVE:
// selector.
func windowTarget(app string) string {
	if strings.TrimSpace(app) == "" || app == "active" {
		return ":ACTIVE:"
	}
	return app
}

func describeWindow(app string) string {
	if strings.TrimSpace(app) == "" || app == "active" {
		return "the active window"
	}
	return app
}
