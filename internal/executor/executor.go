// Package executor launches and controls desktop applications on behalf
// of classified commands. Launches are fire-and-forget; the child is
// released so the assistant never waits on an editor or browser.
package executor

import (
	"fmt"
	"os/exec"
)

// Launcher starts a command without waiting for it. Swapped out in tests.
type Launcher func(name string, args ...string) error

// StartDetached is the production launcher.
func StartDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	// Reap the child in the background so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}
