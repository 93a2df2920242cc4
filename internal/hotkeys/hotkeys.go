// Package hotkeys binds global keyboard shortcuts to speech controls so
// speech can be cut off without switching focus to a terminal.
package hotkeys

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"golang.design/x/hotkey"

	"github.com/hjoshifonteva/DebugAssistant/internal/dispatch"
)

// Binding pairs a shortcut with the control it triggers.
type Binding struct {
	Key   hotkey.Key
	Mods  []hotkey.Modifier
	Label string
	Fire  func(sp dispatch.Speech)
}

// DefaultBindings covers interrupt, resume, volume and rate adjustment.
func DefaultBindings() []Binding {
	ctrlShift := []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}
	return []Binding{
		{Key: hotkey.KeySpace, Mods: ctrlShift, Label: "ctrl+shift+space (interrupt)",
			Fire: func(sp dispatch.Speech) { sp.Interrupt() }},
		{Key: hotkey.KeyR, Mods: ctrlShift, Label: "ctrl+shift+r (resume)",
			Fire: func(sp dispatch.Speech) { sp.Resume() }},
		{Key: hotkey.KeyUp, Mods: ctrlShift, Label: "ctrl+shift+up (volume up)",
			Fire: func(sp dispatch.Speech) { sp.AdjustVolume(0.1) }},
		{Key: hotkey.KeyDown, Mods: ctrlShift, Label: "ctrl+shift+down (volume down)",
			Fire: func(sp dispatch.Speech) { sp.AdjustVolume(-0.1) }},
		{Key: hotkey.KeyRight, Mods: ctrlShift, Label: "ctrl+shift+right (rate up)",
			Fire: func(sp dispatch.Speech) { sp.AdjustRate(25) }},
		{Key: hotkey.KeyLeft, Mods: ctrlShift, Label: "ctrl+shift+left (rate down)",
			Fire: func(sp dispatch.Speech) { sp.AdjustRate(-25) }},
	}
}

// Listener owns the registered hotkeys for the life of the process.
type Listener struct {
	registered []*hotkey.Hotkey
}

// Start registers the bindings and listens until ctx is cancelled.
// On macOS registration is skipped entirely: the hotkey library can
// crash with SIGTRAP there, and the HTTP controls still work.
func Start(ctx context.Context, sp dispatch.Speech, bindings []Binding) (*Listener, error) {
	if runtime.GOOS == "darwin" {
		log.Printf("hotkeys: disabled on macOS, use the HTTP API or stdin controls")
		return &Listener{}, nil
	}

	l := &Listener{}
	for _, b := range bindings {
		hk := hotkey.New(b.Mods, b.Key)
		if err := hk.Register(); err != nil {
			// One shortcut being taken by another app should not
			// disable the rest.
			log.Printf("hotkeys: could not register %s: %v", b.Label, err)
			continue
		}
		l.registered = append(l.registered, hk)

		go func(hk *hotkey.Hotkey, b Binding) {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-hk.Keydown():
					if !ok {
						return
					}
					b.Fire(sp)
				}
			}
		}(hk, b)
		log.Printf("hotkeys: registered %s", b.Label)
	}

	if len(bindings) > 0 && len(l.registered) == 0 {
		return l, fmt.Errorf("no hotkeys could be registered")
	}
	return l, nil
}

func (l *Listener) Stop() {
	for _, hk := range l.registered {
		_ = hk.Unregister()
	}
	l.registered = nil
}
