package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
)

// Engine vocalizes one chunk of text, blocking until playback ends. Stop
// must be safe to call from any goroutine while Speak is in flight.
type Engine interface {
	Name() string
	Speak(ctx context.Context, text string, volume float64, rate int) error
	Stop()
}

// execEngine drives a local TTS command (say, espeak-ng, or PowerShell
// SAPI). One process is spawned per chunk; Stop kills the in-flight one.
type execEngine struct {
	name string
	path string
	args func(text string, volume float64, rate int) []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

func (e *execEngine) Name() string { return e.name }

func (e *execEngine) Speak(ctx context.Context, text string, volume float64, rate int) error {
	cmd := exec.CommandContext(ctx, e.path, e.args(text, volume, rate)...)

	e.mu.Lock()
	e.cmd = cmd
	e.mu.Unlock()

	err := cmd.Run()

	e.mu.Lock()
	e.cmd = nil
	e.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%s: %w", e.name, err)
	}
	return nil
}

func (e *execEngine) Stop() {
	e.mu.Lock()
	cmd := e.cmd
	e.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// NewSayEngine wraps the macOS `say` command. Volume rides as an embedded
// [[volm]] directive since say has no volume flag.
func NewSayEngine(path string) Engine {
	return &execEngine{
		name: "say",
		path: path,
		args: func(text string, volume float64, rate int) []string {
			return []string{"-r", strconv.Itoa(rate), fmt.Sprintf("[[volm %.2f]] %s", volume, text)}
		},
	}
}

// NewESpeakEngine wraps espeak-ng (or espeak). Amplitude range is 0-200.
func NewESpeakEngine(path string) Engine {
	return &execEngine{
		name: "espeak",
		path: path,
		args: func(text string, volume float64, rate int) []string {
			return []string{
				"-a", strconv.Itoa(int(volume * 200)),
				"-s", strconv.Itoa(rate),
				text,
			}
		},
	}
}

// NewPowerShellEngine wraps the Windows SAPI synthesizer. SAPI rate runs
// -10..10; 150 wpm maps to roughly 0.
func NewPowerShellEngine(path string) Engine {
	return &execEngine{
		name: "powershell",
		path: path,
		args: func(text string, volume float64, rate int) []string {
			sapiRate := (rate - 150) / 25
			if sapiRate > 10 {
				sapiRate = 10
			}
			if sapiRate < -10 {
				sapiRate = -10
			}
			script := fmt.Sprintf(
				`Add-Type -AssemblyName System.Speech; `+
					`$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; `+
					`$s.Volume = %d; $s.Rate = %d; $s.Speak(%s)`,
				int(volume*100), sapiRate, psQuote(text),
			)
			return []string{"-NoProfile", "-Command", script}
		},
	}
}

func psQuote(s string) string {
	out := make([]rune, 0, len(s)+2)
	out = append(out, '\'')
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, r)
	}
	out = append(out, '\'')
	return string(out)
}

// DetectEngine picks the first locally available TTS command. The empty
// string (or "auto") probes say, then espeak-ng/espeak, then powershell. A
// nil return means no engine is available and the caller should fall back
// to the mock.
func DetectEngine(kind string) (Engine, error) {
	lookup := func(names ...string) string {
		for _, n := range names {
			if p, err := exec.LookPath(n); err == nil {
				return p
			}
		}
		return ""
	}

	switch kind {
	case "", "auto":
		if p := lookup("say"); p != "" {
			return NewSayEngine(p), nil
		}
		if p := lookup("espeak-ng", "espeak"); p != "" {
			return NewESpeakEngine(p), nil
		}
		if p := lookup("powershell"); p != "" {
			return NewPowerShellEngine(p), nil
		}
		return nil, nil
	case "say":
		if p := lookup("say"); p != "" {
			return NewSayEngine(p), nil
		}
		return nil, fmt.Errorf("say not found in PATH")
	case "espeak":
		if p := lookup("espeak-ng", "espeak"); p != "" {
			return NewESpeakEngine(p), nil
		}
		return nil, fmt.Errorf("espeak-ng not found in PATH")
	case "powershell":
		if p := lookup("powershell"); p != "" {
			return NewPowerShellEngine(p), nil
		}
		return nil, fmt.Errorf("powershell not found in PATH")
	case "mock":
		return NewMockEngine(), nil
	default:
		return nil, fmt.Errorf("unknown speech engine %q (expected auto|say|espeak|powershell|mock)", kind)
	}
}
