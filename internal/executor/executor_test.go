package executor

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

type fakeLaunch struct {
	name string
	args []string
	err  error
}

func (f *fakeLaunch) launcher() Launcher {
	return func(name string, args ...string) error {
		f.name = name
		f.args = args
		return f.err
	}
}

func TestEditorOpenFile(t *testing.T) {
	var f fakeLaunch
	e := NewEditor("code", t.TempDir(), f.launcher())

	msg, err := e.OpenFile("main.go")
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	if f.name != "code" || len(f.args) != 2 || f.args[0] != "--goto" || f.args[1] != "main.go" {
		t.Fatalf("launched %s %v", f.name, f.args)
	}
	if !strings.Contains(msg, "main.go") {
		t.Fatalf("msg = %q", msg)
	}

	if _, err := e.OpenFile("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestEditorCreateWorkspaceSanitizesName(t *testing.T) {
	var f fakeLaunch
	root := t.TempDir()
	e := NewEditor("code", root, f.launcher())

	msg, err := e.CreateWorkspace("my cool app!")
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if !strings.Contains(msg, "my_cool_app") {
		t.Fatalf("msg = %q", msg)
	}
	want := filepath.Join(root, "my_cool_app")
	if f.args[len(f.args)-1] != want {
		t.Fatalf("opened %q, want %q", f.args[len(f.args)-1], want)
	}
}

func TestBrowserSearchEscapesTerms(t *testing.T) {
	var f fakeLaunch
	b := NewBrowser("chrome", f.launcher())

	if _, err := b.Search("python tutorials", "", false); err != nil {
		t.Fatalf("search: %v", err)
	}
	if f.name != "google-chrome" {
		t.Fatalf("command = %q", f.name)
	}
	if got := f.args[len(f.args)-1]; got != defaultSearchURL+"python+tutorials" {
		t.Fatalf("url = %q", got)
	}
}

func TestBrowserPrivateFlags(t *testing.T) {
	var f fakeLaunch
	b := NewBrowser("chrome", f.launcher())

	if _, err := b.Open("golang.org", "firefox", true); err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.name != "firefox" || f.args[0] != "-private" {
		t.Fatalf("launched %s %v", f.name, f.args)
	}
	if f.args[1] != "https://golang.org" {
		t.Fatalf("url = %q", f.args[1])
	}

	if _, err := b.Open("", "", true); err != nil {
		t.Fatalf("open default: %v", err)
	}
	if f.args[0] != "--incognito" {
		t.Fatalf("args = %v", f.args)
	}

	if _, err := b.Open("", "opera", false); err == nil {
		t.Fatalf("expected error for unsupported browser")
	}
}

func TestWindowActiveTarget(t *testing.T) {
	var f fakeLaunch
	w := NewWindow("", f.launcher())

	if _, err := w.Maximize("active"); err != nil {
		t.Fatalf("maximize: %v", err)
	}
	if f.args[1] != ":ACTIVE:" {
		t.Fatalf("target = %q", f.args[1])
	}

	if _, err := w.Switch("notepad"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if f.args[0] != "-a" || f.args[1] != "notepad" {
		t.Fatalf("args = %v", f.args)
	}

	if _, err := w.Switch("active"); err == nil {
		t.Fatalf("switching to the active window should fail")
	}
}

func TestSystemVolumeClampsAndPowerGate(t *testing.T) {
	var f fakeLaunch
	s := NewSystem(false, f.launcher())

	if _, err := s.SetVolume(150); err != nil {
		t.Fatalf("set volume: %v", err)
	}
	if got := f.args[len(f.args)-1]; got != "100%" {
		t.Fatalf("volume arg = %q", got)
	}

	if _, err := s.Shutdown(); err == nil {
		t.Fatalf("shutdown should be gated off")
	}
	if _, err := s.Restart(); err == nil {
		t.Fatalf("restart should be gated off")
	}

	s = NewSystem(true, f.launcher())
	if _, err := s.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if f.name != "systemctl" || f.args[0] != "poweroff" {
		t.Fatalf("launched %s %v", f.name, f.args)
	}
}

func TestScreenReadCodePreservesSpacing(t *testing.T) {
	var calls [][]string
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		if name == "tesseract" {
			return []byte("func main() {\n    fmt.Println(\"hi\")\n}\n"), nil
		}
		return nil, nil
	}

	s := NewScreen("scrot", "tesseract", run)
	text, err := s.ReadCode(context.Background())
	if err != nil {
		t.Fatalf("read code: %v", err)
	}
	if !strings.Contains(text, "fmt.Println") {
		t.Fatalf("text = %q", text)
	}
	if len(calls) != 2 {
		t.Fatalf("expected capture then ocr, got %d calls", len(calls))
	}
	ocr := calls[1]
	joined := strings.Join(ocr, " ")
	if !strings.Contains(joined, "preserve_interword_spaces=1") {
		t.Fatalf("ocr args missing spacing flag: %v", ocr)
	}
}

func TestScreenEmptyOCR(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("   \n"), nil
	}
	s := NewScreen("scrot", "tesseract", run)
	if _, err := s.ReadText(context.Background()); err == nil {
		t.Fatalf("expected error for empty ocr output")
	}
}
