package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// runner executes a command synchronously and returns stdout. Swapped
// out in tests.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}

// Screen captures the display and extracts its text through OCR, so the
// assistant can read error messages and code back to the user.
type Screen struct {
	ScreenshotCmd string
	OCRCmd        string

	run runner
}

func NewScreen(screenshotCmd, ocrCmd string, run runner) *Screen {
	if strings.TrimSpace(screenshotCmd) == "" {
		screenshotCmd = detectScreenshotTool()
	}
	if strings.TrimSpace(ocrCmd) == "" {
		ocrCmd = "tesseract"
	}
	if run == nil {
		run = runOutput
	}
	return &Screen{ScreenshotCmd: screenshotCmd, OCRCmd: ocrCmd, run: run}
}

func detectScreenshotTool() string {
	for _, candidate := range []string{"scrot", "import", "screencapture"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}
	return "scrot"
}

// ReadText captures the screen and returns its prose text.
func (s *Screen) ReadText(ctx context.Context) (string, error) {
	return s.ocr(ctx, false)
}

// ReadCode captures the screen with interword spacing preserved so
// indentation survives recognition.
func (s *Screen) ReadCode(ctx context.Context) (string, error) {
	return s.ocr(ctx, true)
}

func (s *Screen) ocr(ctx context.Context, code bool) (string, error) {
	img := filepath.Join(os.TempDir(), fmt.Sprintf("assistant-screen-%d.png", os.Getpid()))
	defer os.Remove(img)

	if err := s.capture(ctx, img); err != nil {
		return "", err
	}

	args := []string{img, "stdout", "--oem", "3", "--psm", "6"}
	if code {
		args = append(args, "-c", "preserve_interword_spaces=1")
	}
	out, err := s.run(ctx, s.OCRCmd, args...)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", fmt.Errorf("no readable text on screen")
	}
	return text, nil
}

func (s *Screen) capture(ctx context.Context, img string) error {
	var args []string
	switch filepath.Base(s.ScreenshotCmd) {
	case "import":
		args = []string{"-window", "root", img}
	case "screencapture":
		args = []string{"-x", img}
	default:
		args = []string{"-o", img}
	}
	if _, err := s.run(ctx, s.ScreenshotCmd, args...); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return nil
}
