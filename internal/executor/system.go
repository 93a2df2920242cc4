package executor

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultVolumeCmd     = "pactl set-sink-volume @DEFAULT_SINK@ {level}%"
	defaultBrightnessCmd = "brightnessctl set {level}%"
	defaultShutdownCmd   = "systemctl poweroff"
	defaultRestartCmd    = "systemctl reboot"
)

// System adjusts machine-level settings and power state. The command
// templates are whitespace-split argv lists; {level} is replaced with
// the clamped percentage.
type System struct {
	launch Launcher
	// AllowPower gates shutdown and restart. Off by default so a
	// misheard phrase cannot power the machine down.
	AllowPower bool

	VolumeCmd     string
	BrightnessCmd string
	ShutdownCmd   string
	RestartCmd    string
}

func NewSystem(allowPower bool, launch Launcher) *System {
	if launch == nil {
		launch = StartDetached
	}
	return &System{
		launch:        launch,
		AllowPower:    allowPower,
		VolumeCmd:     defaultVolumeCmd,
		BrightnessCmd: defaultBrightnessCmd,
		ShutdownCmd:   defaultShutdownCmd,
		RestartCmd:    defaultRestartCmd,
	}
}

func (s *System) SetVolume(level int) (string, error) {
	level = clampPercent(level)
	if err := s.runTemplate(s.VolumeCmd, level); err != nil {
		return "", err
	}
	return fmt.Sprintf("Setting volume to %d percent", level), nil
}

func (s *System) SetBrightness(level int) (string, error) {
	level = clampPercent(level)
	if err := s.runTemplate(s.BrightnessCmd, level); err != nil {
		return "", err
	}
	return fmt.Sprintf("Setting brightness to %d percent", level), nil
}

func (s *System) Shutdown() (string, error) {
	if !s.AllowPower {
		return "", fmt.Errorf("power commands are disabled")
	}
	if err := s.runTemplate(s.ShutdownCmd, 0); err != nil {
		return "", err
	}
	return "Shutting down", nil
}

func (s *System) Restart() (string, error) {
	if !s.AllowPower {
		return "", fmt.Errorf("power commands are disabled")
	}
	if err := s.runTemplate(s.RestartCmd, 0); err != nil {
		return "", err
	}
	return "Restarting", nil
}

func (s *System) runTemplate(tmpl string, level int) error {
	fields := strings.Fields(tmpl)
	if len(fields) == 0 {
		return fmt.Errorf("empty command template")
	}
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, "{level}", strconv.Itoa(level))
	}
	return s.launch(fields[0], fields[1:]...)
}

func clampPercent(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}
