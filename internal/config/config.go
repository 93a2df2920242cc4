package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the debug assistant.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	SpeechEngine string
	SpeechRate   int
	SpeechVolume float64

	AIMode       string
	OpenAIAPIKey string
	GPTModel     string
	GPTMaxTokens int
	AIHTTPURL    string

	DatabaseURL   string
	HistoryDBPath string

	EditorCommand  string
	WorkspaceRoot  string
	DefaultBrowser string
	ChromeCmd      string
	FirefoxCmd     string
	SearchURL      string
	WindowCmd      string
	ScreenshotCmd  string
	OCRCmd         string
	VolumeCmd      string
	BrightnessCmd  string
	ShutdownCmd    string
	RestartCmd     string

	AllowPowerCommands bool
	EnableHotkeys      bool
	EnableTextInput    bool
}

// Load reads a .env file when present, then environment variables, and
// applies safe defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8270"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "assistant"),
		AllowAnyOrigin:   false,
		SpeechEngine:     envOrDefault("SPEECH_ENGINE", "auto"),
		SpeechRate:       150,
		SpeechVolume:     0.9,
		AIMode:           envOrDefault("AI_MODE", "auto"),
		OpenAIAPIKey:     stringsTrimSpace("OPENAI_API_KEY"),
		GPTModel:         envOrDefault("GPT_MODEL", "gpt-4"),
		AIHTTPURL:        stringsTrimSpace("AI_HTTP_URL"),
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		HistoryDBPath:    envOrDefault("HISTORY_DB_PATH", "assistant.db"),
		EditorCommand:    envOrDefault("EDITOR_CMD", "code"),
		WorkspaceRoot:    stringsTrimSpace("WORKSPACE_ROOT"),
		DefaultBrowser:   envOrDefault("DEFAULT_BROWSER", "chrome"),
		ChromeCmd:        envOrDefault("CHROME_CMD", "google-chrome"),
		FirefoxCmd:       envOrDefault("FIREFOX_CMD", "firefox"),
		SearchURL:        envOrDefault("SEARCH_URL", "https://www.google.com/search?q="),
		WindowCmd:        envOrDefault("WINDOW_CMD", "wmctrl"),
		ScreenshotCmd:    stringsTrimSpace("SCREENSHOT_CMD"),
		OCRCmd:           envOrDefault("OCR_CMD", "tesseract"),
		VolumeCmd:        envOrDefault("VOLUME_CMD", "pactl set-sink-volume @DEFAULT_SINK@ {level}%"),
		BrightnessCmd:    envOrDefault("BRIGHTNESS_CMD", "brightnessctl set {level}%"),
		ShutdownCmd:      envOrDefault("SHUTDOWN_CMD", "systemctl poweroff"),
		RestartCmd:       envOrDefault("RESTART_CMD", "systemctl reboot"),

		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 10 * time.Minute,
		AllowPowerCommands:       false,
		EnableHotkeys:            true,
		EnableTextInput:          true,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SpeechRate, err = intFromEnv("SPEECH_RATE", cfg.SpeechRate)
	if err != nil {
		return Config{}, err
	}
	cfg.SpeechVolume, err = floatFromEnv("SPEECH_VOLUME", cfg.SpeechVolume)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowPowerCommands, err = boolFromEnv("ALLOW_POWER_COMMANDS", cfg.AllowPowerCommands)
	if err != nil {
		return Config{}, err
	}
	cfg.GPTMaxTokens, err = intFromEnv("GPT_MAX_TOKENS", 150)
	if err != nil {
		return Config{}, err
	}
	cfg.EnableHotkeys, err = boolFromEnv("HOTKEYS_ENABLED", cfg.EnableHotkeys)
	if err != nil {
		return Config{}, err
	}
	cfg.EnableTextInput, err = boolFromEnv("ENABLE_TEXT_INPUT", cfg.EnableTextInput)
	if err != nil {
		return Config{}, err
	}

	if cfg.SpeechRate < 50 {
		return Config{}, fmt.Errorf("SPEECH_RATE must be at least 50")
	}
	if cfg.SpeechVolume < 0 || cfg.SpeechVolume > 1 {
		return Config{}, fmt.Errorf("SPEECH_VOLUME must be between 0 and 1")
	}
	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.GPTMaxTokens < 1 {
		return Config{}, fmt.Errorf("GPT_MAX_TOKENS must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
