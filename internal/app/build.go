package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hjoshifonteva/DebugAssistant/internal/ai"
	"github.com/hjoshifonteva/DebugAssistant/internal/config"
	"github.com/hjoshifonteva/DebugAssistant/internal/dispatch"
	"github.com/hjoshifonteva/DebugAssistant/internal/executor"
	"github.com/hjoshifonteva/DebugAssistant/internal/history"
	"github.com/hjoshifonteva/DebugAssistant/internal/httpapi"
	"github.com/hjoshifonteva/DebugAssistant/internal/observability"
	"github.com/hjoshifonteva/DebugAssistant/internal/protocol"
	"github.com/hjoshifonteva/DebugAssistant/internal/session"
	"github.com/hjoshifonteva/DebugAssistant/internal/speech"
)

type BuildResult struct {
	Config     config.Config
	API        *httpapi.Server
	Dispatcher *dispatch.Dispatcher
	Speech     *speech.Controller
	Sessions   *session.Manager
	Store      history.Store
	Metrics    *observability.Metrics

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := history.NewStore(ctx, cfg.DatabaseURL, cfg.HistoryDBPath)
	if err != nil {
		return nil, fmt.Errorf("history store init failed: %w", err)
	}

	engine, err := speech.DetectEngine(cfg.SpeechEngine)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("speech engine init failed: %w", err)
	}
	if engine == nil {
		log.Printf("app: no speech engine found on this machine, responses will not be audible")
		engine = speech.NewMockEngine()
	} else {
		log.Printf("app: speech engine: %s", engine.Name())
	}

	hub := dispatch.NewHub()
	controller := speech.NewController(engine, cfg.SpeechVolume, cfg.SpeechRate, func(st speech.State) {
		metrics.SpeechQueueDepth.Set(float64(st.Queued))
		hub.Publish(protocol.SpeechState{
			Type:     protocol.TypeSpeechState,
			Speaking: st.Speaking,
			Paused:   st.Paused,
			Volume:   st.Volume,
			Rate:     st.Rate,
			Queued:   st.Queued,
		})
	})

	controller.OnEngineError(func(error) {
		metrics.EngineErrors.Inc()
	})

	client := ai.NewClient(ai.Config{
		Mode:      cfg.AIMode,
		APIKey:    cfg.OpenAIAPIKey,
		Model:     cfg.GPTModel,
		MaxTokens: cfg.GPTMaxTokens,
		HTTPURL:   cfg.AIHTTPURL,
	})

	browser := executor.NewBrowser(cfg.DefaultBrowser, nil)
	browser.Commands["chrome"] = cfg.ChromeCmd
	browser.Commands["firefox"] = cfg.FirefoxCmd
	browser.SearchURL = cfg.SearchURL

	system := executor.NewSystem(cfg.AllowPowerCommands, nil)
	system.VolumeCmd = cfg.VolumeCmd
	system.BrightnessCmd = cfg.BrightnessCmd
	system.ShutdownCmd = cfg.ShutdownCmd
	system.RestartCmd = cfg.RestartCmd

	execs := dispatch.Executors{
		Editor:  executor.NewEditor(cfg.EditorCommand, cfg.WorkspaceRoot, nil),
		Browser: browser,
		Window:  executor.NewWindow(cfg.WindowCmd, nil),
		System:  system,
		Screen:  executor.NewScreen(cfg.ScreenshotCmd, cfg.OCRCmd, nil),
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.ObserveSessionEvent("expired")
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})
	sessions.StartJanitor(ctx, time.Minute)

	dispatcher := dispatch.New(controller, client, store, execs, sessions, metrics, hub)

	api := httpapi.New(cfg, sessions, dispatcher, controller, client, store, metrics)

	return &BuildResult{
		Config:     cfg,
		API:        api,
		Dispatcher: dispatcher,
		Speech:     controller,
		Sessions:   sessions,
		Store:      store,
		Metrics:    metrics,
		Cleanup: func() error {
			controller.Shutdown(cfg.ShutdownTimeout)
			return store.Close()
		},
	}, nil
}
