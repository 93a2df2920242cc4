package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hjoshifonteva/DebugAssistant/internal/app"
	"github.com/hjoshifonteva/DebugAssistant/internal/config"
	"github.com/hjoshifonteva/DebugAssistant/internal/dispatch"
	"github.com/hjoshifonteva/DebugAssistant/internal/hotkeys"
	"github.com/hjoshifonteva/DebugAssistant/internal/input"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	built, err := app.Build(runCtx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer func() {
		if err := built.Cleanup(); err != nil {
			log.Printf("cleanup: %v", err)
		}
	}()

	go built.Dispatcher.Run(runCtx)

	if cfg.EnableHotkeys {
		listener, err := hotkeys.Start(runCtx, built.Speech, hotkeys.DefaultBindings())
		if err != nil {
			log.Printf("hotkeys unavailable: %v", err)
		}
		if listener != nil {
			defer listener.Stop()
		}
	}

	if cfg.EnableTextInput {
		stdin := input.NewListener(func(text string) bool {
			return built.Dispatcher.Submit(dispatch.NewCommand("", "text", text))
		}, runCancel)
		go stdin.Run(runCtx, os.Stdin)
		log.Printf("type commands below, or 'quit' to exit")
	}

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: built.API.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Printf("shutdown signal received")
	case <-runCtx.Done():
		log.Printf("shutdown requested")
	}

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
