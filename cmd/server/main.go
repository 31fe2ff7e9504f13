package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"

	"github.com/Tyrowin/threadboard/internal/chat"
	"github.com/Tyrowin/threadboard/internal/completion"
	"github.com/Tyrowin/threadboard/internal/imagesearch"
	"github.com/Tyrowin/threadboard/internal/media"
	"github.com/Tyrowin/threadboard/internal/server"
	"github.com/Tyrowin/threadboard/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "threadboard",
		Short:         "Threaded chat rooms with a shared whiteboard",
		Long:          "Threadboard relays chat messages, direct messages and whiteboard strokes between websocket clients and keeps threads and the drawing on disk.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "load environment from this file instead of .env")
	cmd.Flags().Int("port", 0, "listen port (overrides PORT)")
	cmd.Flags().String("data-dir", "", "directory for persisted threads and drawing (overrides DATA_DIR)")
	cmd.Flags().String("store", "", "persistence backend: json or badger (overrides STORE_BACKEND)")
	return cmd
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()
	if flags.Changed("port") {
		port, err := flags.GetInt("port")
		if err != nil {
			return err
		}
		cfg.Port = port
	}
	if flags.Changed("data-dir") {
		dir, err := flags.GetString("data-dir")
		if err != nil {
			return err
		}
		cfg.DataDir = dir
	}
	if flags.Changed("store") {
		backend, err := flags.GetString("store")
		if err != nil {
			return err
		}
		cfg.StoreBackend = backend
	}
	return nil
}

// run wires every component, serves until a signal or a listener error, and
// then stops the HTTP server, the hub, pending completions and the store in
// that order.
func run(ctx context.Context, cfg Config) error {
	log := logs.GetLoggerFromString(cfg.LogLevel)
	slog.SetDefault(log)

	serverCfg := server.SetConfig(cfg.ServerConfig())

	backend, err := store.Open(log, cfg.StoreBackend, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		log.Info("Closing store", "backend", cfg.StoreBackend)
		if err := backend.Close(); err != nil {
			log.Error("Closing store failed", "error", err)
		}
	}()

	engineCfg := chat.Config{
		CompletionTimeout:  cfg.AITimeout,
		CompletionFallback: cfg.AIFallback,
	}
	if cfg.AIEnabled {
		opts := []completion.Option{completion.WithModel(cfg.GeminiModel)}
		if cfg.GeminiURL != "" {
			opts = append(opts, completion.WithBaseURL(cfg.GeminiURL))
		}
		gemini, err := completion.NewGemini(log, cfg.GeminiAPIKey, opts...)
		if err != nil {
			return fmt.Errorf("completion client: %w", err)
		}
		engineCfg.Completer = gemini
		log.Info("AI completions enabled", "model", gemini.Model())
	}

	uploader, err := media.NewUploader(log, cfg.UploadDir, int64(cfg.MaxUploadBytes))
	if err != nil {
		return err
	}
	search := imagesearch.NewClient(log, cfg.PexelsURL, cfg.PexelsKey, cfg.ImageSearchTimeout)

	hub := server.NewHub(log)
	engine := chat.NewEngine(log, backend, hub, engineCfg)
	hub.Bind(engine)
	server.StartHub(hub)

	publicDir := cfg.PublicDir
	if info, err := os.Stat(publicDir); err != nil || !info.IsDir() {
		log.Warn("Public directory not found, serving health check at /", "dir", publicDir)
		publicDir = ""
	}
	mux := server.SetupRoutes(hub, server.Routes{
		Upload:      uploader,
		ImageSearch: search,
		UploadDir:   uploader.Dir(),
		PublicDir:   publicDir,
		IndexPage:   cfg.IndexPage,
	})
	httpServer := server.CreateServer(serverCfg.Addr, mux)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := server.StartServer(log, httpServer, serverCfg.TLS); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case runErr = <-errChan:
		log.Error("Server stopped unexpectedly", "error", runErr)
	}

	if err := server.ShutdownServer(log, httpServer, cfg.ShutdownTimeout); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Warn("Hub did not stop in time", "error", err)
	}
	engine.Wait()
	log.Info("Program stopped cleanly")

	return runErr
}
