// Package main implements the agrovision web API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/agrovision/pkg/agrovision"
	"github.com/codeGROOVE-dev/agrovision/pkg/config"
)

var (
	port          = flag.String("port", "", "Port for web server (default 8080, or set PORT)")
	configPath    = flag.String("config", "", "YAML config file (or set AGROVISION_CONFIG)")
	provider      = flag.String("provider", "", "Language model provider: gemini or openai (default: auto)")
	geminiAPIKey  = flag.String("gemini-key", "", "Gemini API key (or set GEMINI_API_KEY)")
	geminiModel   = flag.String("gemini-model", "", "Gemini model to use (or set GEMINI_MODEL)")
	gcpProject    = flag.String("gcp-project", "", "GCP project ID (or set GCP_PROJECT)")
	openAIAPIKey  = flag.String("openai-key", "", "OpenAI-compatible API key (or set GROQ_API_KEY / OPENAI_API_KEY)")
	openAIBaseURL = flag.String("openai-base-url", "", "OpenAI-compatible base URL (or set OPENAI_BASE_URL)")
	sqlitePath    = flag.String("sqlite", "", "Keep cached results in this SQLite database (default: memory only)")
	classifierURL = flag.String("classifier-url", "", "Prediction endpoint (or set CLASSIFIER_URL)")
	historyURL    = flag.String("history-url", "", "History backend base URL (or set HISTORY_URL)")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	version       = flag.Bool("version", false, "Show version")
)

func envDefault(value *string, keys ...string) {
	for _, key := range keys {
		if *value != "" {
			return
		}
		*value = os.Getenv(key)
	}
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("agrovision Server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	envDefault(configPath, "AGROVISION_CONFIG")
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	envDefault(port, "PORT")
	envDefault(geminiAPIKey, "GEMINI_API_KEY")
	envDefault(geminiModel, "GEMINI_MODEL")
	envDefault(gcpProject, "GCP_PROJECT")
	envDefault(openAIAPIKey, "GROQ_API_KEY", "OPENAI_API_KEY")
	envDefault(openAIBaseURL, "OPENAI_BASE_URL")
	envDefault(classifierURL, "CLASSIFIER_URL")
	envDefault(historyURL, "HISTORY_URL")

	addr := cfg.Listen
	if *port != "" {
		addr = ":" + *port
	}

	// Log configuration (without exposing sensitive keys)
	logger.Info("Server configuration",
		"addr", addr,
		"verbose", *verbose,
		"provider", *provider,
		"sqlite", *sqlitePath,
		"has_gemini_key", *geminiAPIKey != "",
		"has_gcp_project", *gcpProject != "",
		"has_openai_key", *openAIAPIKey != "")

	opts := agrovision.FromConfig(cfg)
	for _, flagOpt := range []struct {
		value string
		opt   func(string) agrovision.Option
	}{
		{*provider, agrovision.WithProvider},
		{*geminiAPIKey, agrovision.WithGeminiAPIKey},
		{*geminiModel, agrovision.WithGeminiModel},
		{*gcpProject, agrovision.WithGCPProject},
		{*openAIAPIKey, agrovision.WithOpenAIAPIKey},
		{*openAIBaseURL, agrovision.WithOpenAIBaseURL},
		{*classifierURL, agrovision.WithClassifierURL},
		{*historyURL, agrovision.WithHistoryURL},
	} {
		if flagOpt.value != "" {
			opts = append(opts, flagOpt.opt(flagOpt.value))
		}
	}
	// The server never writes the CLI's disk snapshot.
	if *sqlitePath != "" {
		opts = append(opts, agrovision.WithSQLiteCache(*sqlitePath))
	} else if cfg.Cache.Mode == config.CacheDisk {
		opts = append(opts, agrovision.WithMemoryOnlyCache())
	}

	assistant, err := agrovision.NewWithLogger(context.Background(), logger, opts...)
	if err != nil {
		logger.Error("Failed to create assistant", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := assistant.Close(); err != nil {
			logger.Error("Failed to close assistant", "error", err)
		}
	}()

	s := newServer(assistant, cfg.History.UserID, logger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
