// Package main implements the agrovision CLI for crop disease advice.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/agrovision/pkg/advisor"
	"github.com/codeGROOVE-dev/agrovision/pkg/agrovision"
	"github.com/codeGROOVE-dev/agrovision/pkg/config"
	"github.com/codeGROOVE-dev/agrovision/pkg/constants"
)

var (
	configPath    = flag.String("config", "", "YAML config file (or set AGROVISION_CONFIG)")
	lang          = flag.String("lang", "", "Language code: en, kn, hi, te, ta")
	provider      = flag.String("provider", "", "Language model provider: gemini or openai (default: auto)")
	geminiAPIKey  = flag.String("gemini-key", "", "Gemini API key (or set GEMINI_API_KEY)")
	geminiModel   = flag.String("gemini-model", "", "Gemini model to use (or set GEMINI_MODEL)")
	gcpProject    = flag.String("gcp-project", "", "GCP project ID (or set GCP_PROJECT)")
	openAIAPIKey  = flag.String("openai-key", "", "OpenAI-compatible API key (or set GROQ_API_KEY / OPENAI_API_KEY)")
	openAIBaseURL = flag.String("openai-base-url", "", "OpenAI-compatible base URL (or set OPENAI_BASE_URL)")
	openAIModel   = flag.String("openai-model", "", "OpenAI-compatible model (or set OPENAI_MODEL)")
	cacheDir      = flag.String("cache-dir", "", "Cache directory (or set CACHE_DIR)")
	sqlitePath    = flag.String("sqlite", "", "Keep cached results in this SQLite database")
	noCache       = flag.Bool("no-cache", false, "Disable caching")
	classifierURL = flag.String("classifier-url", "", "Prediction endpoint (or set CLASSIFIER_URL)")
	historyURL    = flag.String("history-url", "", "History backend base URL (or set HISTORY_URL)")
	userID        = flag.String("user", "", "User id for history")
	crop          = flag.String("crop", "", "Yield: crop type ("+strings.Join(advisor.Crops, ", ")+")")
	season        = flag.String("season", "", "Yield: season ("+strings.Join(advisor.Seasons, ", ")+")")
	area          = flag.Float64("area", 0, "Yield: land area in hectares")
	soil          = flag.String("soil", "", "Yield: soil type ("+strings.Join(advisor.Soils, ", ")+")")
	irrigation    = flag.String("irrigation", "", "Yield: irrigation ("+strings.Join(advisor.Irrigation, ", ")+")")
	region        = flag.String("region", "", "Yield: region, e.g. \"Mandya, Karnataka\"")
	noColor       = flag.Bool("no-color", false, "Disable colored output")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	version       = flag.Bool("version", false, "Show version")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <command> [args]

Commands:
  scan <image>        classify a leaf photo and show advice
  diagnose <label>    show advice for a classifier label
  chat <message...>   ask a farming question
  yield               estimate crop yield (see -crop, -area, -region ...)
  history             list past scans
  languages           list supported languages

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func envDefault(value *string, keys ...string) {
	for _, key := range keys {
		if *value != "" {
			return
		}
		*value = os.Getenv(key)
	}
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Println("agrovision CLI v1.0.0")
		return
	}
	if *noColor {
		color.NoColor = true
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if args[0] == "languages" {
		printLanguages(os.Stdout)
		return
	}

	envDefault(configPath, "AGROVISION_CONFIG")
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}

	envDefault(geminiAPIKey, "GEMINI_API_KEY")
	envDefault(geminiModel, "GEMINI_MODEL")
	envDefault(gcpProject, "GCP_PROJECT")
	envDefault(openAIAPIKey, "GROQ_API_KEY", "OPENAI_API_KEY")
	envDefault(openAIBaseURL, "OPENAI_BASE_URL")
	envDefault(openAIModel, "OPENAI_MODEL")
	envDefault(cacheDir, "CACHE_DIR")
	envDefault(classifierURL, "CLASSIFIER_URL")
	envDefault(historyURL, "HISTORY_URL")

	language := cfg.Language
	if *lang != "" {
		language = *lang
	}
	selected, err := advisor.ParseLanguage(language)
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	assistant, err := agrovision.NewWithLogger(ctx, logger, options(cfg)...)
	if err != nil {
		fatal(err)
	}
	defer func() {
		if err := assistant.Close(); err != nil {
			logger.Error("Failed to close assistant", "error", err)
		}
	}()

	if err := run(ctx, assistant, cfg, selected, args); err != nil {
		cancel()
		if closeErr := assistant.Close(); closeErr != nil {
			logger.Error("Failed to close assistant", "error", closeErr)
		}
		fatal(err)
	}
}

// options layers flags over the config file.
func options(cfg *config.Config) []agrovision.Option {
	opts := agrovision.FromConfig(cfg)
	set := func(value string, opt func(string) agrovision.Option) {
		if value != "" {
			opts = append(opts, opt(value))
		}
	}
	set(*provider, agrovision.WithProvider)
	set(*geminiAPIKey, agrovision.WithGeminiAPIKey)
	set(*geminiModel, agrovision.WithGeminiModel)
	set(*gcpProject, agrovision.WithGCPProject)
	set(*openAIAPIKey, agrovision.WithOpenAIAPIKey)
	set(*openAIBaseURL, agrovision.WithOpenAIBaseURL)
	set(*openAIModel, agrovision.WithOpenAIModel)
	set(*cacheDir, agrovision.WithCacheDir)
	set(*sqlitePath, agrovision.WithSQLiteCache)
	set(*classifierURL, agrovision.WithClassifierURL)
	set(*historyURL, agrovision.WithHistoryURL)
	if *noCache {
		opts = append(opts, agrovision.WithNoCache())
	}
	return opts
}

func run(ctx context.Context, a *agrovision.Assistant, cfg *config.Config, lang advisor.Language, args []string) error {
	out := os.Stdout
	switch cmd := args[0]; cmd {
	case "scan":
		if len(args) != 2 {
			return errors.New("usage: scan <image>")
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}
		result, err := a.Scan(ctx, args[1], data, lang.Code)
		if err != nil {
			return err
		}
		printScan(out, result)
	case "diagnose":
		if len(args) != 2 {
			return errors.New("usage: diagnose <label>")
		}
		printDiagnosis(out, a.Diagnose(ctx, args[1], lang.Code))
	case "chat":
		if len(args) < 2 {
			return errors.New("usage: chat <message...>")
		}
		reply, err := a.Chat(ctx, strings.Join(args[1:], " "), lang.Code)
		if err != nil {
			return err
		}
		printChat(out, lang, reply)
	case "yield":
		estimate, err := a.EstimateYield(ctx, advisor.FarmParams{
			Crop:             *crop,
			Season:           *season,
			LandAreaHectares: *area,
			Soil:             *soil,
			Irrigation:       *irrigation,
			Region:           *region,
		})
		if err != nil {
			return fmt.Errorf("failed to estimate yield: %w", err)
		}
		printYield(out, estimate)
	case "history":
		user := *userID
		if user == "" {
			user = cfg.History.UserID
		}
		if user == "" {
			user = constants.DefaultUserID
		}
		items, err := a.History(ctx, user)
		if err != nil {
			return err
		}
		printHistory(out, items)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func fatal(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
