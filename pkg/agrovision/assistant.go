// Package agrovision wires the classifier, the advisor and the result cache
// into one Assistant used by the CLI and the web server.
package agrovision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/codeGROOVE-dev/agrovision/pkg/advisor"
	"github.com/codeGROOVE-dev/agrovision/pkg/cache"
	"github.com/codeGROOVE-dev/agrovision/pkg/classifier"
	"github.com/codeGROOVE-dev/agrovision/pkg/config"
	"github.com/codeGROOVE-dev/agrovision/pkg/constants"
	"github.com/codeGROOVE-dev/agrovision/pkg/gemini"
	"github.com/codeGROOVE-dev/agrovision/pkg/history"
	"github.com/codeGROOVE-dev/agrovision/pkg/kvstore"
	"github.com/codeGROOVE-dev/agrovision/pkg/llm"
	"github.com/codeGROOVE-dev/agrovision/pkg/openaicompat"
)

// ErrNoProvider is returned when no language model credentials are configured.
var ErrNoProvider = errors.New("no language model configured: set a Gemini API key, a GCP project or an OpenAI-compatible API key")

// Assistant is the assembled application. The advisory operations
// (TranslateLabel, GetTreatments, Diagnose, Chat, EstimateYield) come from
// the embedded advisor.Service.
type Assistant struct {
	*advisor.Service

	classifier *classifier.Client
	history    *history.Client
	store      kvstore.Store
	logger     *slog.Logger
}

// ScanResult is the outcome of classifying an image and advising on it.
type ScanResult struct {
	Prediction *classifier.Prediction `json:"prediction"`
	Diagnosis  advisor.Diagnosis      `json:"diagnosis"`
}

// NewWithLogger creates an Assistant.
func NewWithLogger(ctx context.Context, logger *slog.Logger, opts ...Option) (*Assistant, error) {
	optHolder := &OptionHolder{}
	for _, opt := range opts {
		opt(optHolder)
	}

	httpClient := serviceHTTPClient(optHolder)

	gateway := optHolder.gateway
	if gateway == nil {
		var err error
		gateway, err = newGateway(ctx, optHolder, gatewayHTTPClient(optHolder), logger)
		if err != nil {
			return nil, err
		}
	}

	store := openStore(ctx, optHolder, logger)

	ttl := optHolder.cacheTTL
	if ttl <= 0 {
		ttl = constants.ResultTTL
	}

	return &Assistant{
		Service:    advisor.New(gateway, cache.New(store, logger), logger, advisor.WithTTL(ttl)),
		classifier: classifier.New(optHolder.classifierURL, httpClient, logger),
		history:    history.New(optHolder.historyURL, logger, history.WithHTTPClient(httpClient)),
		store:      store,
		logger:     logger,
	}, nil
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// serviceHTTPClient is used for the classifier and history backends.
func serviceHTTPClient(o *OptionHolder) *http.Client {
	if o.httpClient != nil {
		return o.httpClient
	}
	return &http.Client{Timeout: 60 * time.Second, Transport: newTransport()}
}

// gatewayHTTPClient has no timeout: model calls are bounded only by the
// caller's context.
func gatewayHTTPClient(o *OptionHolder) *http.Client {
	if o.httpClient != nil {
		return o.httpClient
	}
	return &http.Client{Transport: newTransport()}
}

func newGateway(ctx context.Context, o *OptionHolder, httpClient *http.Client, logger *slog.Logger) (llm.Gateway, error) {
	provider := o.provider
	if provider == config.ProviderAuto {
		switch {
		case o.geminiAPIKey != "" || o.gcpProject != "":
			provider = config.ProviderGemini
		case o.openAIAPIKey != "":
			provider = config.ProviderOpenAI
		default:
			return nil, ErrNoProvider
		}
	}

	switch provider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{
			HTTPClient: httpClient,
			APIKey:     o.geminiAPIKey,
			Model:      o.geminiModel,
			GCPProject: o.gcpProject,
			BaseURL:    o.geminiBaseURL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return client, nil
	case config.ProviderOpenAI:
		client, err := openaicompat.NewClient(openaicompat.Config{
			HTTPClient: httpClient,
			APIKey:     o.openAIAPIKey,
			BaseURL:    o.openAIBaseURL,
			Model:      o.openAIModel,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("openai-compatible client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// openStore picks the result store. The cache is optional: on failure the
// assistant runs without one.
func openStore(ctx context.Context, o *OptionHolder, logger *slog.Logger) kvstore.Store {
	switch {
	case o.noCache:
		logger.Info("caching disabled by --no-cache flag")
		return nil
	case o.memoryOnlyCache:
		return kvstore.NewMemory(logger)
	case o.sqlitePath != "":
		store, err := kvstore.NewSQLite(o.sqlitePath)
		if err != nil {
			logger.Warn("sqlite cache initialization failed", "error", err, "path", o.sqlitePath)
			return nil
		}
		return store
	}

	cacheDir := o.cacheDir
	if cacheDir == "" {
		userCacheDir, err := os.UserCacheDir()
		if err != nil {
			logger.Debug("could not determine user cache directory", "error", err)
			return nil
		}
		cacheDir = filepath.Join(userCacheDir, constants.AppName)
	}
	store, err := kvstore.NewOtter(ctx, cacheDir, logger)
	if err != nil {
		logger.Warn("cache initialization failed", "error", err, "cache_dir", cacheDir)
		return nil
	}
	return store
}

// Scan classifies a leaf image and diagnoses the predicted label.
func (a *Assistant) Scan(ctx context.Context, filename string, data []byte, lang string) (*ScanResult, error) {
	prediction, err := a.classifier.Predict(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("classifying %s: %w", filename, err)
	}
	a.logger.Info("image classified", "label", prediction.Label, "confidence", prediction.Confidence)
	return &ScanResult{
		Prediction: prediction,
		Diagnosis:  a.Diagnose(ctx, prediction.Label, lang),
	}, nil
}

// History lists a user's past scans.
func (a *Assistant) History(ctx context.Context, userID string) ([]history.Item, error) {
	return a.history.List(ctx, userID)
}

// Close flushes and releases the result store.
func (a *Assistant) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
