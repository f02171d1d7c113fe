package agrovision

import (
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/agrovision/pkg/config"
	"github.com/codeGROOVE-dev/agrovision/pkg/llm"
)

// Option configures an Assistant.
type Option func(*OptionHolder)

// WithGeminiAPIKey sets the Gemini API key.
func WithGeminiAPIKey(key string) Option {
	return func(o *OptionHolder) {
		o.geminiAPIKey = key
	}
}

// WithGeminiModel sets the Gemini model.
func WithGeminiModel(model string) Option {
	return func(o *OptionHolder) {
		o.geminiModel = model
	}
}

// WithGeminiBaseURL overrides the Gemini endpoint.
func WithGeminiBaseURL(url string) Option {
	return func(o *OptionHolder) {
		o.geminiBaseURL = url
	}
}

// WithGCPProject sets the GCP project for Vertex AI access.
func WithGCPProject(projectID string) Option {
	return func(o *OptionHolder) {
		o.gcpProject = projectID
	}
}

// WithOpenAIAPIKey sets the key for the OpenAI-compatible endpoint.
func WithOpenAIAPIKey(key string) Option {
	return func(o *OptionHolder) {
		o.openAIAPIKey = key
	}
}

// WithOpenAIBaseURL sets the OpenAI-compatible base URL.
func WithOpenAIBaseURL(url string) Option {
	return func(o *OptionHolder) {
		o.openAIBaseURL = url
	}
}

// WithOpenAIModel sets the OpenAI-compatible model.
func WithOpenAIModel(model string) Option {
	return func(o *OptionHolder) {
		o.openAIModel = model
	}
}

// WithProvider forces "gemini" or "openai". Empty picks automatically.
func WithProvider(provider string) Option {
	return func(o *OptionHolder) {
		o.provider = provider
	}
}

// WithGateway uses gw instead of building a provider client.
func WithGateway(gw llm.Gateway) Option {
	return func(o *OptionHolder) {
		o.gateway = gw
	}
}

// WithHTTPClient sets the HTTP client shared by all outbound calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *OptionHolder) {
		o.httpClient = c
	}
}

// WithCacheDir sets the directory for the persisted result store.
func WithCacheDir(dir string) Option {
	return func(o *OptionHolder) {
		o.cacheDir = dir
	}
}

// WithSQLiteCache keeps results in a SQLite database at path.
func WithSQLiteCache(path string) Option {
	return func(o *OptionHolder) {
		o.sqlitePath = path
	}
}

// WithMemoryOnlyCache keeps results in memory only (for the web server).
func WithMemoryOnlyCache() Option {
	return func(o *OptionHolder) {
		o.memoryOnlyCache = true
	}
}

// WithNoCache disables result caching.
func WithNoCache() Option {
	return func(o *OptionHolder) {
		o.noCache = true
	}
}

// WithCacheTTL sets how long results stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *OptionHolder) {
		o.cacheTTL = ttl
	}
}

// WithClassifierURL sets the prediction endpoint.
func WithClassifierURL(url string) Option {
	return func(o *OptionHolder) {
		o.classifierURL = url
	}
}

// WithHistoryURL sets the history backend base URL.
func WithHistoryURL(url string) Option {
	return func(o *OptionHolder) {
		o.historyURL = url
	}
}

// OptionHolder holds configuration options.
type OptionHolder struct {
	gateway         llm.Gateway
	httpClient      *http.Client
	geminiAPIKey    string
	geminiModel     string
	geminiBaseURL   string
	gcpProject      string
	openAIAPIKey    string
	openAIBaseURL   string
	openAIModel     string
	provider        string
	cacheDir        string
	sqlitePath      string
	classifierURL   string
	historyURL      string
	cacheTTL        time.Duration
	memoryOnlyCache bool
	noCache         bool
}

// FromConfig turns a loaded config file into options. Options given after
// these override them.
func FromConfig(cfg *config.Config) []Option {
	opts := []Option{
		WithProvider(cfg.Provider),
		WithGeminiAPIKey(cfg.Gemini.APIKey),
		WithGeminiModel(cfg.Gemini.Model),
		WithGeminiBaseURL(cfg.Gemini.BaseURL),
		WithGCPProject(cfg.Gemini.GCPProject),
		WithOpenAIAPIKey(cfg.OpenAI.APIKey),
		WithOpenAIBaseURL(cfg.OpenAI.BaseURL),
		WithOpenAIModel(cfg.OpenAI.Model),
		WithCacheDir(cfg.Cache.Dir),
		WithCacheTTL(cfg.Cache.TTL),
		WithClassifierURL(cfg.Classifier.URL),
		WithHistoryURL(cfg.History.URL),
	}
	switch cfg.Cache.Mode {
	case config.CacheMemory:
		opts = append(opts, WithMemoryOnlyCache())
	case config.CacheSQLite:
		opts = append(opts, WithSQLiteCache(cfg.Cache.SQLitePath))
	case config.CacheNone:
		opts = append(opts, WithNoCache())
	}
	return opts
}
