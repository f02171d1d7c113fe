// Package advisor turns classifier labels and farmer questions into
// localized advice using a language model.
//
// Translations and treatments are cached per (label, language) for
// constants.ResultTTL. Gateway failures never surface as errors from those
// operations; a degraded result is returned instead and nothing is cached.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/agrovision/pkg/cache"
	"github.com/codeGROOVE-dev/agrovision/pkg/constants"
	"github.com/codeGROOVE-dev/agrovision/pkg/llm"
	"github.com/codeGROOVE-dev/agrovision/pkg/normalize"
)

// Cache key prefixes.
const (
	OpTranslate = "translate"
	OpTreat     = "treat"
)

// Service runs the advisory operations against one gateway and cache.
type Service struct {
	gateway llm.Gateway
	cache   *cache.Cache
	logger  *slog.Logger
	ttl     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides how long translations and treatments stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// New creates a Service. A nil cache disables caching.
func New(gateway llm.Gateway, c *cache.Cache, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.New(nil, logger)
	}
	s := &Service{
		gateway: gateway,
		cache:   c,
		logger:  logger,
		ttl:     constants.ResultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheKey builds the store key for an operation, e.g. "treat:Leaf Blight:hi".
func CacheKey(op, label, lang string) string {
	return fmt.Sprintf("%s:%s:%s", op, label, lang)
}

// IsHealthy reports whether a label denotes a healthy plant.
func IsHealthy(label string) bool {
	return strings.Contains(strings.ToLower(label), "healthy")
}

// TranslateLabel renders a classifier label in the given language.
func (s *Service) TranslateLabel(ctx context.Context, label, lang string) TranslationResult {
	key := CacheKey(OpTranslate, label, lang)
	var cached TranslationResult
	if s.cache.Load(ctx, key, &cached) == cache.Hit {
		s.logger.Debug("translation served from cache", "key", key)
		return cached
	}

	text, err := s.gateway.Complete(ctx, translatePrompt(label, lookupLanguage(lang)))
	if err != nil {
		s.logger.Warn("translation failed, falling back to label", "label", label, "lang", lang, "error", err)
		return DegradedTranslation(label)
	}

	result := translationFrom(normalize.Extract(text), label)
	s.store(ctx, key, result)
	return result
}

// GetTreatments returns treatment advice for a label in the given language.
func (s *Service) GetTreatments(ctx context.Context, label, lang string) TreatmentResult {
	key := CacheKey(OpTreat, label, lang)
	var cached TreatmentResult
	if s.cache.Load(ctx, key, &cached) == cache.Hit {
		s.logger.Debug("treatments served from cache", "key", key)
		return cached
	}

	text, err := s.gateway.Complete(ctx, treatPrompt(label, lookupLanguage(lang)))
	if err != nil {
		s.logger.Warn("treatment lookup failed", "label", label, "lang", lang, "error", err)
		return DegradedTreatment(label, lang)
	}

	result := treatmentFrom(normalize.Extract(text), label)
	s.store(ctx, key, result)
	return result
}

// Diagnosis is the advice shown after a scan.
type Diagnosis struct {
	Treatment   *TreatmentResult  `json:"treatment,omitempty"`
	Label       string            `json:"label"`
	Language    string            `json:"language"`
	Translation TranslationResult `json:"translation"`
	Healthy     bool              `json:"healthy"`
}

// Diagnose translates the label and, unless the plant is healthy, fetches
// treatments. The two lookups run one after the other.
func (s *Service) Diagnose(ctx context.Context, label, lang string) Diagnosis {
	d := Diagnosis{
		Label:    label,
		Language: lang,
		Healthy:  IsHealthy(label),
	}
	d.Translation = s.TranslateLabel(ctx, label, lang)
	if d.Healthy {
		return d
	}
	treatment := s.GetTreatments(ctx, label, lang)
	d.Treatment = &treatment
	return d
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Debug("result not cached", "key", key, "error", err)
	}
}
