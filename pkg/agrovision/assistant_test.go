package agrovision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/codeGROOVE-dev/agrovision/pkg/config"
	"github.com/codeGROOVE-dev/agrovision/pkg/kvstore"
	"github.com/codeGROOVE-dev/agrovision/pkg/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func countingGateway(calls *atomic.Int32) llm.Gateway {
	return llm.GatewayFunc(func(context.Context, llm.Request) (string, error) {
		calls.Add(1)
		return `{"translated_name":"ಟೊಮೇಟೊ ಅಂಗಮಾರಿ","title":"Care"}`, nil
	})
}

func TestScan(t *testing.T) {
	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"class_index":3,"class_name":"Tomato_Late_Blight","confidence":0.88,"top_k":[]}`)
	}))
	defer predictor.Close()

	var calls atomic.Int32
	a, err := NewWithLogger(context.Background(), testLogger(),
		WithGateway(countingGateway(&calls)),
		WithMemoryOnlyCache(),
		WithClassifierURL(predictor.URL),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	res, err := a.Scan(context.Background(), "leaf.jpg", []byte("jpeg"), "kn")
	if err != nil {
		t.Fatal(err)
	}
	if res.Prediction.Label != "Tomato_Late_Blight" || res.Diagnosis.Label != "Tomato_Late_Blight" {
		t.Errorf("result = %+v", res)
	}
	if res.Diagnosis.Translation.TranslatedName != "ಟೊಮೇಟೊ ಅಂಗಮಾರಿ" || res.Diagnosis.Treatment == nil {
		t.Errorf("diagnosis = %+v", res.Diagnosis)
	}

	// A rescan in the same language is served from the cache.
	if _, err := a.Scan(context.Background(), "leaf.jpg", []byte("jpeg"), "kn"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("gateway calls = %d, want 2", calls.Load())
	}
}

func TestScanClassifierFailure(t *testing.T) {
	predictor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer predictor.Close()

	var calls atomic.Int32
	a, err := NewWithLogger(context.Background(), testLogger(),
		WithGateway(countingGateway(&calls)), WithNoCache(), WithClassifierURL(predictor.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Scan(context.Background(), "leaf.jpg", []byte("x"), "en"); err == nil {
		t.Error("expected error")
	}
	if calls.Load() != 0 {
		t.Errorf("gateway calls = %d, want 0", calls.Load())
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestHistory(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items":[{"id":"1","label":"Tomato_healthy","confidence":0.97}]}`)
	}))
	defer backend.Close()

	var calls atomic.Int32
	a, err := NewWithLogger(context.Background(), testLogger(),
		WithGateway(countingGateway(&calls)), WithNoCache(), WithHistoryURL(backend.URL))
	if err != nil {
		t.Fatal(err)
	}
	items, err := a.History(context.Background(), "demo")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Label != "Tomato_healthy" {
		t.Errorf("items = %+v", items)
	}
}

func TestNoProvider(t *testing.T) {
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	_, err := NewWithLogger(context.Background(), testLogger(), WithNoCache())
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("err = %v, want ErrNoProvider", err)
	}
}

func TestOpenAIProviderSelected(t *testing.T) {
	a, err := NewWithLogger(context.Background(), testLogger(),
		WithOpenAIAPIKey("gsk-test"), WithNoCache())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
}

func TestForcedProviderNeedsCredentials(t *testing.T) {
	_, err := NewWithLogger(context.Background(), testLogger(),
		WithProvider(config.ProviderOpenAI), WithGeminiAPIKey("g-key"), WithNoCache())
	if err == nil {
		t.Error("expected error for openai provider without key")
	}
}

func TestSQLiteStoreSelected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	var calls atomic.Int32
	a, err := NewWithLogger(context.Background(), testLogger(),
		WithGateway(countingGateway(&calls)), WithSQLiteCache(path))
	if err != nil {
		t.Fatal(err)
	}
	a.TranslateLabel(context.Background(), "Tomato_Late_Blight", "kn")
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	store, err := kvstore.NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, ok, err := store.Get(context.Background(), "translate:Tomato_Late_Blight:kn"); err != nil || !ok {
		t.Errorf("entry not persisted: ok=%v err=%v", ok, err)
	}
}

func TestDiskStorePersists(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	open := func() *Assistant {
		a, err := NewWithLogger(context.Background(), testLogger(),
			WithGateway(countingGateway(&calls)), WithCacheDir(dir))
		if err != nil {
			t.Fatal(err)
		}
		return a
	}

	a := open()
	a.TranslateLabel(context.Background(), "Potato___Early_blight", "hi")
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	b := open()
	defer b.Close()
	b.TranslateLabel(context.Background(), "Potato___Early_blight", "hi")
	if calls.Load() != 1 {
		t.Errorf("gateway calls = %d, want 1 after reopen", calls.Load())
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = config.ProviderOpenAI
	cfg.OpenAI.APIKey = "gsk-from-file"
	cfg.Cache.Mode = config.CacheMemory
	cfg.Classifier.URL = "http://predict.local/predict"

	o := &OptionHolder{}
	for _, opt := range FromConfig(cfg) {
		opt(o)
	}
	if o.provider != "openai" || o.openAIAPIKey != "gsk-from-file" || !o.memoryOnlyCache {
		t.Errorf("options = %+v", o)
	}
	if o.classifierURL != "http://predict.local/predict" || o.cacheTTL != cfg.Cache.TTL {
		t.Errorf("options = %+v", o)
	}
}

func TestGatewayClientHasNoTimeout(t *testing.T) {
	o := &OptionHolder{}
	if got := gatewayHTTPClient(o).Timeout; got != 0 {
		t.Errorf("gateway client timeout = %v, want none", got)
	}
	if got := serviceHTTPClient(o).Timeout; got == 0 {
		t.Error("service client should keep a timeout")
	}

	shared := &http.Client{}
	WithHTTPClient(shared)(o)
	if gatewayHTTPClient(o) != shared || serviceHTTPClient(o) != shared {
		t.Error("an explicit client should be used for all calls")
	}
}
