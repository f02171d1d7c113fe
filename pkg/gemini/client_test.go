package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/codeGROOVE-dev/agrovision/pkg/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCompleteReturnsFirstCandidateText(t *testing.T) {
	var gotBody map[string]any
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading body: %v", err)
		}
		if err := json.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("request is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"translated_name\":"},{"text":"\"Late Blight\"}"}]}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.Complete(context.Background(), llm.Request{
		System:          "Return only JSON.",
		User:            `Translate "Tomato___Late_blight"`,
		Temperature:     0,
		MaxOutputTokens: 256,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"translated_name":"Late Blight"}` {
		t.Errorf("Complete() = %q", got)
	}
	if !strings.HasSuffix(gotPath, "models/"+DefaultModel+":generateContent") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if _, ok := gotBody["systemInstruction"]; !ok {
		t.Errorf("system instruction missing from request: %v", gotBody)
	}
}

func TestCompleteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Complete(context.Background(), llm.Request{User: "hi"})
	if got := llm.StatusCode(err); got != http.StatusForbidden {
		t.Fatalf("StatusCode(%v) = %d, want 403", err, got)
	}
}

func TestCompleteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url).Complete(context.Background(), llm.Request{User: "hi"})
	if !errors.Is(err, llm.ErrUnreachable) {
		t.Fatalf("error = %v, want ErrUnreachable", err)
	}
}

func TestCompleteEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Complete(context.Background(), llm.Request{User: "hi"})
	if err == nil {
		t.Fatal("expected error for empty candidates")
	}
	if errors.Is(err, llm.ErrUnreachable) || llm.StatusCode(err) != 0 {
		t.Errorf("empty response misclassified: %v", err)
	}
}
