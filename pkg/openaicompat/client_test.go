package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/codeGROOVE-dev/agrovision/pkg/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func TestCompleteSendsSystemAndUser(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"llama-3.3-70b-versatile",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Use neem oil."}}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "gsk_test", BaseURL: srv.URL + "/"}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	reply, err := c.Complete(context.Background(), llm.Request{
		System:          "You are Kisan Mitra.",
		User:            "How do I treat leaf mold?",
		Temperature:     0.7,
		MaxOutputTokens: 1024,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "Use neem oil." {
		t.Errorf("reply = %q", reply)
	}
	if auth != "Bearer gsk_test" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Model != DefaultModel {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if got.Messages[1].Content != "How do I treat leaf mold?" {
		t.Errorf("user content = %q", got.Messages[1].Content)
	}
	if got.Temperature != 0.7 || got.MaxTokens != 1024 {
		t.Errorf("temperature/max_tokens = %v/%v", got.Temperature, got.MaxTokens)
	}
}

func TestCompleteStatusErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"over capacity","type":"server_error"}}`)
	}))
	defer srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL + "/"}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Complete(context.Background(), llm.Request{User: "hi"})
	var se *llm.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *llm.StatusError", err)
	}
	if se.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", se.Code)
	}
	if calls.Load() != 1 {
		t.Errorf("endpoint called %d times, want exactly 1", calls.Load())
	}
}

func TestCompleteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{APIKey: "k", BaseURL: url + "/"}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Complete(context.Background(), llm.Request{User: "hi"}); !errors.Is(err, llm.ErrUnreachable) {
		t.Fatalf("error = %v, want ErrUnreachable", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}, testLogger()); err == nil {
		t.Fatal("expected error without API key")
	}
}
