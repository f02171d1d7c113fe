package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/agrovision/pkg/advisor"
	"github.com/codeGROOVE-dev/agrovision/pkg/agrovision"
	"github.com/codeGROOVE-dev/agrovision/pkg/constants"
)

const (
	maxImageBytes = 10 << 20
	maxJSONBytes  = 64 << 10
	// Rate limit: 15 requests per minute per IP
	requestsPerMinute = 15
)

type rateLimiter struct {
	requests  map[string][]time.Time
	now       func() time.Time
	lastSweep time.Time
	limit     int
	mu        sync.Mutex
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		now:      time.Now,
		limit:    limit,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-time.Minute)
	if now.Sub(rl.lastSweep) >= time.Minute {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

// sweep drops clients with no request inside the window.
func (rl *rateLimiter) sweep(cutoff time.Time) {
	for ip, times := range rl.requests {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(rl.requests, ip)
		}
	}
}

type server struct {
	assistant *agrovision.Assistant
	limiter   *rateLimiter
	logger    *slog.Logger
	userID    string
}

// newServer creates the API handlers. userID is used for history requests
// that carry no user_id.
func newServer(a *agrovision.Assistant, userID string, logger *slog.Logger) *server {
	if userID == "" {
		userID = constants.DefaultUserID
	}
	return &server{
		assistant: a,
		userID:    userID,
		limiter:   newRateLimiter(requestsPerMinute),
		logger:    logger,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /api/v1/scan", s.limit(s.handleScan))
	mux.Handle("POST /api/v1/diagnose", s.limit(s.handleDiagnose))
	mux.Handle("POST /api/v1/translate", s.limit(s.handleTranslate))
	mux.Handle("POST /api/v1/treatments", s.limit(s.handleTreatments))
	mux.Handle("POST /api/v1/chat", s.limit(s.handleChat))
	mux.Handle("POST /api/v1/yield", s.limit(s.handleYield))
	mux.Handle("GET /api/v1/history", s.limit(s.handleHistory))
	return s.wrap(mux)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := fmt.Sprintf("%d-%d", time.Now().Unix(), time.Now().Nanosecond())
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]

				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"user_agent", r.Header.Get("User-Agent"),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		handler.ServeHTTP(w, r)
	})
}

func (s *server) limit(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			s.logger.Error("Rate limit exceeded",
				"request_id", w.Header().Get("X-Request-ID"),
				"client_ip", ip,
				"path", r.URL.Path)
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		start := time.Now()
		next(w, r)
		s.logger.Info("Request completed",
			"request_id", w.Header().Get("X-Request-ID"),
			"path", r.URL.Path,
			"client_ip", ip,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response",
			"request_id", w.Header().Get("X-Request-ID"),
			"path", r.URL.Path,
			"error", err)
	}
}

func (s *server) badRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Warn("Invalid request",
		"request_id", w.Header().Get("X-Request-ID"),
		"path", r.URL.Path,
		"client_ip", clientIP(r),
		"error", err)
	http.Error(w, msg, http.StatusBadRequest)
}

// decode reads a size-limited JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}

// language validates a language code; empty means English.
func language(code string) (string, error) {
	lang, err := advisor.ParseLanguage(code)
	if err != nil {
		return "", err
	}
	return lang.Code, nil
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, map[string]string{"status": "ok", "app": constants.AppName})
}

type labelRequest struct {
	Label string `json:"label"`
	Lang  string `json:"lang"`
}

// parseLabel decodes and validates a {label, lang} body.
func (s *server) parseLabel(w http.ResponseWriter, r *http.Request) (labelRequest, bool) {
	var req labelRequest
	if err := decode(w, r, &req); err != nil {
		s.badRequest(w, r, "Invalid request", err)
		return req, false
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		s.badRequest(w, r, "Missing label", errors.New("empty label"))
		return req, false
	}
	lang, err := language(req.Lang)
	if err != nil {
		s.badRequest(w, r, "Unsupported language", err)
		return req, false
	}
	req.Lang = lang
	return req, true
}

func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		s.badRequest(w, r, "Invalid upload", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, r, "Missing file", err)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Debug("failed to close upload", "error", err)
		}
	}()
	data, err := io.ReadAll(file)
	if err != nil {
		s.badRequest(w, r, "Invalid upload", err)
		return
	}
	lang, err := language(r.FormValue("lang"))
	if err != nil {
		s.badRequest(w, r, "Unsupported language", err)
		return
	}

	result, err := s.assistant.Scan(r.Context(), header.Filename, data, lang)
	if err != nil {
		s.logger.Error("Scan failed",
			"request_id", w.Header().Get("X-Request-ID"),
			"file", header.Filename,
			"error", err)
		http.Error(w, "Classification failed", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, r, result)
}

func (s *server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseLabel(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, s.assistant.Diagnose(r.Context(), req.Label, req.Lang))
}

func (s *server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseLabel(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, s.assistant.TranslateLabel(r.Context(), req.Label, req.Lang))
}

func (s *server) handleTreatments(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseLabel(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, s.assistant.GetTreatments(r.Context(), req.Label, req.Lang))
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		Lang    string `json:"lang"`
	}
	if err := decode(w, r, &req); err != nil {
		s.badRequest(w, r, "Invalid request", err)
		return
	}
	lang, err := language(req.Lang)
	if err != nil {
		s.badRequest(w, r, "Unsupported language", err)
		return
	}
	reply, err := s.assistant.Chat(r.Context(), req.Message, lang)
	if err != nil {
		s.badRequest(w, r, "Empty message", err)
		return
	}
	s.writeJSON(w, r, reply)
}

func (s *server) handleYield(w http.ResponseWriter, r *http.Request) {
	var params advisor.FarmParams
	if err := decode(w, r, &params); err != nil {
		s.badRequest(w, r, "Invalid request", err)
		return
	}
	estimate, err := s.assistant.EstimateYield(r.Context(), params)
	switch {
	case errors.Is(err, advisor.ErrMissingField), errors.Is(err, advisor.ErrInvalidChoice):
		s.badRequest(w, r, err.Error(), err)
		return
	case err != nil:
		s.logger.Error("Yield estimation failed",
			"request_id", w.Header().Get("X-Request-ID"),
			"error", err)
		http.Error(w, "Failed to estimate yield", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, r, estimate)
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = s.userID
	}
	items, err := s.assistant.History(r.Context(), userID)
	if err != nil {
		s.logger.Error("History fetch failed",
			"request_id", w.Header().Get("X-Request-ID"),
			"user_id", userID,
			"error", err)
		http.Error(w, "Failed to fetch history", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, r, map[string]any{"items": items})
}
