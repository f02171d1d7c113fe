// Package gemini provides an llm.Gateway for Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/codeGROOVE-dev/agrovision/pkg/llm"
	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.0-flash"

const vertexLocation = "us-central1"

// Config holds the connection settings for a Gemini client.
type Config struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
	GCPProject string
	// BaseURL overrides the API endpoint, mostly for tests and proxies.
	BaseURL string
}

// Client represents a Gemini API client.
type Client struct {
	client *genai.Client
	logger llm.Logger
	model  string
}

var _ llm.Gateway = (*Client)(nil)

// NewClient creates a Gemini client. Without an API key it falls back to
// Vertex AI with Application Default Credentials.
func NewClient(ctx context.Context, cfg Config, logger llm.Logger) (*Client, error) {
	var config *genai.ClientConfig

	if cfg.APIKey != "" {
		config = &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  cfg.APIKey,
		}
		logger.Info("Using Gemini API with API key")
	} else {
		projectID := projectID(cfg.GCPProject)
		if projectID == "" {
			return nil, errors.New("gemini needs an API key or a GCP project")
		}
		config = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  projectID,
			Location: vertexLocation,
		}
		logger.Info("Using Vertex AI with Application Default Credentials", "project", projectID, "location", vertexLocation)
	}
	config.HTTPClient = cfg.HTTPClient
	config.HTTPOptions.BaseURL = cfg.BaseURL

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := strings.TrimPrefix(cfg.Model, "models/")
	if model == "" {
		model = DefaultModel
	}

	return &Client{client: client, model: model, logger: logger}, nil
}

func projectID(configured string) string {
	if configured != "" {
		return configured
	}
	if id := os.Getenv("GCP_PROJECT"); id != "" {
		return id
	}
	return os.Getenv("GOOGLE_CLOUD_PROJECT")
}

// Complete sends one generateContent request and returns the first candidate's text.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: req.User},
			},
		},
	}

	temperature := float32(req.Temperature)
	genConfig := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.MaxOutputTokens), //nolint:gosec // small token budgets
		CandidateCount:  1,
	}
	if req.System != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	c.logger.Debug("Calling Gemini", "model", c.model, "temperature", req.Temperature, "max_tokens", req.MaxOutputTokens)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genConfig)
	if err != nil {
		return "", classify(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from Gemini API")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in Gemini response")
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	c.logger.Debug("Raw Gemini response", "response_text", text.String())
	return text.String(), nil
}

// classify maps SDK errors onto the llm error contract.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.StatusError{Code: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &llm.StatusError{Code: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return fmt.Errorf("%w: %w", llm.ErrUnreachable, err)
}
