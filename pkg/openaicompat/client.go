// Package openaicompat provides an llm.Gateway for OpenAI-compatible
// chat-completions endpoints such as Groq.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/codeGROOVE-dev/agrovision/pkg/llm"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultBaseURL points at Groq's OpenAI-compatible API.
	DefaultBaseURL = "https://api.groq.com/openai/v1/"
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "llama-3.3-70b-versatile"
)

// Config holds the connection settings for a chat-completions client.
type Config struct {
	HTTPClient *http.Client
	APIKey     string
	BaseURL    string
	Model      string
}

// Client sends system+user message pairs to a chat-completions endpoint.
type Client struct {
	client openai.Client
	logger llm.Logger
	model  string
}

var _ llm.Gateway = (*Client)(nil)

// NewClient creates a client. The SDK's built-in retries are disabled:
// every Complete call is a single attempt.
func NewClient(cfg Config, logger llm.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("chat-completions API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	logger.Info("Using OpenAI-compatible endpoint", "base_url", baseURL, "model", model)

	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}, nil
}

// Complete sends one chat completion and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	c.logger.Debug("Calling chat completions", "model", c.model, "temperature", req.Temperature, "max_tokens", req.MaxOutputTokens)

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &llm.StatusError{Code: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return "", fmt.Errorf("%w: %w", llm.ErrUnreachable, err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no choices in chat completion")
	}

	text := completion.Choices[0].Message.Content
	c.logger.Debug("Raw chat completion", "response_text", text)
	return text, nil
}
