package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	configpkg "github.com/minhyannv/chatgpt-repl/pkg/config"
	loggerpkg "github.com/minhyannv/chatgpt-repl/pkg/logger"
)

// RequestIDHeader carries a client-generated ID for each request.
const RequestIDHeader = "X-Client-Request-Id"

const completionsPath = "chat/completions"

// StatusError reports a non-success HTTP status from the API.
type StatusError struct {
	StatusCode int
	Type       string
	Message    string
	Err        error
}

func (e *StatusError) Error() string {
	status := fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message == "" {
		return "api returned " + status
	}
	return fmt.Sprintf("api returned %s: %s", status, e.Message)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Client issues streaming chat-completion requests.
type Client struct {
	api    openai.Client
	config configpkg.Config
	logger loggerpkg.Logger
	newID  func() string
}

// NewClient validates cfg and builds a Client. Each Stream call makes exactly
// one attempt; SDK retries are disabled.
func NewClient(cfg configpkg.Config, opts ...Option) (*Client, error) {
	cfg = configpkg.Normalize(cfg)
	if err := configpkg.Validate(cfg); err != nil {
		return nil, err
	}
	d := newDeps(opts)

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if d.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(d.httpClient))
	}

	d.logger.Debug("chat client init", map[string]any{
		"base_url":    cfg.BaseURL,
		"model":       cfg.Model,
		"temperature": cfg.Temperature,
		"max_tokens":  cfg.MaxTokens,
	})

	return &Client{
		api:    openai.NewClient(reqOpts...),
		config: cfg,
		logger: d.logger,
		newID:  uuid.NewString,
	}, nil
}

// Stream sends messages and returns the open event-stream response.
// The caller owns the response body.
func (c *Client) Stream(ctx context.Context, messages []Message) (*http.Response, error) {
	params, err := c.newChatParams(messages)
	if err != nil {
		return nil, err
	}

	requestID := c.newID()
	c.logger.Debug("sending streaming request", map[string]any{
		"request_id": requestID,
		"messages":   len(messages),
	})

	var res *http.Response
	err = c.api.Post(ctx, completionsPath, params, &res,
		option.WithJSONSet("stream", true),
		option.WithHeader(RequestIDHeader, requestID),
	)
	if err != nil {
		c.logger.Debug("streaming request failed", map[string]any{
			"request_id": requestID,
			"error":      err.Error(),
		})
		return nil, wrapRequestError(err)
	}
	if res == nil {
		return nil, errors.New("empty response")
	}
	return res, nil
}

func (c *Client) newChatParams(messages []Message) (openai.ChatCompletionNewParams, error) {
	converted, err := toOpenAIMessages(messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.config.Model),
		Messages:    converted,
		Temperature: openai.Float(c.config.Temperature),
		MaxTokens:   openai.Int(c.config.MaxTokens),
	}, nil
}

func wrapRequestError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &StatusError{
			StatusCode: apiErr.StatusCode,
			Type:       apiErr.Type,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	return fmt.Errorf("send request: %w", err)
}
