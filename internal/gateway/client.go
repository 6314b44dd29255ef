// Package gateway wraps the external chat-completion endpoint used for
// palm analysis. The gateway speaks the OpenAI chat API, so the client is
// a thin configuration of go-openai with a custom base URL.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/palmlore/palmd/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel       = "openai/gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Config holds the gateway connection parameters, fixed per deployment.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Client issues chat-completion requests against the gateway. One request
// per analysis, no retries: a single upstream failure becomes a single
// reported failure to the caller.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewClient(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (c *Client) request(prompt, imageURL string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	}
}

// Analyze sends the composed prompt with the image reference and returns
// the model's message content.
func (c *Client) Analyze(ctx context.Context, prompt, imageURL string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, c.request(prompt, imageURL, false))
	if err != nil {
		return "", upstreamError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &domain.UpstreamError{Service: "gateway", Err: errors.New("no choices returned")}
	}

	return resp.Choices[0].Message.Content, nil
}

// AnalyzeStream sends the composed prompt and relays each text delta to fn
// in upstream order until the stream ends. A non-nil error from fn aborts
// the stream; cancelling ctx cancels the in-flight upstream call.
func (c *Client) AnalyzeStream(ctx context.Context, prompt, imageURL string, fn func(delta string) error) error {
	stream, err := c.api.CreateChatCompletionStream(ctx, c.request(prompt, imageURL, true))
	if err != nil {
		return upstreamError(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return upstreamError(err)
		}

		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := fn(delta); err != nil {
			return fmt.Errorf("relay stream delta: %w", err)
		}
	}
}

// upstreamError converts go-openai errors into a domain.UpstreamError
// carrying the upstream status code and body text when available.
func upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{
			Service:    "gateway",
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.UpstreamError{
			Service:    "gateway",
			StatusCode: reqErr.HTTPStatusCode,
			Body:       string(reqErr.Body),
			Err:        err,
		}
	}

	return &domain.UpstreamError{Service: "gateway", Err: err}
}
