// Package gemini identifies phones from photos using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultModel is used unless WithModel names another.
	DefaultModel = "gemini-2.5-flash"
	// DefaultTimeout bounds a single classification call.
	DefaultTimeout = 30 * time.Second
)

// ErrNotConfigured is returned when the client has no generator.
var ErrNotConfigured = errors.New("gemini client not initialized")

// ContentGenerator is the part of the genai SDK the classifier calls. Tests
// substitute a canned implementation.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeneratorFunc adapts a function to ContentGenerator.
type GeneratorFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

func (f GeneratorFunc) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return f(ctx, model, contents, config)
}

// Client classifies device photos.
type Client struct {
	generator ContentGenerator
	model     string
	timeout   time.Duration
}

type Option func(*Client)

// WithModel overrides DefaultModel. An empty name is ignored.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient connects to the Gemini API with apiKey.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	generate := GeneratorFunc(func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		resp, err := sdk.Models.GenerateContent(ctx, model, contents, config)
		if err != nil {
			return nil, fmt.Errorf("genai.GenerateContent: %w", err)
		}
		return resp, nil
	})
	return NewClientWithGenerator(generate, opts...), nil
}

// NewClientWithGenerator builds a Client around any ContentGenerator.
func NewClientWithGenerator(generator ContentGenerator, opts ...Option) *Client {
	c := &Client{generator: generator, model: DefaultModel, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model reports the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
