// Package analyzer generates stock-photography titles and descriptions for
// images using an OpenAI vision model. It is strictly best-effort: one
// bounded attempt per image, and callers treat failures as a per-item
// condition, never a run-level one.
package analyzer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jackzampolin/stockpilot/internal/enhance"
)

const defaultModel = openai.ChatModelGPT4o

// ErrUnparseable is returned when the model response does not contain the
// expected TITLE/DESCRIPTION lines.
var ErrUnparseable = errors.New("could not parse title/description from model response")

const analyzePrompt = `Analyze this image for stock photography submission. Generate:

1. TITLE (max 115 characters):
   - Descriptive and SEO-friendly
   - Highlight main subject and key elements
   - Professional tone
   - No colons or special characters

2. DESCRIPTION (2-3 sentences, max 200 characters):
   - Detailed description of what's in the image
   - Include colors, mood, composition, and setting
   - Mention potential use cases
   - Professional and engaging

Format your response EXACTLY as:
TITLE: [your title here]
DESCRIPTION: [your description here]`

// Config holds configuration for the analyzer client.
type Config struct {
	APIKey     string
	Model      string        // default: gpt-4o
	Timeout    time.Duration // HTTP timeout (default 60s)
	MaxRetries int           // SDK transport retries (default 2)
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
}

// Client analyzes images via the OpenAI chat completions API.
type Client struct {
	model  string
	client openai.Client
}

// New creates an analyzer client.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}
}

// Analyze generates a title and description for the given PNG image.
func (c *Client) Analyze(ctx context.Context, image []byte) (*enhance.AIResult, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(analyzePrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		MaxTokens: openai.Int(300),
	})
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty model response")
	}

	return parseResponse(resp.Choices[0].Message.Content)
}

// parseResponse extracts the TITLE and DESCRIPTION lines from the model
// output.
func parseResponse(text string) (*enhance.AIResult, error) {
	var title, description string

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "TITLE:"):
			title = cleanField(line[len("TITLE:"):])
		case strings.HasPrefix(upper, "DESCRIPTION:"):
			description = cleanField(line[len("DESCRIPTION:"):])
		}
	}

	if title == "" || description == "" {
		return nil, ErrUnparseable
	}

	if runes := []rune(title); len(runes) > enhance.MaxTitleLength {
		title = string(runes[:enhance.MaxTitleLength-3]) + "..."
	}

	return &enhance.AIResult{Title: title, Description: description}, nil
}

// cleanField trims whitespace and surrounding quote characters.
func cleanField(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
