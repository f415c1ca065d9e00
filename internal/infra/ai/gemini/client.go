package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/bryanwahyu/reason3/internal/domain/ai"
)

const (
	DefaultModel       = "gemini-2.5-flash"
	maxOutputTokens    = 2048
	defaultTemperature = 0.1
)

// Options configures the Gemini adapter. BaseURL is only set in tests.
type Options struct {
	APIKey      string
	Model       string
	Temperature *float32 // nil uses defaultTemperature
	BaseURL     string
}

// Client talks to the Gemini API through google.golang.org/genai.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	temp := float32(defaultTemperature)
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	return &Client{client: client, model: model, temperature: temp}, nil
}

func (c *Client) Name() string { return "gemini:" + c.model }

// Complete sends the prompt and the optional inline image as one user turn.
func (c *Client) Complete(ctx context.Context, in ai.Request) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(in.Prompt)}
	if in.HasImage() {
		img, err := ai.ParseDataURL(in.ImageURL)
		if err != nil {
			return "", fmt.Errorf("image part: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", classify(err))
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}

func classify(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	switch code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ai.ErrUnauthorized, err)
	}
	return err
}
