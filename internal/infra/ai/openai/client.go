package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/reason3/internal/domain/ai"
)

const (
	maxTokens          = 2048
	defaultTemperature = 0.1

	// GroqBaseURL is the OpenAI compatible endpoint used by default.
	GroqBaseURL  = "https://api.groq.com/openai/v1"
	DefaultModel = "llama-3.3-70b-versatile"
)

// Options configures the adapter. The API key is passed in explicitly.
// A nil Temperature uses defaultTemperature.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float32
	Timeout     time.Duration
}

type Client struct {
	*openai.Client
	Model       string
	Temperature float32
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	temp := float32(defaultTemperature)
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	// go-openai omits a zero temperature, which the API reads as its own default of 1.
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model, Temperature: temp}
}

func (c *Client) Name() string { return c.Model }

// Complete sends one user turn and returns the raw message content.
func (c *Client) Complete(ctx context.Context, in ai.Request) (string, error) {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if in.HasImage() {
		msg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: in.Prompt},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: in.ImageURL},
			},
		}
	} else {
		msg.Content = in.Prompt
	}

	req := openai.ChatCompletionRequest{
		Model:       c.Model,
		Temperature: c.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{msg},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = maxTokens
		req.Temperature = 0
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", classify(err))
	}
	if len(resp.Choices) == 0 {
		return "", ai.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// classify maps provider status codes onto the domain sentinels.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ai.ErrUnauthorized, err)
	}
	return err
}
