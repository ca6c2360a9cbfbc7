package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pauljones0/swapThemes/internal/logger"
	"google.golang.org/api/option"
)

var (
	// ErrGeneratorUnavailable is returned by the Unavailable variant.
	ErrGeneratorUnavailable = errors.New("text generator unavailable")
	// ErrGenerationTimeout means every attempt ran past its deadline.
	ErrGenerationTimeout = errors.New("text generation timed out")
)

const (
	DefaultModel           = "gemini-2.5-flash-lite"
	DefaultTimeout         = 10 * time.Second
	DefaultMaxAttempts     = 1
	DefaultTemperature     = 0.9
	DefaultMaxOutputTokens = 4096
)

// GenerativeModel is the slice of *genai.GenerativeModel the client needs; tests swap it out.
type GenerativeModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	Model           string
	Timeout         time.Duration
	MaxAttempts     int
	Temperature     float32
	MaxOutputTokens int32
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return o
}

// Client wraps the Gemini API.
type Client struct {
	client      *genai.Client
	model       GenerativeModel
	name        string
	timeout     time.Duration
	maxAttempts int
}

// NewClient initializes the Gemini client.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := client.GenerativeModel(opts.Model)
	model.ResponseMIMEType = "application/json" // Force structured JSON output
	model.SetTemperature(opts.Temperature)
	model.SetMaxOutputTokens(opts.MaxOutputTokens)

	return &Client{
		client:      client,
		model:       model,
		name:        opts.Model,
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxAttempts,
	}, nil
}

// Close closes the underlying client connection.
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Client) ModelName() string { return c.name }

func (c *Client) Available() bool { return true }

// Generate sends prompt to the model and returns the raw text of the first candidate.
// Each attempt gets its own timeout. When the last attempt timed out the error matches both
// ErrGenerationTimeout and context.DeadlineExceeded.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	timedOut := false
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		text, err := c.attempt(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		timedOut = errors.Is(err, context.DeadlineExceeded)

		// The caller gave up; retrying cannot help.
		if ctx.Err() != nil {
			break
		}
		if attempt < c.maxAttempts {
			logger.Warn(ctx, "Gemini attempt failed, retrying", "attempt", attempt, "max_attempts", c.maxAttempts, "error", err)
		}
	}

	if timedOut {
		return "", fmt.Errorf("%w (%s, %d attempts): %w", ErrGenerationTimeout, c.timeout, c.maxAttempts, context.DeadlineExceeded)
	}
	return "", fmt.Errorf("gemini generation failed: %w", lastErr)
}

func (c *Client) attempt(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(attemptCtx, genai.Text(prompt))
	if err != nil {
		// The SDK does not always wrap the context error; report the deadline ourselves.
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%v: %w", err, context.DeadlineExceeded)
		}
		return "", err
	}
	return responseText(resp)
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text, ok := part.(genai.Text)
		if !ok {
			return "", fmt.Errorf("expected text part, got %T", part)
		}
		b.WriteString(string(text))
	}
	return b.String(), nil
}

// Unavailable stands in when no API key is configured.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string) (string, error) {
	return "", ErrGeneratorUnavailable
}

func (Unavailable) ModelName() string { return "" }

func (Unavailable) Available() bool { return false }

func (Unavailable) GenerateThemeIdea(context.Context, []string) (*ThemeIdea, error) {
	return nil, ErrGeneratorUnavailable
}
