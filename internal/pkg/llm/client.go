package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"
)

// Client communicates with the generative text capability
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	backoff func() backoff.BackOff
}

// NewClient creates a generative text client
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no api key")
	}
	if model == "" {
		return nil, fmt.Errorf("no model")
	}
	cl, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("can't init genai client: %w", err)
	}
	res := &Client{client: cl, model: model}
	res.timeout = time.Second * 90
	res.backoff = newSimpleBackoff
	return res, nil
}

// Generate invokes the model with the prompt and returns the response text
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cf := context.WithTimeout(ctx, c.timeout)
	defer cf()
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(0.2))}
	res, err := goapp.InvokeWithBackoff(ctx, func() (string, bool, error) {
		r, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
		if err != nil {
			return "", isRetryable(err), err
		}
		txt := r.Text()
		if strings.TrimSpace(txt) == "" {
			return "", false, fmt.Errorf("empty model response")
		}
		return txt, false, nil
	}, c.backoff())
	if err != nil {
		return "", fmt.Errorf("can't generate text: %w", err)
	}
	return res, nil
}

func isRetryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	return true
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	res.InitialInterval = time.Second
	return backoff.WithMaxRetries(res, 3)
}
