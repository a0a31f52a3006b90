package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/transcriber/api"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
)

// Client communicates with a speech to text service
type Client struct {
	cl            *resty.Client
	transcribeURL string
	backoff       func() backoff.BackOff
}

// NewClient creates a speech to text client
func NewClient(transcribeURL string) (*Client, error) {
	if transcribeURL == "" {
		return nil, fmt.Errorf("no transcribeURL")
	}
	res := &Client{transcribeURL: transcribeURL}
	res.cl = resty.New().SetTimeout(time.Second * 50)
	res.backoff = newSimpleBackoff
	return res, nil
}

// Transcribe sends audio to the service and returns the recognized text
func (c *Client) Transcribe(ctx context.Context, audio []byte, name string) (string, error) {
	goapp.Log.Info().Str("name", name).Int("size", len(audio)).Msg("transcribing")
	res, err := goapp.InvokeWithBackoff(ctx, func() (string, bool, error) {
		var out api.Result
		resp, err := c.cl.R().SetContext(ctx).
			SetFileReader("file", name, bytes.NewReader(audio)).
			SetResult(&out).
			Post(c.transcribeURL)
		if err != nil {
			return "", true, fmt.Errorf("can't invoke stt: %w", err)
		}
		if resp.IsError() {
			return "", resp.StatusCode() >= 500, fmt.Errorf("stt responded %d: %s", resp.StatusCode(), resp.String())
		}
		return out.Text, false, nil
	}, c.backoff())
	if err != nil {
		return "", err
	}
	return res, nil
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	res.InitialInterval = time.Second
	return backoff.WithMaxRetries(res, 3)
}
