package telephony

import (
	"context"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/go-resty/resty/v2"
)

// Client places outbound calls via the telephony provider REST API
type Client struct {
	cl      *resty.Client
	callURL string
	from    string
}

type callRequest struct {
	From         string `json:"from"`
	To           string `json:"to"`
	AnswerURL    string `json:"answer_url"`
	AnswerMethod string `json:"answer_method"`
	HangupURL    string `json:"hangup_url"`
	HangupMethod string `json:"hangup_method"`
}

// NewClient creates a telephony client
func NewClient(callURL, authID, authToken, from string) (*Client, error) {
	if callURL == "" {
		return nil, fmt.Errorf("no callURL")
	}
	if authID == "" || authToken == "" {
		return nil, fmt.Errorf("no auth credentials")
	}
	if from == "" {
		return nil, fmt.Errorf("no origin number")
	}
	res := &Client{callURL: callURL, from: from}
	res.cl = resty.New().SetTimeout(time.Second * 10).SetBasicAuth(authID, authToken)
	return res, nil
}

// Place issues one call placement request with the webhook targets
func (c *Client) Place(ctx context.Context, to, answerURL, hangupURL string) error {
	goapp.Log.Info().Str("to", to).Msg("placing call")
	resp, err := c.cl.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(callRequest{From: c.from, To: to,
			AnswerURL: answerURL, AnswerMethod: "POST",
			HangupURL: hangupURL, HangupMethod: "POST"}).
		Post(c.callURL)
	if err != nil {
		return fmt.Errorf("can't invoke telephony: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telephony responded %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
