package api

import "context"

// Transcriber converts recorded audio to text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, name string) (string, error)
}

// Result is the speech to text service response
type Result struct {
	Text string `json:"text"`
}
