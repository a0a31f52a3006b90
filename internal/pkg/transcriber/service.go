package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/transcriber/api"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
)

// FailureSentinel marks an answer that could not be transcribed.
// Callers must treat it as "no usable transcript", not as empty content.
const FailureSentinel = "transcription unavailable"

// Provider returns an active speech to text client
type Provider interface {
	Get() (api.Transcriber, string, error)
}

// Filer archives fetched recordings
type Filer interface {
	SaveFile(ctx context.Context, name string, r io.Reader, fileSize int64) error
}

// Service retrieves an answer recording by reference and converts it to text
type Service struct {
	cl       *resty.Client
	provider Provider
	filer    Filer
	backoff  func() backoff.BackOff
}

// NewService creates the transcription service
func NewService(provider Provider, filer Filer) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("no stt provider")
	}
	if filer == nil {
		return nil, fmt.Errorf("no filer")
	}
	res := &Service{provider: provider, filer: filer}
	res.cl = resty.New().SetTimeout(time.Second * 30)
	res.backoff = newSimpleBackoff
	return res, nil
}

// Transcribe fetches the recording, archives a copy and invokes speech to text.
// Any failure yields the sentinel, never an error.
func (s *Service) Transcribe(ctx context.Context, id string, turn int, recordingURL string) string {
	audio, err := s.fetch(ctx, recordingURL)
	if err != nil {
		goapp.Log.Warn().Err(err).Str("ID", id).Int("turn", turn).Msg("can't fetch recording")
		return FailureSentinel
	}
	name := ArchiveName(id, turn)
	if err := s.filer.SaveFile(ctx, name, bytes.NewReader(audio), int64(len(audio))); err != nil {
		// archive failure does not block transcription
		goapp.Log.Warn().Err(err).Str("ID", id).Str("name", name).Msg("can't archive recording")
	}
	tr, srv, err := s.provider.Get()
	if err != nil {
		goapp.Log.Warn().Err(err).Str("ID", id).Msg("no stt service")
		return FailureSentinel
	}
	txt, err := tr.Transcribe(ctx, audio, name)
	if err != nil {
		goapp.Log.Warn().Err(err).Str("ID", id).Str("srv", srv).Msg("can't transcribe")
		return FailureSentinel
	}
	return txt
}

func (s *Service) fetch(ctx context.Context, url string) ([]byte, error) {
	return goapp.InvokeWithBackoff(ctx, func() ([]byte, bool, error) {
		resp, err := s.cl.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, true, fmt.Errorf("can't fetch '%s': %w", url, err)
		}
		if resp.IsError() {
			return nil, resp.StatusCode() >= 500, fmt.Errorf("fetch '%s' responded %d", url, resp.StatusCode())
		}
		if len(resp.Body()) == 0 {
			return nil, false, fmt.Errorf("empty recording at '%s'", url)
		}
		return resp.Body(), false, nil
	}, s.backoff())
}

// ArchiveName returns the object store key for one answer recording
func ArchiveName(id string, turn int) string {
	return fmt.Sprintf("%s/answer-%d.mp3", id, turn)
}

// FixedProvider always returns the same speech to text client
type FixedProvider struct {
	tr  api.Transcriber
	srv string
}

// NewFixedProvider wraps a client into a provider
func NewFixedProvider(tr api.Transcriber, srv string) *FixedProvider {
	return &FixedProvider{tr: tr, srv: srv}
}

// Get implements Provider
func (p *FixedProvider) Get() (api.Transcriber, string, error) {
	if p.tr == nil {
		return nil, "", fmt.Errorf("no stt client")
	}
	return p.tr, p.srv, nil
}
