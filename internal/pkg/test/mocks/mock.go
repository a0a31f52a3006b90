package mocks

import (
	"context"
	"io"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/persistence"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/progress"
	"github.com/airenas/async-api/pkg/messages"
	"github.com/stretchr/testify/mock"
)

// DB is postgres DB mock
type DB struct{ mock.Mock }

func (m *DB) InsertInterview(ctx context.Context, itv *persistence.Interview) error {
	args := m.Called(ctx, itv)
	return args.Error(0)
}

func (m *DB) LoadInterview(ctx context.Context, id string) (*persistence.Interview, error) {
	args := m.Called(ctx, id)
	return to[*persistence.Interview](args.Get(0)), args.Error(1)
}

func (m *DB) ListInterviews(ctx context.Context) ([]*persistence.Interview, error) {
	args := m.Called(ctx)
	return to[[]*persistence.Interview](args.Get(0)), args.Error(1)
}

func (m *DB) SetQuestions(ctx context.Context, id string, q persistence.Questions) error {
	args := m.Called(ctx, id, q)
	return args.Error(0)
}

func (m *DB) AppendResponse(ctx context.Context, id string, r persistence.Response) error {
	args := m.Called(ctx, id, r)
	return args.Error(0)
}

func (m *DB) UpdateStatus(ctx context.Context, id string, version int32, status string) error {
	args := m.Called(ctx, id, version, status)
	return args.Error(0)
}

func (m *DB) SetReport(ctx context.Context, id string, rep *persistence.ReportData) error {
	args := m.Called(ctx, id, rep)
	return args.Error(0)
}

func (m *DB) Live(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Sender is postgres queue mock
type Sender struct{ mock.Mock }

func (m *Sender) SendMessage(ctx context.Context, msg messages.Message, queue string) error {
	args := m.Called(ctx, msg, queue)
	return args.Error(0)
}

// Caller is telephony client mock
type Caller struct{ mock.Mock }

func (m *Caller) Place(ctx context.Context, to, answerURL, hangupURL string) error {
	args := m.Called(ctx, to, answerURL, hangupURL)
	return args.Error(0)
}

// TextGenerator is llm client mock
type TextGenerator struct{ mock.Mock }

func (m *TextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// QuestionMaker is question generator mock
type QuestionMaker struct{ mock.Mock }

func (m *QuestionMaker) Generate(ctx context.Context, position, description string, skills []string) []string {
	args := m.Called(ctx, position, description, skills)
	return to[[]string](args.Get(0))
}

// Transcriber is transcription client mock
type Transcriber struct{ mock.Mock }

func (m *Transcriber) Transcribe(ctx context.Context, audio []byte, name string) (string, error) {
	args := m.Called(ctx, audio, name)
	return args.String(0), args.Error(1)
}

// TurnTranscriber is transcription service mock
type TurnTranscriber struct{ mock.Mock }

func (m *TurnTranscriber) Transcribe(ctx context.Context, id string, turn int, recordingURL string) string {
	args := m.Called(ctx, id, turn, recordingURL)
	return args.String(0)
}

// Filer is minio mock
type Filer struct{ mock.Mock }

func (m *Filer) SaveFile(ctx context.Context, name string, r io.Reader, fileSize int64) error {
	args := m.Called(ctx, name, r, fileSize)
	return args.Error(0)
}

func (m *Filer) LoadFile(ctx context.Context, fileName string) (io.ReadSeekCloser, error) {
	args := m.Called(ctx, fileName)
	return to[io.ReadSeekCloser](args.Get(0)), args.Error(1)
}

// Reporter is report generator mock
type Reporter struct{ mock.Mock }

func (m *Reporter) Generate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Cache is progress cache mock
type Cache struct{ mock.Mock }

func (m *Cache) Get(id string) (progress.Cursor, bool) {
	args := m.Called(id)
	return to[progress.Cursor](args.Get(0)), args.Bool(1)
}

func (m *Cache) Set(id string, cur progress.Cursor) {
	m.Called(id, cur)
}

func (m *Cache) Delete(id string) {
	m.Called(id)
}

// Orchestrator is call flow mock
type Orchestrator struct{ mock.Mock }

func (m *Orchestrator) Answer(ctx context.Context, id string) string {
	args := m.Called(ctx, id)
	return args.String(0)
}

func (m *Orchestrator) Record(ctx context.Context, id, recordingURL string) string {
	args := m.Called(ctx, id, recordingURL)
	return args.String(0)
}

func (m *Orchestrator) Hangup(ctx context.Context, id, cause string) error {
	args := m.Called(ctx, id, cause)
	return args.Error(0)
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
