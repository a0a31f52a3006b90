package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/directive"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/messages"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/persistence"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/progress"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/status"
	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
)

// DB provides persistence functionality
type DB interface {
	LoadInterview(ctx context.Context, id string) (*persistence.Interview, error)
	AppendResponse(ctx context.Context, id string, r persistence.Response) error
	UpdateStatus(ctx context.Context, id string, version int32, status string) error
}

// Cache holds per-call progress cursors
type Cache interface {
	Get(id string) (progress.Cursor, bool)
	Set(id string, cur progress.Cursor)
	Delete(id string)
}

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// Service is the call lifecycle state machine.
// It turns telephony webhook events into voice directives and status transitions.
// All per-interview mutation runs under a per-id lock so concurrent webhook
// deliveries cannot interleave the read-append-advance sequence.
type Service struct {
	db         DB
	cache      Cache
	sender     MsgSender
	webhookURL string
	locks      *keyedLock
}

const (
	greetingText = "Hello. This is an automated screening call. Let's begin."
	nextText     = "Next question."
	thankYouText = "Thank you. The interview is complete."
	apologyText  = "Sorry, I could not find interview questions."
)

// NewService creates the orchestrator
func NewService(db DB, cache Cache, sender MsgSender, webhookURL string) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("no DB")
	}
	if cache == nil {
		return nil, fmt.Errorf("no cache")
	}
	if sender == nil {
		return nil, fmt.Errorf("no msg sender")
	}
	if webhookURL == "" {
		return nil, fmt.Errorf("no webhook URL")
	}
	return &Service{db: db, cache: cache, sender: sender, webhookURL: webhookURL, locks: newKeyedLock()}, nil
}

// Answer handles the call answered event.
// Returns the greeting directive with the first question,
// or an apology when no questions can be found for the id.
func (s *Service) Answer(ctx context.Context, id string) string {
	unlock := s.locks.lock(id)
	defer unlock()

	goapp.Log.Info().Str("ID", id).Msg("answer event")
	itv, err := s.db.LoadInterview(ctx, id)
	if err != nil || itv == nil {
		goapp.Log.Warn().Err(err).Str("ID", id).Msg("no interview for answer event")
		return apology()
	}
	if status.Terminal(status.From(itv.Status)) {
		// late answer event, the interview already finished or failed
		goapp.Log.Warn().Str("ID", id).Str("status", itv.Status).Msg("answer event on finished interview")
		return thankYou()
	}
	cur, ok := s.cache.Get(id)
	if !ok {
		cur = progress.Cursor{Questions: itv.Questions.Items, Index: len(itv.Responses.Items)}
		goapp.Log.Info().Str("ID", id).Int("index", cur.Index).Msg("rebuilt cursor from store")
	}
	if len(cur.Questions) == 0 {
		return apology()
	}
	if cur.Index >= len(cur.Questions) {
		// repeated call after all questions were answered
		return thankYou()
	}

	s.cache.Set(id, cur)
	if err := s.db.UpdateStatus(ctx, id, itv.Version, status.InProgress.String()); err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Msg("can't update status")
	} else {
		s.notify(ctx, id)
	}

	return directive.New().
		Say(greetingText).
		Pause(1).
		Say(cur.Questions[cur.Index]).
		Record(s.recordURL(id)).
		Render()
}

// Record handles the recording ready event for one answer turn.
// Appends the response, advances the cursor and emits the next
// question or the terminal thank-you directive.
func (s *Service) Record(ctx context.Context, id, recordingURL string) string {
	unlock := s.locks.lock(id)
	defer unlock()

	goapp.Log.Info().Str("ID", id).Msg("record event")
	itv, err := s.db.LoadInterview(ctx, id)
	if err != nil || itv == nil {
		goapp.Log.Warn().Err(err).Str("ID", id).Msg("no interview for record event")
		return apology()
	}

	cur, ok := s.cache.Get(id)
	if !ok {
		// cursor lost - rebuild from the durable record
		cur = progress.Cursor{Questions: itv.Questions.Items, Index: len(itv.Responses.Items)}
		goapp.Log.Info().Str("ID", id).Int("index", cur.Index).Msg("rebuilt cursor from store")
	}
	if len(cur.Questions) == 0 {
		cur.Questions = itv.Questions.Items
	}
	if cur.Index >= len(cur.Questions) {
		// all questions already answered
		return thankYou()
	}
	if isDuplicate(itv, recordingURL) {
		// provider retry of an already stored turn - re-emit the current directive
		goapp.Log.Warn().Str("ID", id).Msg("duplicate recording event")
		return s.turnDirective(id, cur)
	}

	if err := s.db.AppendResponse(ctx, id, persistence.Response{
		Question: cur.Questions[cur.Index], RecordingURL: recordingURL}); err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Msg("can't save response")
		return apology()
	}

	next := cur.Index + 1
	if next < len(cur.Questions) {
		cur.Index = next
		s.cache.Set(id, cur)
		return s.turnDirective(id, cur)
	}

	s.setStatus(ctx, id, status.Completed)
	s.cache.Delete(id)
	return thankYou()
}

// Hangup handles the call ended event.
// A completed interview keeps its status and gets its report scheduled,
// anything else maps the provider cause to a terminal status.
func (s *Service) Hangup(ctx context.Context, id, cause string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	goapp.Log.Info().Str("ID", id).Str("cause", cause).Msg("hangup event")
	itv, err := s.db.LoadInterview(ctx, id)
	if err != nil {
		return fmt.Errorf("can't load interview: %w", err)
	}
	if itv == nil {
		goapp.Log.Warn().Str("ID", id).Msg("hangup for unknown interview")
		return nil
	}
	s.cache.Delete(id)

	if itv.Status == status.Completed.String() {
		if err := s.sender.SendMessage(ctx, &messages.InterviewMessage{
			QueueMessage: amessages.QueueMessage{ID: id}}, messages.Report); err != nil {
			return fmt.Errorf("can't schedule report: %w", err)
		}
		return nil
	}
	if status.Terminal(status.From(itv.Status)) {
		// never downgrade a finished interview
		return nil
	}

	st := status.FromHangupCause(cause)
	if err := s.db.UpdateStatus(ctx, id, itv.Version, st.String()); err != nil {
		return fmt.Errorf("can't update status: %w", err)
	}
	s.notify(ctx, id)
	s.inform(ctx, itv, amessages.InformTypeFailed)
	return nil
}

func (s *Service) turnDirective(id string, cur progress.Cursor) string {
	return directive.New().
		Say(nextText).
		Pause(1).
		Say(cur.Questions[cur.Index]).
		Record(s.recordURL(id)).
		Render()
}

func (s *Service) setStatus(ctx context.Context, id string, st status.Status) {
	itv, err := s.db.LoadInterview(ctx, id)
	if err != nil || itv == nil {
		goapp.Log.Error().Err(err).Str("ID", id).Msg("can't load interview for status update")
		return
	}
	if err := s.db.UpdateStatus(ctx, id, itv.Version, st.String()); err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Msg("can't update status")
		return
	}
	s.notify(ctx, id)
}

// notify pushes a status change event, best effort
func (s *Service) notify(ctx context.Context, id string) {
	if err := s.sender.SendMessage(ctx, &messages.InterviewMessage{
		QueueMessage: amessages.QueueMessage{ID: id}}, messages.StatusChange); err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Msg("can't send status change msg")
	}
}

func (s *Service) inform(ctx context.Context, itv *persistence.Interview, informType string) {
	if !itv.NotifyEmail.Valid {
		return
	}
	if err := s.sender.SendMessage(ctx, &amessages.InformMessage{
		QueueMessage: amessages.QueueMessage{ID: itv.ID},
		Type:         informType, At: time.Now()}, messages.Inform); err != nil {
		goapp.Log.Error().Err(err).Str("ID", itv.ID).Msg("can't send inform msg")
	}
}

func (s *Service) recordURL(id string) string {
	return fmt.Sprintf("%s/voice/process-response/%s", s.webhookURL, id)
}

func isDuplicate(itv *persistence.Interview, recordingURL string) bool {
	items := itv.Responses.Items
	return len(items) > 0 && recordingURL != "" && items[len(items)-1].RecordingURL == recordingURL
}

func apology() string {
	return directive.New().Say(apologyText).Hangup().Render()
}

func thankYou() string {
	return directive.New().Say(thankYouText).Hangup().Render()
}
