package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/messages"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/persistence"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/status"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/utils"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/utils/handler"
	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
)

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// DB provides persistence functionality
type DB interface {
	LoadInterview(ctx context.Context, id string) (*persistence.Interview, error)
	UpdateStatus(ctx context.Context, id string, version int32, status string) error
	SetReport(ctx context.Context, id string, report *persistence.ReportData) error
}

// Caller places outbound calls
type Caller interface {
	Place(ctx context.Context, to, answerURL, hangupURL string) error
}

// Reporter builds evaluation reports
type Reporter interface {
	Generate(ctx context.Context, id string) error
}

// ServiceData keeps data required for service work
type ServiceData struct {
	GueClient   *gue.Client
	WorkerCount int
	MsgSender   MsgSender
	DB          DB
	Caller      Caller
	Reporter    Reporter
	WebhookURL  string
	Testing     bool
}

// StartWorkerService starts the event queue listener service to listen for events
// returns channel for tracking if all jobs are finished
func StartWorkerService(ctx context.Context, data *ServiceData) (chan struct{}, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Int("workers", data.WorkerCount).Msg("Starting listen for messages")
	if data.Testing {
		goapp.Log.Warn().Msg("SERVICE IN TEST MODE")
	}

	pools := []struct {
		queue string
		wf    gue.WorkFunc
	}{
		{messages.Dispatch, handler.Create(data, handleDispatch,
			handler.DefaultOpts[messages.InterviewMessage]().WithFailure(failureTo(data.MsgSender, messages.Dispatch)).
				WithTimeout(time.Minute * 2).WithBackoff(handler.DefaultBackoffOrTest(data.Testing)))},
		{messages.Report, handler.Create(data, handleReport,
			handler.DefaultOpts[messages.InterviewMessage]().WithFailure(failureTo(data.MsgSender, messages.Report)).
				WithBackoff(handler.DefaultBackoffOrTest(data.Testing)))},
		{messages.Fail, handler.Create(data, handleFailure,
			handler.DefaultOpts[messages.FailMessage]().WithBackoff(handler.DefaultBackoffOrTest(data.Testing)))},
	}

	res := make(chan struct{}, 1)
	done := make(chan struct{}, len(pools))
	for _, p := range pools {
		pool, err := gue.NewWorkerPool(
			data.GueClient, gue.WorkMap{p.queue: p.wf}, data.WorkerCount,
			gue.WithPoolQueue(p.queue),
			gue.WithPoolLogger(utils.NewGueLoggerAdapter()),
			gue.WithPoolPollInterval(500*time.Millisecond),
			gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
			gue.WithPoolID("screen-worker-"+p.queue),
		)
		if err != nil {
			return nil, fmt.Errorf("could not build gue workers pool: %w", err)
		}
		go func(pool *gue.WorkerPool, queue string) {
			goapp.Log.Info().Str("queue", queue).Msg("Starting workers")
			if err := pool.Run(ctx); err != nil {
				goapp.Log.Error().Err(err).Msg("pool error")
			}
			goapp.Log.Info().Str("queue", queue).Msg("Pool workers finished")
			done <- struct{}{}
		}(pool, p.queue)
	}
	go func() {
		for range pools {
			<-done
		}
		res <- struct{}{}
	}()
	return res, nil
}

// failureTo routes a given up job to the failure queue
func failureTo(sender MsgSender, source string) func(context.Context, *messages.InterviewMessage, error, *gue.Job) (bool, time.Duration, error) {
	return func(ctx context.Context, m *messages.InterviewMessage, err error, j *gue.Job) (bool, time.Duration, error) {
		if j.ErrorCount <= 3 {
			return true, 0, nil
		}
		goapp.Log.Warn().Str("ID", m.ID).Str("source", source).Msg("sending failure msg")
		if errSend := sender.SendMessage(ctx, &messages.FailMessage{
			QueueMessage: amessages.QueueMessage{ID: m.ID},
			Source:       source, Error: err.Error()}, messages.Fail); errSend != nil {
			return false, 0, fmt.Errorf("can't send failure msg: %w", errSend)
		}
		return false, 0, nil
	}
}

func handleDispatch(ctx context.Context, m *messages.InterviewMessage, data *ServiceData) error {
	goapp.Log.Info().Str("ID", m.ID).Msg("handling dispatch")
	itv, err := data.DB.LoadInterview(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("can't load interview: %w", err)
	}
	if itv == nil {
		return fmt.Errorf("no interview: %s", m.ID)
	}
	if status.Terminal(status.From(itv.Status)) {
		goapp.Log.Warn().Str("ID", m.ID).Str("status", itv.Status).Msg("skip dispatch, interview finished")
		return nil
	}
	if err := data.Caller.Place(ctx, itv.CandidatePhone,
		fmt.Sprintf("%s/voice/answer/%s", data.WebhookURL, m.ID),
		fmt.Sprintf("%s/voice/hangup/%s", data.WebhookURL, m.ID)); err != nil {
		return fmt.Errorf("can't place call: %w", err)
	}
	if err := data.DB.UpdateStatus(ctx, m.ID, itv.Version, status.Ringing.String()); err != nil {
		return fmt.Errorf("can't update status: %w", err)
	}
	if err := data.MsgSender.SendMessage(ctx, &messages.InterviewMessage{
		QueueMessage: amessages.QueueMessage{ID: m.ID}}, messages.StatusChange); err != nil {
		return fmt.Errorf("can't send msg: %w", err)
	}
	return nil
}

func handleReport(ctx context.Context, m *messages.InterviewMessage, data *ServiceData) error {
	goapp.Log.Info().Str("ID", m.ID).Msg("handling report")
	return data.Reporter.Generate(ctx, m.ID)
}

func handleFailure(ctx context.Context, m *messages.FailMessage, data *ServiceData) error {
	goapp.Log.Info().Str("ID", m.ID).Str("source", m.Source).Msg("handling failure")
	switch m.Source {
	case messages.Dispatch:
		return failDispatch(ctx, m, data)
	case messages.Report:
		return failReport(ctx, m, data)
	}
	goapp.Log.Warn().Str("source", m.Source).Msg("unknown failure source")
	return nil
}

func failDispatch(ctx context.Context, m *messages.FailMessage, data *ServiceData) error {
	itv, err := data.DB.LoadInterview(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("can't load interview: %w", err)
	}
	if itv == nil || status.Terminal(status.From(itv.Status)) {
		return nil
	}
	if err := data.DB.UpdateStatus(ctx, m.ID, itv.Version, status.CallFailed.String()); err != nil {
		return fmt.Errorf("can't update status: %w", err)
	}
	if err := data.MsgSender.SendMessage(ctx, &messages.InterviewMessage{
		QueueMessage: amessages.QueueMessage{ID: m.ID}}, messages.StatusChange); err != nil {
		return fmt.Errorf("can't send msg: %w", err)
	}
	if itv.NotifyEmail.Valid {
		if err := data.MsgSender.SendMessage(ctx, &amessages.InformMessage{
			QueueMessage: amessages.QueueMessage{ID: m.ID},
			Type:         amessages.InformTypeFailed, At: time.Now()}, messages.Inform); err != nil {
			return fmt.Errorf("can't send msg: %w", err)
		}
	}
	return nil
}

func failReport(ctx context.Context, m *messages.FailMessage, data *ServiceData) error {
	itv, err := data.DB.LoadInterview(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("can't load interview: %w", err)
	}
	if itv == nil || itv.Report != nil {
		return nil
	}
	return data.DB.SetReport(ctx, m.ID, persistence.NewErrorReport(m.Error))
}

func validate(data *ServiceData) error {
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.MsgSender == nil {
		return fmt.Errorf("no msg sender")
	}
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.Caller == nil {
		return fmt.Errorf("no caller")
	}
	if data.Reporter == nil {
		return fmt.Errorf("no reporter")
	}
	if data.WebhookURL == "" {
		return fmt.Errorf("no webhook URL")
	}
	return nil
}
