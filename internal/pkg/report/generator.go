package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/messages"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/persistence"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/status"
	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/tidwall/gjson"
)

// DB provides report persistence functionality
type DB interface {
	LoadInterview(ctx context.Context, id string) (*persistence.Interview, error)
	SetReport(ctx context.Context, id string, report *persistence.ReportData) error
	UpdateStatus(ctx context.Context, id string, version int32, status string) error
}

// Transcriber turns one recorded answer into text
type Transcriber interface {
	Transcribe(ctx context.Context, id string, turn int, recordingURL string) string
}

// TextGenerator provides LLM completion functionality
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// Generator builds the candidate evaluation report.
// It transcribes the recorded answers, asks the LLM to score the
// transcript and stores the structured result.
type Generator struct {
	db          DB
	transcriber Transcriber
	llm         TextGenerator
	sender      MsgSender
}

// NewGenerator creates the report generator
func NewGenerator(db DB, transcriber Transcriber, llm TextGenerator, sender MsgSender) (*Generator, error) {
	if db == nil {
		return nil, fmt.Errorf("no DB")
	}
	if transcriber == nil {
		return nil, fmt.Errorf("no transcriber")
	}
	if llm == nil {
		return nil, fmt.Errorf("no text generator")
	}
	if sender == nil {
		return nil, fmt.Errorf("no msg sender")
	}
	return &Generator{db: db, transcriber: transcriber, llm: llm, sender: sender}, nil
}

// Generate makes the report for one completed interview.
// Any LLM or parse failure stores an error marker instead of
// leaving the interview without a report field.
func (g *Generator) Generate(ctx context.Context, id string) error {
	itv, err := g.db.LoadInterview(ctx, id)
	if err != nil {
		return fmt.Errorf("can't load interview: %w", err)
	}
	if itv == nil {
		return fmt.Errorf("no interview: %s", id)
	}
	if itv.Report != nil {
		goapp.Log.Info().Str("ID", id).Msg("report already exists")
		return nil
	}
	if len(itv.Responses.Items) == 0 {
		goapp.Log.Warn().Str("ID", id).Msg("no responses recorded")
		return g.db.SetReport(ctx, id, persistence.NewErrorReport("no responses recorded"))
	}

	transcript := g.buildTranscript(ctx, itv)
	rep, err := g.evaluate(ctx, itv.JobPosition, transcript)
	if err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Msg("can't evaluate interview")
		return g.db.SetReport(ctx, id, persistence.NewErrorReport(err.Error()))
	}

	if err := g.db.SetReport(ctx, id, &persistence.ReportData{
		Version: persistence.PayloadVersion, Report: rep}); err != nil {
		return fmt.Errorf("can't save report: %w", err)
	}
	if err := g.db.UpdateStatus(ctx, id, itv.Version, status.ReportReady.String()); err != nil {
		return fmt.Errorf("can't update status: %w", err)
	}
	if err := g.sender.SendMessage(ctx, &messages.InterviewMessage{
		QueueMessage: amessages.QueueMessage{ID: id}}, messages.StatusChange); err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Msg("can't send status change msg")
	}
	if itv.NotifyEmail.Valid {
		if err := g.sender.SendMessage(ctx, &amessages.InformMessage{
			QueueMessage: amessages.QueueMessage{ID: id},
			Type:         amessages.InformTypeFinished, At: time.Now()}, messages.Inform); err != nil {
			goapp.Log.Error().Err(err).Str("ID", id).Msg("can't send inform msg")
		}
	}
	goapp.Log.Info().Str("ID", id).Float64("score", rep.OverallScore).Msg("report ready")
	return nil
}

func (g *Generator) buildTranscript(ctx context.Context, itv *persistence.Interview) string {
	sb := strings.Builder{}
	for i, r := range itv.Responses.Items {
		text := g.transcriber.Transcribe(ctx, itv.ID, i, r.RecordingURL)
		sb.WriteString(fmt.Sprintf("Interviewer: %s\nCandidate: %s\n\n", r.Question, text))
	}
	return sb.String()
}

const evalPrompt = `You are an experienced technical recruiter evaluating a phone screening interview for the position of "%s".

Below is the interview transcript. Some candidate answers may be marked as unavailable, judge only what is present.

%s

Respond with a single JSON object and nothing else:
{
  "overall_score": <number 0-10>,
  "recommendation": "<Strong Hire|Hire|Maybe|No Hire>",
  "summary": "<2-3 sentence overall assessment>",
  "strengths": ["<strength>", ...],
  "weaknesses": ["<weakness>", ...]
}`

func (g *Generator) evaluate(ctx context.Context, position, transcript string) (*persistence.Report, error) {
	resp, err := g.llm.Generate(ctx, fmt.Sprintf(evalPrompt, position, transcript))
	if err != nil {
		return nil, fmt.Errorf("can't generate: %w", err)
	}
	rep, err := parseReport(resp)
	if err != nil {
		return nil, fmt.Errorf("can't parse report: %w", err)
	}
	return rep, nil
}

// parseReport extracts the JSON object from an LLM response.
// Models wrap JSON into markdown fences or prose, so take the
// outermost braces and validate what is between them.
func parseReport(resp string) (*persistence.Report, error) {
	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	raw := resp[start : end+1]
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON in response")
	}
	var res persistence.Report
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("can't unmarshal report: %w", err)
	}
	if res.Recommendation == "" && res.Summary == "" {
		return nil, fmt.Errorf("empty report fields")
	}
	return &res, nil
}
