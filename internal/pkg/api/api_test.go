package api

import (
	"testing"
	"time"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/persistence"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestMapInterview(t *testing.T) {
	now := time.Now()
	itv := &persistence.Interview{ID: "1", CandidateName: "John", CandidatePhone: "+370600", JobPosition: "dev",
		NotifyEmail: utils.ToSQLStr("olia@olia.lt"),
		Status:      "in_progress", Questions: persistence.NewQuestions([]string{"q1", "q2"}),
		Responses: persistence.NewResponses([]persistence.Response{{Question: "q1", RecordingURL: "https://r/1"}}),
		Created:   now, Updated: now.Add(time.Minute)}
	res := MapInterview(itv)
	assert.Equal(t, "1", res.ID)
	assert.Equal(t, "John", res.CandidateName)
	assert.Equal(t, "+370600", res.CandidatePhone)
	assert.Equal(t, "dev", res.JobPosition)
	assert.Equal(t, "olia@olia.lt", res.NotifyEmail)
	assert.Equal(t, "in_progress", res.Status)
	assert.Equal(t, []string{"q1", "q2"}, res.Questions)
	assert.Equal(t, 1, len(res.Responses))
	assert.Equal(t, now, res.Created)
	assert.Equal(t, now.Add(time.Minute), res.Updated)
	assert.Nil(t, res.Report)
	assert.Equal(t, "", res.ReportError)
}

func TestMapInterview_Report(t *testing.T) {
	itv := &persistence.Interview{ID: "1",
		Report: &persistence.ReportData{Version: 1, Report: &persistence.Report{Recommendation: "hire", Summary: "ok"}}}
	res := MapInterview(itv)
	if assert.NotNil(t, res.Report) {
		assert.Equal(t, "hire", res.Report.Recommendation)
	}
	assert.Equal(t, "", res.ReportError)
}

func TestMapInterview_ReportError(t *testing.T) {
	itv := &persistence.Interview{ID: "1", Report: &persistence.ReportData{Version: 1, Error: "llm failed"}}
	res := MapInterview(itv)
	assert.Nil(t, res.Report)
	assert.Equal(t, "llm failed", res.ReportError)
}
