package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/messages"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/persistence"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/status"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/test"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/test/mocks"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/utils"
)

var (
	dbMock     *mocks.DB
	trMock     *mocks.TurnTranscriber
	llmMock    *mocks.TextGenerator
	senderMock *mocks.Sender
	gen        *Generator
)

const llmOK = `{"overall_score": 7.5, "recommendation": "Hire", "summary": "Solid answers.",
"strengths": ["communication"], "weaknesses": ["no cloud experience"]}`

func initTest(t *testing.T) {
	dbMock = &mocks.DB{}
	trMock = &mocks.TurnTranscriber{}
	llmMock = &mocks.TextGenerator{}
	senderMock = &mocks.Sender{}
	var err error
	gen, err = NewGenerator(dbMock, trMock, llmMock, senderMock)
	require.Nil(t, err)
	senderMock.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	trMock.On("Transcribe", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("answer text")
}

func newTestInterview() *persistence.Interview {
	return &persistence.Interview{ID: "1", JobPosition: "Go Developer",
		NotifyEmail: utils.ToSQLStr("a@a.com"), Status: status.Completed.String(),
		Questions: persistence.NewQuestions([]string{"Q1?", "Q2?"}),
		Responses: persistence.NewResponses([]persistence.Response{
			{Question: "Q1?", RecordingURL: "http://rec/1"},
			{Question: "Q2?", RecordingURL: "http://rec/2"}}), Version: 4}
}

func TestNewGenerator_Fail(t *testing.T) {
	_, err := NewGenerator(nil, &mocks.TurnTranscriber{}, &mocks.TextGenerator{}, &mocks.Sender{})
	assert.NotNil(t, err)
	_, err = NewGenerator(&mocks.DB{}, nil, &mocks.TextGenerator{}, &mocks.Sender{})
	assert.NotNil(t, err)
}

func TestGenerate(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(newTestInterview(), nil)
	dbMock.On("SetReport", mock.Anything, "1", mock.Anything).Return(nil)
	dbMock.On("UpdateStatus", mock.Anything, "1", int32(4), status.ReportReady.String()).Return(nil)
	llmMock.On("Generate", mock.Anything, mock.Anything).Return(llmOK, nil)

	err := gen.Generate(test.Ctx(t), "1")
	require.Nil(t, err)
	dbMock.AssertCalled(t, "UpdateStatus", mock.Anything, "1", int32(4), status.ReportReady.String())
	rep := dbMock.Calls[1].Arguments[2].(*persistence.ReportData)
	require.NotNil(t, rep.Report)
	assert.InDelta(t, 7.5, rep.Report.OverallScore, 0.001)
	assert.Equal(t, "Hire", rep.Report.Recommendation)
	assert.Equal(t, []string{"communication"}, rep.Report.Strengths)
	require.Equal(t, 2, len(senderMock.Calls))
	assert.Equal(t, messages.StatusChange, senderMock.Calls[0].Arguments[2])
	assert.Equal(t, messages.Inform, senderMock.Calls[1].Arguments[2])
}

func TestGenerate_TranscribesEveryTurn(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(newTestInterview(), nil)
	dbMock.On("SetReport", mock.Anything, "1", mock.Anything).Return(nil)
	dbMock.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	llmMock.On("Generate", mock.Anything, mock.Anything).Return(llmOK, nil)

	err := gen.Generate(test.Ctx(t), "1")
	require.Nil(t, err)
	require.Equal(t, 2, len(trMock.Calls))
	assert.Equal(t, 0, trMock.Calls[0].Arguments[2])
	assert.Equal(t, "http://rec/1", trMock.Calls[0].Arguments[3])
	assert.Equal(t, 1, trMock.Calls[1].Arguments[2])
	prompt := llmMock.Calls[0].Arguments[1].(string)
	assert.Contains(t, prompt, "Go Developer")
	assert.Contains(t, prompt, "Interviewer: Q1?")
	assert.Contains(t, prompt, "Candidate: answer text")
}

func TestGenerate_NoResponses(t *testing.T) {
	initTest(t)
	itv := newTestInterview()
	itv.Responses = persistence.NewResponses(nil)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(itv, nil)
	dbMock.On("SetReport", mock.Anything, "1", mock.Anything).Return(nil)

	err := gen.Generate(test.Ctx(t), "1")
	require.Nil(t, err)
	llmMock.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	rep := dbMock.Calls[1].Arguments[2].(*persistence.ReportData)
	assert.Equal(t, "no responses recorded", rep.Error)
	dbMock.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerate_AlreadyExists(t *testing.T) {
	initTest(t)
	itv := newTestInterview()
	itv.Report = persistence.NewErrorReport("old")
	dbMock.On("LoadInterview", mock.Anything, "1").Return(itv, nil)

	err := gen.Generate(test.Ctx(t), "1")
	require.Nil(t, err)
	dbMock.AssertNotCalled(t, "SetReport", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerate_LLMFails_SavesErrorMarker(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(newTestInterview(), nil)
	dbMock.On("SetReport", mock.Anything, "1", mock.Anything).Return(nil)
	llmMock.On("Generate", mock.Anything, mock.Anything).Return("", fmt.Errorf("olia err"))

	err := gen.Generate(test.Ctx(t), "1")
	require.Nil(t, err)
	rep := dbMock.Calls[1].Arguments[2].(*persistence.ReportData)
	assert.Contains(t, rep.Error, "olia err")
	dbMock.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerate_BadJSON_SavesErrorMarker(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(newTestInterview(), nil)
	dbMock.On("SetReport", mock.Anything, "1", mock.Anything).Return(nil)
	llmMock.On("Generate", mock.Anything, mock.Anything).Return("no json here", nil)

	err := gen.Generate(test.Ctx(t), "1")
	require.Nil(t, err)
	rep := dbMock.Calls[1].Arguments[2].(*persistence.ReportData)
	assert.NotEmpty(t, rep.Error)
}

func TestGenerate_NoInterview(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(nil, nil)

	err := gen.Generate(test.Ctx(t), "1")
	assert.NotNil(t, err)
}

func Test_parseReport(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		wantErr bool
	}{
		{name: "plain", args: llmOK},
		{name: "fenced", args: "```json\n" + llmOK + "\n```"},
		{name: "prose", args: "Here is the evaluation: " + llmOK + " Thanks!"},
		{name: "no object", args: "olia", wantErr: true},
		{name: "empty", args: "", wantErr: true},
		{name: "broken", args: `{"overall_score": }`, wantErr: true},
		{name: "empty fields", args: `{"overall_score": 5}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReport(tt.args)
			if tt.wantErr {
				assert.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, "Hire", got.Recommendation)
		})
	}
}
