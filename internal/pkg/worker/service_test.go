package worker

import (
	"fmt"
	"testing"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vgarvardt/gue/v5"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/messages"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/persistence"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/status"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/test"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/test/mocks"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/utils"
)

var (
	dbMock       *mocks.DB
	senderMock   *mocks.Sender
	callerMock   *mocks.Caller
	reporterMock *mocks.Reporter
	srvData      *ServiceData
)

func initTest(t *testing.T) {
	dbMock = &mocks.DB{}
	senderMock = &mocks.Sender{}
	callerMock = &mocks.Caller{}
	reporterMock = &mocks.Reporter{}
	srvData = &ServiceData{DB: dbMock, GueClient: &gue.Client{}, WorkerCount: 10, MsgSender: senderMock,
		Caller: callerMock, Reporter: reporterMock, WebhookURL: "http://srv:8000"}
	senderMock.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func newTestInterview(st status.Status) *persistence.Interview {
	return &persistence.Interview{ID: "1", CandidateName: "John", CandidatePhone: "+37060000000",
		NotifyEmail: utils.ToSQLStr("a@a.com"), Status: st.String(), Version: 3}
}

func Test_validate(t *testing.T) {
	initTest(t)
	assert.Nil(t, validate(srvData))
	srvData.Caller = nil
	assert.NotNil(t, validate(srvData))
}

func Test_handleDispatch(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(newTestInterview(status.ReadyToCall), nil)
	dbMock.On("UpdateStatus", mock.Anything, "1", int32(3), status.Ringing.String()).Return(nil)
	callerMock.On("Place", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := handleDispatch(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, srvData)
	require.Nil(t, err)
	require.Equal(t, 1, len(callerMock.Calls))
	assert.Equal(t, "+37060000000", callerMock.Calls[0].Arguments[1])
	assert.Equal(t, "http://srv:8000/voice/answer/1", callerMock.Calls[0].Arguments[2])
	assert.Equal(t, "http://srv:8000/voice/hangup/1", callerMock.Calls[0].Arguments[3])
	dbMock.AssertCalled(t, "UpdateStatus", mock.Anything, "1", int32(3), status.Ringing.String())
	assert.Equal(t, messages.StatusChange, senderMock.Calls[0].Arguments[2])
}

func Test_handleDispatch_SkipFinished(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(newTestInterview(status.ReportReady), nil)

	err := handleDispatch(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, srvData)
	require.Nil(t, err)
	callerMock.AssertNotCalled(t, "Place", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_handleDispatch_NoInterview(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(nil, nil)

	err := handleDispatch(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, srvData)
	assert.NotNil(t, err)
}

func Test_handleDispatch_PlaceFails(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(newTestInterview(status.ReadyToCall), nil)
	callerMock.On("Place", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("olia err"))

	err := handleDispatch(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, srvData)
	assert.NotNil(t, err)
	dbMock.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_handleReport(t *testing.T) {
	initTest(t)
	reporterMock.On("Generate", mock.Anything, "1").Return(nil)

	err := handleReport(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, srvData)
	assert.Nil(t, err)
	reporterMock.AssertCalled(t, "Generate", mock.Anything, "1")
}

func Test_handleReport_Fails(t *testing.T) {
	initTest(t)
	reporterMock.On("Generate", mock.Anything, "1").Return(fmt.Errorf("olia err"))

	err := handleReport(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, srvData)
	assert.NotNil(t, err)
}

func Test_handleFailure_Dispatch(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(newTestInterview(status.Ringing), nil)
	dbMock.On("UpdateStatus", mock.Anything, "1", int32(3), status.CallFailed.String()).Return(nil)

	err := handleFailure(test.Ctx(t), &messages.FailMessage{QueueMessage: amessages.QueueMessage{ID: "1"},
		Source: messages.Dispatch, Error: "olia err"}, srvData)
	require.Nil(t, err)
	dbMock.AssertCalled(t, "UpdateStatus", mock.Anything, "1", int32(3), status.CallFailed.String())
	require.Equal(t, 2, len(senderMock.Calls))
	assert.Equal(t, messages.StatusChange, senderMock.Calls[0].Arguments[2])
	assert.Equal(t, messages.Inform, senderMock.Calls[1].Arguments[2])
	im, ok := senderMock.Calls[1].Arguments[1].(*amessages.InformMessage)
	require.True(t, ok)
	assert.Equal(t, amessages.InformTypeFailed, im.Type)
}

func Test_handleFailure_Dispatch_SkipTerminal(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(newTestInterview(status.Completed), nil)

	err := handleFailure(test.Ctx(t), &messages.FailMessage{QueueMessage: amessages.QueueMessage{ID: "1"},
		Source: messages.Dispatch, Error: "olia err"}, srvData)
	require.Nil(t, err)
	dbMock.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func Test_handleFailure_Report(t *testing.T) {
	initTest(t)
	dbMock.On("LoadInterview", mock.Anything, "1").Return(newTestInterview(status.Completed), nil)
	dbMock.On("SetReport", mock.Anything, "1", mock.Anything).Return(nil)

	err := handleFailure(test.Ctx(t), &messages.FailMessage{QueueMessage: amessages.QueueMessage{ID: "1"},
		Source: messages.Report, Error: "olia err"}, srvData)
	require.Nil(t, err)
	require.Equal(t, 2, len(dbMock.Calls))
	rep := dbMock.Calls[1].Arguments[2].(*persistence.ReportData)
	assert.Equal(t, "olia err", rep.Error)
}

func Test_handleFailure_Report_SkipExisting(t *testing.T) {
	initTest(t)
	itv := newTestInterview(status.ReportReady)
	itv.Report = &persistence.ReportData{Version: persistence.PayloadVersion, Report: &persistence.Report{}}
	dbMock.On("LoadInterview", mock.Anything, "1").Return(itv, nil)

	err := handleFailure(test.Ctx(t), &messages.FailMessage{QueueMessage: amessages.QueueMessage{ID: "1"},
		Source: messages.Report, Error: "olia err"}, srvData)
	require.Nil(t, err)
	dbMock.AssertNotCalled(t, "SetReport", mock.Anything, mock.Anything, mock.Anything)
}

func Test_handleFailure_UnknownSource(t *testing.T) {
	initTest(t)
	err := handleFailure(test.Ctx(t), &messages.FailMessage{QueueMessage: amessages.QueueMessage{ID: "1"},
		Source: "olia"}, srvData)
	assert.Nil(t, err)
}
