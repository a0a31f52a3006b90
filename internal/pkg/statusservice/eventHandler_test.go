package statusservice

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
)

var (
	dbMock         *mocks.DB
	handlerEHMMock *mockWSConnHandler
	hndData        *HandlerData
	connMock       *mockWSConn
)

func initHandlerTest(t *testing.T) {
	dbMock = &mocks.DB{}
	handlerEHMMock = &mockWSConnHandler{}
	connMock = &mockWSConn{}
	hndData = &HandlerData{DB: dbMock, GueClient: &gue.Client{}, WorkerCount: 10, WSHandler: handlerEHMMock}
	handlerEHMMock.On("GetConnections", mock.Anything).Return([]WsConn{connMock}, true)
	dbMock.On("LoadInterview", mock.Anything, mock.Anything).Return(&persistence.Interview{ID: "1",
		Status: status.InProgress.String(),
		Responses: persistence.NewResponses([]persistence.Response{
			{Question: "Q1?", RecordingURL: "http://rec/1"}})}, nil)
	connMock.On("WriteJSON", mock.Anything).Return(nil)
}

func Test_handleStatus(t *testing.T) {
	initHandlerTest(t)
	err := handleStatus(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, hndData)
	assert.Nil(t, err)
	require.Equal(t, 1, len(connMock.Calls))
	assert.Equal(t, &event{ID: "1", Status: "in_progress", Answered: 1}, connMock.Calls[0].Arguments[0])
}

func Test_handleStatus_ReportReady(t *testing.T) {
	initHandlerTest(t)
	dbMock.ExpectedCalls = nil
	dbMock.On("LoadInterview", mock.Anything, mock.Anything).Return(&persistence.Interview{ID: "1",
		Status: status.ReportReady.String(),
		Report: &persistence.ReportData{Version: persistence.PayloadVersion, Report: &persistence.Report{}}}, nil)
	err := handleStatus(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, hndData)
	assert.Nil(t, err)
	require.Equal(t, 1, len(connMock.Calls))
	assert.Equal(t, &event{ID: "1", Status: "report_ready", ReportReady: true}, connMock.Calls[0].Arguments[0])
}

func Test_handleStatus_NoConn(t *testing.T) {
	initHandlerTest(t)
	handlerEHMMock.ExpectedCalls = nil
	handlerEHMMock.On("GetConnections", mock.Anything).Return([]WsConn{}, false)
	err := handleStatus(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, hndData)
	assert.Nil(t, err)
	require.Equal(t, 0, len(connMock.Calls))
}

func Test_handleStatus_NoInterview(t *testing.T) {
	initHandlerTest(t)
	dbMock.ExpectedCalls = nil
	dbMock.On("LoadInterview", mock.Anything, mock.Anything).Return(nil, nil)
	err := handleStatus(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, hndData)
	assert.NotNil(t, err)
}

func Test_handleStatus_WriteFails(t *testing.T) {
	initHandlerTest(t)
	connMock.ExpectedCalls = nil
	connMock.On("WriteJSON", mock.Anything).Return(fmt.Errorf("olia err"))
	err := handleStatus(test.Ctx(t), &messages.InterviewMessage{QueueMessage: amessages.QueueMessage{ID: "1"}}, hndData)
	assert.Nil(t, err)
}

func Test_validateHandler(t *testing.T) {
	initHandlerTest(t)
	assert.Nil(t, validateHandler(hndData))
	hndData.WSHandler = nil
	assert.NotNil(t, validateHandler(hndData))
}

type mockWSConnHandler struct{ mock.Mock }

func (m *mockWSConnHandler) HandleConnection(conn WsConn) error {
	args := m.Called(conn)
	return args.Error(0)
}

func (m *mockWSConnHandler) GetConnections(id string) ([]WsConn, bool) {
	args := m.Called(id)
	return args.Get(0).([]WsConn), args.Bool(1)
}

type mockWSConn struct{ mock.Mock }

func (m *mockWSConn) ReadMessage() (messageType int, p []byte, err error) {
	args := m.Called()
	return args.Int(0), args.Get(1).([]byte), args.Error(2)
}

func (m *mockWSConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockWSConn) WriteJSON(v interface{}) error {
	args := m.Called(v)
	return args.Error(0)
}
