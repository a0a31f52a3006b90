package webservice

import (
	"context"
	"io"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	amessages "github.com/airenas/async-api/pkg/messages"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/api"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/messages"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/persistence"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/progress"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/status"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/statusservice"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/utils"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DB provides persistence functionality
type DB interface {
	InsertInterview(ctx context.Context, itv *persistence.Interview) error
	LoadInterview(ctx context.Context, id string) (*persistence.Interview, error)
	ListInterviews(ctx context.Context) ([]*persistence.Interview, error)
	SetQuestions(ctx context.Context, id string, q persistence.Questions) error
	UpdateStatus(ctx context.Context, id string, version int32, status string) error
	Live(ctx context.Context) error
}

// QuestionMaker prepares interview questions
type QuestionMaker interface {
	Generate(ctx context.Context, position, description string, skills []string) []string
}

// Cache holds per-call progress cursors
type Cache interface {
	Set(id string, cur progress.Cursor)
}

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// Orchestrator turns telephony events into voice directives
type Orchestrator interface {
	Answer(ctx context.Context, id string) string
	Record(ctx context.Context, id, recordingURL string) string
	Hangup(ctx context.Context, id, cause string) error
}

// FileReader loads file by name
type FileReader interface {
	LoadFile(ctx context.Context, name string) (io.ReadSeekCloser, error)
}

// Data keeps data required for service work
type Data struct {
	Port      int
	DB        DB
	Questions QuestionMaker
	Cache     Cache
	MsgSender MsgSender
	Flow      Orchestrator
	Reader    FileReader
	WSHandler statusservice.WSConnHandler
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP screening service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 60 * time.Second
	e.Server.WriteTimeout = 60 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.DB == nil {
		return errors.New("no DB")
	}
	if data.Questions == nil {
		return errors.New("no question maker")
	}
	if data.Cache == nil {
		return errors.New("no cache")
	}
	if data.MsgSender == nil {
		return errors.New("no msg sender")
	}
	if data.Flow == nil {
		return errors.New("no call orchestrator")
	}
	if data.Reader == nil {
		return errors.New("no file reader")
	}
	if data.WSHandler == nil {
		return errors.New("no WSHandler")
	}
	return nil
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("screen", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.POST("/api/interviews/create", create(data))
	e.POST("/api/interviews/:id/call", call(data))
	e.GET("/api/interviews", list(data))
	e.GET("/api/interviews/:id", get(data))
	e.POST("/voice/answer/:id", answer(data))
	e.POST("/voice/process-response/:id", processResponse(data))
	e.POST("/voice/hangup/:id", hangup(data))
	e.GET("/audio/:id/:turn", downloadAudio(data))
	e.GET("/subscribe", subscribe(data))
	e.GET("/live", live(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		if err := data.DB.Live(c.Request().Context()); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusServiceUnavailable, "not live")
		}
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func create(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("create method")()
		ctx := c.Request().Context()

		var req api.CreateRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "can't decode request")
		}
		if err := validateCreate(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		itv := &persistence.Interview{ID: uuid.New().String(),
			CandidateName: req.CandidateName, CandidatePhone: req.CandidatePhone,
			JobPosition: req.JobPosition, JobDescription: req.JobDescription,
			NotifyEmail: utils.ToSQLStr(req.NotifyEmail),
			Questions:   persistence.NewQuestions([]string{}),
			Responses:   persistence.NewResponses([]persistence.Response{}),
			Status:      status.Created.String(), Created: time.Now()}
		if err := data.DB.InsertInterview(ctx, itv); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		if err := data.DB.UpdateStatus(ctx, itv.ID, 0, status.GeneratingQuestions.String()); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}

		qs := data.Questions.Generate(ctx, req.JobPosition, req.JobDescription, req.SkillsToAssess)
		if err := data.DB.SetQuestions(ctx, itv.ID, persistence.NewQuestions(qs)); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		if err := data.DB.UpdateStatus(ctx, itv.ID, 1, status.ReadyToCall.String()); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		data.Cache.Set(itv.ID, progress.Cursor{Questions: qs})

		if err := data.MsgSender.SendMessage(ctx, &messages.InterviewMessage{
			QueueMessage: amessages.QueueMessage{ID: itv.ID}}, messages.Dispatch); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}

		itv.Status = status.ReadyToCall.String()
		itv.Questions = persistence.NewQuestions(qs)
		return c.JSON(http.StatusOK, api.MapInterview(itv))
	}
}

func validateCreate(req *api.CreateRequest) error {
	if req.CandidateName == "" {
		return errors.New("no candidate name")
	}
	if req.CandidatePhone == "" {
		return errors.New("no candidate phone")
	}
	if req.JobPosition == "" {
		return errors.New("no job position")
	}
	if req.JobDescription == "" {
		return errors.New("no job description")
	}
	return nil
}

func call(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("call method")()
		ctx := c.Request().Context()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		itv, err := data.DB.LoadInterview(ctx, id)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		if itv == nil {
			return echo.NewHTTPError(http.StatusNotFound, "no interview")
		}
		if !callable(status.From(itv.Status)) {
			return echo.NewHTTPError(http.StatusConflict, "can't start call in status "+itv.Status)
		}
		if err := data.MsgSender.SendMessage(ctx, &messages.InterviewMessage{
			QueueMessage: amessages.QueueMessage{ID: id}}, messages.Dispatch); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, api.MapInterview(itv))
	}
}

// callable allows the first dispatch and retries after an unanswered call
func callable(st status.Status) bool {
	return st == status.ReadyToCall || st == status.CallFailed || st == status.NoAnswer || st == status.Busy
}

func list(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("list method")()

		itvs, err := data.DB.ListInterviews(c.Request().Context())
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		res := make([]*api.Interview, 0, len(itvs))
		for _, itv := range itvs {
			res = append(res, api.MapInterview(itv))
		}
		return c.JSON(http.StatusOK, res)
	}
}

func get(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("get method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		itv, err := data.DB.LoadInterview(c.Request().Context(), id)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		if itv == nil {
			return echo.NewHTTPError(http.StatusNotFound, "no interview")
		}
		return c.JSON(http.StatusOK, api.MapInterview(itv))
	}
}

func answer(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("answer method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		res := data.Flow.Answer(c.Request().Context(), id)
		return c.Blob(http.StatusOK, "application/xml", []byte(res))
	}
}

func processResponse(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("processResponse method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		recordingURL := c.FormValue(api.PrmRecordingURL)
		res := data.Flow.Record(c.Request().Context(), id, recordingURL)
		return c.Blob(http.StatusOK, "application/xml", []byte(res))
	}
}

func hangup(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("hangup method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		cause := c.FormValue(api.PrmCallStatus)
		if err := data.Flow.Hangup(c.Request().Context(), id, cause); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		return c.NoContent(http.StatusOK)
	}
}

func downloadAudio(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("downloadAudio method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		turn := c.Param("turn")
		if _, err := strconv.Atoi(turn); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Wrong turn")
		}
		fullName, err := url.JoinPath(id, "answer-"+turn+".mp3")
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "Wrong name")
		}
		return serveFile(c, data, fullName)
	}
}

func serveFile(c echo.Context, data *Data, name string) error {
	goapp.Log.Info().Str("file", name).Msg("loading")
	file, err := data.Reader.LoadFile(c.Request().Context(), name)
	if err != nil {
		if isNotFound(err) {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		goapp.Log.Error().Err(err).Send()
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file")
	}
	defer file.Close()
	stGetter, ok := file.(interface{ Stat() (fs.FileInfo, error) })
	if !ok {
		goapp.Log.Error().Msg(`file does implement "interface{ Stat() (fs.FileInfo, error)"`)
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file stat")
	}
	stat, err := stGetter.Stat()
	if err != nil {
		if isNotFound(err) {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		goapp.Log.Error().Err(err).Send()
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file stat")
	}

	w := c.Response()
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(stat.Name()))
	http.ServeContent(w, c.Request(), stat.Name(), stat.ModTime(), file)
	return nil
}

func isNotFound(err error) bool {
	var errTest minio.ErrorResponse
	return errors.As(err, &errTest) && errTest.StatusCode == http.StatusNotFound
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

func subscribe(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return err
		}
		defer ws.Close()

		return data.WSHandler.HandleConnection(ws)
	}
}
