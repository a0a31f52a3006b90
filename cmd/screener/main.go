package main

import (
	"context"
	"time"

	"github.com/airenas/async-api/pkg/miniofs"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
	"github.com/vgarvardt/gue/v5"
	"github.com/vgarvardt/gue/v5/adapter/pgxv5"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/llm"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/orchestrator"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/postgres"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/progress"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/questions"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/statusservice"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/utils"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/webservice"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	data := &webservice.Data{}
	data.Port = cfg.GetInt("port")
	var err error

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	addDBLog(dbConfig)

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	data.DB = db

	data.MsgSender, err = postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}

	llmClient, err := llm.NewClient(ctx, cfg.GetString("gemini.key"), cfg.GetString("gemini.model"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init llm client")
	}
	data.Questions, err = questions.NewGenerator(llmClient)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init question generator")
	}

	cache := progress.NewCache(cfg.GetDuration("cache.ttl"))
	cache.StartSweep(ctx, time.Minute)
	data.Cache = cache

	data.Flow, err = orchestrator.NewService(db, cache, data.MsgSender, cfg.GetString("webhook.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init orchestrator")
	}

	data.Reader, err = miniofs.NewFiler(ctx, miniofs.Options{Bucket: cfg.GetString("filer.bucket"),
		URL: cfg.GetString("filer.url"), User: cfg.GetString("filer.user"), Key: cfg.GetString("filer.key")})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init file reader")
	}

	data.WSHandler = statusservice.NewWSConnKeeper()

	gueClient, err := gue.NewClient(pgxv5.NewConnPool(dbPool))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}
	_, err = statusservice.StartStatusHandler(ctx, &statusservice.HandlerData{
		GueClient: gueClient, WorkerCount: 1, DB: db, WSHandler: data.WSHandler})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start status handler")
	}

	go utils.RunPerfEndpoint()

	err = webservice.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
}

func addDBLog(dbConfig *pgxpool.Config) {
	logFunc := goapp.Log.Info().Msg
	dbConfig.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
		logFunc("before connect")
		return nil
	}
	dbConfig.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		logFunc("after connect")
		return nil
	}
	dbConfig.BeforeAcquire = func(ctx context.Context, c *pgx.Conn) bool {
		logFunc("before acquire")
		return true
	}
	dbConfig.AfterRelease = func(c *pgx.Conn) bool {
		logFunc("after release")
		return true
	}
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
   _____ __________  ______________   __
  / ___// ____/ __ \/ ____/ ____/ | / /
  \__ \/ /   / /_/ / __/ / __/ /  |/ /
 ___/ / /___/ _, _/ /___/ /___/ /|  /
/____/\____/_/ |_/_____/_____/_/ |_/   v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/Venumurala91/ai-voice-interview-bot"))
}
