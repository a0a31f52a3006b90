package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airenas/async-api/pkg/miniofs"
	"github.com/airenas/go-app/pkg/goapp"
	capi "github.com/hashicorp/consul/api"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
	"github.com/vgarvardt/gue/v5"
	"github.com/vgarvardt/gue/v5/adapter/pgxv5"

	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/consul"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/llm"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/postgres"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/report"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/telephony"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/transcriber"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/utils"
	"github.com/Venumurala91/ai-voice-interview-bot/internal/pkg/worker"
)

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	data := &worker.ServiceData{}
	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}

	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	data.GueClient, err = gue.NewClient(pgxv5.NewConnPool(dbPool))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}
	data.WorkerCount = cfg.GetInt("worker.count")
	data.Testing = cfg.GetBool("worker.testing")
	data.WebhookURL = cfg.GetString("webhook.url")
	data.MsgSender, err = postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}
	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	data.DB = db

	data.Caller, err = telephony.NewClient(cfg.GetString("telephony.callUrl"),
		cfg.GetString("telephony.authId"), cfg.GetString("telephony.authToken"), cfg.GetString("telephony.from"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init telephony client")
	}

	ctx, cancelFunc := context.WithCancel(ctx)

	filer, err := miniofs.NewFiler(ctx, miniofs.Options{Bucket: cfg.GetString("filer.bucket"),
		URL: cfg.GetString("filer.url"), User: cfg.GetString("filer.user"), Key: cfg.GetString("filer.key")})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init filer")
	}

	sttProvider, err := newSTTProvider(ctx, cfg.GetString("stt.url"), cfg.GetString("consul.url"),
		cfg.GetString("consul.service"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init stt provider")
	}
	trService, err := transcriber.NewService(sttProvider, filer)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init transcriber service")
	}

	llmClient, err := llm.NewClient(ctx, cfg.GetString("gemini.key"), cfg.GetString("gemini.model"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init llm client")
	}
	data.Reporter, err = report.NewGenerator(db, trService, llmClient, data.MsgSender)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init report generator")
	}

	printBanner()

	go utils.RunPerfEndpoint()

	doneCh, err := worker.StartWorkerService(ctx, data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start worker service")
	}
	/////////////////////// Waiting for terminate
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-waitCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-doneCh:
		goapp.Log.Info().Msg("Service exit")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

func newSTTProvider(ctx context.Context, sttURL, consulURL, consulService string) (transcriber.Provider, error) {
	if consulURL != "" {
		cfg := capi.DefaultConfig()
		cfg.Address = consulURL
		prv, err := consul.NewProvider(cfg, consulService)
		if err != nil {
			return nil, err
		}
		if _, err := prv.StartRegistryLoop(ctx, time.Second*10); err != nil {
			return nil, err
		}
		return prv, nil
	}
	cl, err := transcriber.NewClient(sttURL)
	if err != nil {
		return nil, err
	}
	return transcriber.NewFixedProvider(cl, sttURL), nil
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

                      __
 _      ______  _____/ /_____  _____
| | /| / / __ \/ ___/ //_/ _ \/ ___/
| |/ |/ / /_/ / /  / ,< /  __/ /
|__/|__/\____/_/  /_/|_|\___/_/

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/Venumurala91/ai-voice-interview-bot"))
}
