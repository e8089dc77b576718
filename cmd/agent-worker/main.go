package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicops/appointment-agent/internal/agent"
	"github.com/clinicops/appointment-agent/internal/api"
	"github.com/clinicops/appointment-agent/internal/config"
	"github.com/clinicops/appointment-agent/internal/db"
	"github.com/clinicops/appointment-agent/internal/events"
	"github.com/clinicops/appointment-agent/internal/notify"
	"github.com/clinicops/appointment-agent/internal/redisclient"
	"github.com/clinicops/appointment-agent/internal/schema"
	"github.com/clinicops/appointment-agent/internal/store"
)

const version = "0.3.0"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "agent-worker").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	if cfg.Env == "dev" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	log.Info().
		Str("env", cfg.Env).
		Dur("poll_interval", cfg.PollInterval).
		Dur("monitor_interval", cfg.MonitorInterval).
		Msg("agent-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	inspector := schema.NewInspector(pgPool)
	st := store.NewPgStore(pgPool, inspector)
	notifier := notify.NewPgNotifier(pgPool)
	marker := redisclient.NewRedisAlertMarker(rdb, 24*time.Hour)
	queue := events.NewQueue(pgPool)

	ag := agent.New(st, notifier, marker, config.DefaultRules(), log)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.RouterConfig{
			Queue:   queue,
			PgPool:  pgPool,
			Redis:   rdb,
			Env:     cfg.Env,
			Version: version,
			Log:     log,
		}),
	}
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// Drain anything queued while we were down, then settle into the tickers.
	drainQueue(rootCtx, log, cfg, queue, ag)
	runSweep(rootCtx, log, cfg, ag)

	pollTicker := time.NewTicker(cfg.PollInterval)
	defer pollTicker.Stop()
	monitorTicker := time.NewTicker(cfg.MonitorInterval)
	defer monitorTicker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("http shutdown error")
			}
			cancel()
			return
		case <-pollTicker.C:
			drainQueue(rootCtx, log, cfg, queue, ag)
		case <-monitorTicker.C:
			runSweep(rootCtx, log, cfg, ag)
		}
	}
}

// drainQueue dispatches pending events in id order. Handler errors are
// logged and the event is still marked processed: every handler is already
// best-effort internally, and replaying a failed lifecycle event would not
// make its appointment row reappear.
func drainQueue(ctx context.Context, log zerolog.Logger, cfg config.Config, queue *events.Queue, ag *agent.Agent) {
	fetchCtx, cancel := context.WithTimeout(ctx, cfg.HandlerTimeout)
	pending, err := queue.FetchPending(fetchCtx, cfg.EventBatch)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("fetch pending events failed")
		return
	}

	for _, ev := range pending {
		if ctx.Err() != nil {
			return
		}

		var payload agent.Payload
		if len(ev.Payload) > 0 {
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				log.Warn().Err(err).Int64("event_id", ev.ID).Msg("malformed event payload")
			}
		}

		evCtx, cancel := context.WithTimeout(ctx, cfg.HandlerTimeout)
		if err := ag.Handle(evCtx, ev.Type, ev.ID, payload); err != nil {
			log.Error().Err(err).Int64("event_id", ev.ID).Str("event_type", ev.Type).Msg("event handler failed")
		}
		if err := queue.MarkProcessed(evCtx, ev.ID); err != nil {
			log.Error().Err(err).Int64("event_id", ev.ID).Msg("mark processed failed")
		}
		cancel()
	}

	if n := len(pending); n > 0 {
		log.Info().Int("events", n).Msg("queue drained")
	}
}

func runSweep(ctx context.Context, log zerolog.Logger, cfg config.Config, ag *agent.Agent) {
	runCtx, cancel := context.WithTimeout(ctx, cfg.HandlerTimeout)
	defer cancel()

	start := time.Now()
	if err := ag.MonitorSweep(runCtx); err != nil {
		log.Error().Err(err).Msg("monitor sweep error")
		return
	}
	log.Info().Dur("took", time.Since(start)).Msg("monitor sweep complete")
}
