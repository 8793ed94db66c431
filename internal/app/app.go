// Package app assembles the daemon: configuration, logging, state store,
// extraction runner, Telegram surface, and the metrics endpoint, with
// graceful shutdown on OS signals.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/lrstanley/go-ytdlp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/telegrab/telegrab/internal/bot"
	"github.com/telegrab/telegrab/internal/broadcast"
	"github.com/telegrab/telegrab/internal/config"
	"github.com/telegrab/telegrab/internal/download"
	"github.com/telegrab/telegrab/internal/extract"
	"github.com/telegrab/telegrab/internal/logging"
	"github.com/telegrab/telegrab/internal/metrics"
	"github.com/telegrab/telegrab/internal/platform"
	"github.com/telegrab/telegrab/internal/store"
)

// App holds the wired components of one daemon instance.
type App struct {
	cfg config.Config
	log *zap.Logger
	bot *bot.Bot
}

// New loads configuration, opens the state store, and wires every
// component. It does not start polling; call Run for that.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := logging.New(cfg.LogLevel)

	if err := platform.EnsureDir(cfg.DownloadDir); err != nil {
		return nil, fmt.Errorf("download dir: %w", err)
	}

	st, err := store.Open(cfg.StatePath, cfg.OperatorID, log)
	if err != nil {
		return nil, fmt.Errorf("state store: %w", err)
	}

	// Fetches the yt-dlp binary on first run, no-op afterwards.
	ytdlp.MustInstall(ctx, nil)

	m := metrics.New()

	tgBot, err := buildBot(cfg, st, m, log)
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, log: log, bot: tgBot}, nil
}

func buildBot(cfg config.Config, st *store.Store, m *metrics.Metrics, log *zap.Logger) (*bot.Bot, error) {
	// The router is installed after the API client exists, because the
	// sender needs the client and the update handler needs the router.
	tgBot, err := bot.New(cfg.BotToken, nil, log)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	sender := bot.NewTelegramSender(tgBot.Client())
	runner := extract.NewRunner(extract.YTDLPExtractor{}, cfg.MaxExtractions, cfg.DownloadDir, log)
	orch := download.NewOrchestrator(st, runner, sender, cfg.OperatorID,
		cfg.PayloadCeilingBytes, cfg.ChunkBytes, m, log)
	dispatcher := broadcast.NewDispatcher(sender, cfg.BroadcastWorkers, m, log)

	tgBot.SetRouter(bot.NewRouter(sender, st, orch, dispatcher, log))
	return tgBot, nil
}

func (a *App) initSignalHandler(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigs
		a.log.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}

func (a *App) serveMetrics(ctx context.Context) {
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: promhttp.Handler()}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	a.log.Info("metrics endpoint listening", zap.String("addr", a.cfg.MetricsAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error("metrics endpoint failed", zap.Error(err))
	}
}

// Run polls for updates until an OS signal or context cancellation stops
// the daemon.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.log.Info("starting",
		zap.Int64("operator", a.cfg.OperatorID),
		zap.String("download_dir", a.cfg.DownloadDir))

	a.initSignalHandler(cancel)

	var wg sync.WaitGroup

	if a.cfg.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.serveMetrics(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.bot.Start(ctx)
	}()

	wg.Wait()
	a.log.Info("stopped")
}
