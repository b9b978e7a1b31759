package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/app"
	"github.com/devel-adr/medistream/internal/credential"
	"github.com/devel-adr/medistream/internal/events"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/notify"
	"github.com/devel-adr/medistream/internal/notify/desktop"
	"github.com/devel-adr/medistream/internal/obs"
	"github.com/devel-adr/medistream/internal/store"
	"github.com/devel-adr/medistream/internal/store/postgres"
	appsync "github.com/devel-adr/medistream/internal/sync"
	"github.com/devel-adr/medistream/internal/tone"
	"github.com/devel-adr/medistream/internal/tone/otoplayer"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "Path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	log, err := obs.NewLogger(obs.LogConfig{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		File:   cfg.Log.File,
		App:    "medistream",
		Env:    os.Getenv("MEDISTREAM_ENV"),
		Ver:    version,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, err := store.NewSQLiteStore(cfg.Backend.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer local.Close()

	var (
		datasets store.DatasetStore = local
		health   func(context.Context) error
		pg       *postgres.DB
	)
	if cfg.Backend.Driver == model.DriverPostgres {
		dsn, err := credential.Resolve(credential.KeyBackendDSN, cfg.Backend.DSN)
		if err != nil {
			log.Warn("reading backend dsn from keyring", zap.Error(err))
		}
		if dsn == "" {
			return errors.New("backend.dsn is required for the postgres driver")
		}
		pg, err = postgres.New(ctx, postgres.Config{URL: dsn, QueryTimeout: cfg.Backend.QueryTimeout})
		if err != nil {
			return fmt.Errorf("connecting to backend: %w", err)
		}
		defer pg.Close()
		datasets = postgres.NewDatasetRepo(pg)
		health = pg.Ping
	}

	bus := events.New(log.Named("events"))
	defer bus.Close()

	poller := appsync.New(bus, log.Named("sync"),
		appsync.WithCooldown(cfg.Poll.Cooldown),
		appsync.WithFetchTimeout(cfg.Poll.FetchTimeout),
	)
	app.RegisterDatasets(poller, datasets, cfg.Poll)

	if pg != nil && cfg.Backend.ListenChannel != "" {
		l := postgres.NewListener(pg, cfg.Backend.ListenChannel, log.Named("listen"), func(kind model.DatasetKind) {
			poller.Refresh(kind)
		})
		go l.Run(ctx)
	}

	settings, err := notify.LoadSettings(ctx, local, log.Named("settings"))
	if err != nil {
		return err
	}

	// A nil interface, not a nil *tone.Synth, when there is no audio.
	var player notify.TonePlayer
	if out, err := otoplayer.New(tone.DefaultSampleRate); err != nil {
		log.Warn("audio output unavailable, tones disabled", zap.Error(err))
	} else {
		player = tone.NewSynth(out, log.Named("tone"))
	}

	opts := []notify.Option{
		notify.WithHistory(local),
		notify.WithDesktop(desktop.New(cfg.Notifications.Desktop, "")),
		notify.WithSettings(settings),
		notify.WithUserEmail(cfg.User.Email),
	}
	if player != nil {
		opts = append(opts, notify.WithTone(player))
	}
	notifier := notify.New(log.Named("notify"), opts...)
	if err := notifier.LoadHistory(ctx); err != nil {
		log.Warn("notification history not loaded", zap.Error(err))
	}
	defer notifier.Close()
	detach := notifier.Attach(bus)
	defer detach()

	token, err := credential.Resolve(credential.KeyRelayToken, "")
	if err != nil {
		log.Warn("reading relay token from keyring", zap.Error(err))
	}
	wp := app.NewWorkflowPoller(cfg.Workflow, cfg.Poll.Workflows, token, log)
	if wp != nil {
		go func() {
			if err := wp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("workflow poller stopped", zap.Error(err))
			}
		}()
	}

	if cfg.MetricsAddr != "" {
		ms := obs.BootstrapMetricsServer(cfg.MetricsAddr, health, log.Named("metrics"))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = ms.Shutdown(shutdownCtx)
		}()
	}

	log.Info("starting dashboard",
		zap.String("driver", cfg.Backend.Driver),
		zap.Int("workflows", len(cfg.Workflow.WorkflowIDs)),
	)

	p := tea.NewProgram(app.New(app.Deps{
		Datasets:  datasets,
		Prefs:     local,
		Poller:    poller,
		Notifier:  notifier,
		Settings:  settings,
		Tone:      player,
		Workflows: wp,
		Log:       log.Named("ui"),

		Secrets:         credential.Keyring{},
		CheckCredential: app.CredentialChecker(cfg.Workflow),
	}), tea.WithAltScreen(), tea.WithContext(ctx))

	_, err = p.Run()
	poller.Stop()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
