package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/tibiantis-tools/deathwatch/internal/channel"
	"github.com/tibiantis-tools/deathwatch/internal/config"
	"github.com/tibiantis-tools/deathwatch/internal/logging"
	"github.com/tibiantis-tools/deathwatch/internal/report"
	"github.com/tibiantis-tools/deathwatch/internal/repository"
	"github.com/tibiantis-tools/deathwatch/internal/scraper"
	"github.com/tibiantis-tools/deathwatch/internal/service"
)

// app bundles the wired collaborators of a command invocation.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	repo    repository.Repository
	scraper *scraper.Client
	svc     *service.Service
	killsCh channel.Channel
	cleanup []func()
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func newLogger(cfg *config.Config) *logging.Logger {
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("deathwatch"))
	logging.SetDefault(logger)
	return logger
}

// buildApp wires repository, scraper, channels and the application
// service from config. With migrateDB set the schema is brought up to
// date first.
func buildApp(ctx context.Context, migrateDB bool) (*app, error) {
	log := newLogger(cfg)
	a := &app{cfg: cfg, log: log}

	connString := cfg.Database.ConnString()
	if migrateDB {
		if err := runMigrations(connString, log); err != nil {
			return nil, err
		}
	}

	repo, err := repository.NewPostgresRepository(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.repo = repo
	a.cleanup = append(a.cleanup, repo.Close)

	var opts []scraper.Option
	if cfg.Cache.Enabled {
		cache, err := scraper.NewRedisPageCache(cfg.Cache.URL, cfg.Cache.TTL, log)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to page cache: %w", err)
		}
		a.cleanup = append(a.cleanup, func() { cache.Close() })
		opts = append(opts, scraper.WithPageCache(cache))
	}
	a.scraper = scraper.NewClient(cfg.Scraper.BaseURL, cfg.Scraper.InfoBaseURL, cfg.Scraper.Timeout, log, opts...)

	killsCh, enemyCh := buildChannels(cfg, log)
	a.killsCh = killsCh

	a.svc = service.NewService(
		a.repo,
		a.scraper,
		report.NewPublisher(killsCh, log),
		report.NewPublisher(enemyCh, log),
		service.Config{
			Window:   cfg.Tracker.Window,
			MinLevel: cfg.Tracker.MinLevel,
		},
		log,
	)
	return a, nil
}

// buildChannels picks the notification channels: Discord when a token
// and channel ids are configured, a plain webhook when only a webhook
// URL is set, otherwise the log channel. Kills and roster may target
// different Discord channels; a webhook carries both reports and
// delivers append-only.
func buildChannels(cfg *config.Config, log *logging.Logger) (kills, enemies channel.Channel) {
	if cfg.Discord.Token != "" && cfg.Discord.KillsChannelID != "" {
		kills = channel.NewDiscordChannel(cfg.Discord.Token, cfg.Discord.KillsChannelID, cfg.Scraper.Timeout)
		if cfg.Discord.EnemyChannelID != "" && cfg.Discord.EnemyChannelID != cfg.Discord.KillsChannelID {
			enemies = channel.NewDiscordChannel(cfg.Discord.Token, cfg.Discord.EnemyChannelID, cfg.Scraper.Timeout)
		} else {
			enemies = kills
		}
		return kills, enemies
	}

	if cfg.Webhook.URL != "" {
		log.Info("discord not configured, reports go to the webhook channel")
		hook := channel.NewWebhookChannel(cfg.Webhook.URL, cfg.Webhook.Timeout)
		return hook, hook
	}

	log.Warn("no notification channel configured, reports go to the log channel")
	logCh := channel.NewLogChannel(log)
	return logCh, logCh
}

func runMigrations(connString string, log *logging.Logger) error {
	log.Info("running database migrations")
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		return fmt.Errorf("initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Warn("could not read migration version", logging.Error(err))
		return nil
	}
	log.Info("database migration complete", "version", version, "dirty", dirty)
	return nil
}
