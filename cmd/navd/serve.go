package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/chatnav/chatnav/internal/album"
	"github.com/chatnav/chatnav/internal/config"
	"github.com/chatnav/chatnav/internal/db"
	"github.com/chatnav/chatnav/internal/decision"
	"github.com/chatnav/chatnav/internal/execute"
	"github.com/chatnav/chatnav/internal/extras"
	"github.com/chatnav/chatnav/internal/gateway"
	"github.com/chatnav/chatnav/internal/gateway/telegram"
	"github.com/chatnav/chatnav/internal/inline"
	"github.com/chatnav/chatnav/internal/lock"
	"github.com/chatnav/chatnav/internal/logger"
	"github.com/chatnav/chatnav/internal/nav"
	"github.com/chatnav/chatnav/internal/navigator"
	"github.com/chatnav/chatnav/internal/planner"
	"github.com/chatnav/chatnav/internal/store"
	storepg "github.com/chatnav/chatnav/internal/store/pg"
	"github.com/chatnav/chatnav/internal/views"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the navigation bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		fx.New(
			fx.Provide(
				provideConfig,
				provideLogger,
				provideDBConn,
				provideBot,
				provideGateway,
				provideStores,
				provideLocks,
				provideLedger,
				extras.NewSanitizer,
				provideExecutor,
				provideInline,
				providePlanner,
				views.NewRestorer,
				provideNavigator,
			),
			fx.Invoke(startBot),
			fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
				return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
			}),
		).Run()
		return nil
	},
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Redaction)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideBot(cfg config.Config) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	return bot, nil
}

func provideGateway(log *slog.Logger, cfg config.Config, bot *tgbotapi.BotAPI) gateway.Gateway {
	return telegram.New(log, bot, telegram.Config{
		Chunk:       cfg.Render.Chunk,
		DeleteDelay: time.Duration(cfg.Render.DeleteDelayMS) * time.Millisecond,
	})
}

func provideStores(log *slog.Logger, pool *pgxpool.Pool) store.Provider {
	return storepg.NewProvider(log, pool)
}

func provideLocks(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (lock.Provider, error) {
	if cfg.Locks.Provider != "redis" {
		return lock.NewMemoryProvider(), nil
	}
	ttl, err := time.ParseDuration(cfg.Locks.TTL)
	if err != nil {
		return nil, fmt.Errorf("lock ttl: %w", err)
	}
	acquire, err := time.ParseDuration(cfg.Locks.AcquireTimeout)
	if err != nil {
		return nil, fmt.Errorf("lock acquire timeout: %w", err)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return lock.NewRedisProvider(client, ttl, acquire), nil
}

func provideExecutor(log *slog.Logger, gw gateway.Gateway, san *extras.Sanitizer, cfg config.Config) *execute.Executor {
	return execute.New(log, gw, san, execute.Config{
		TextLimit:    cfg.Render.TextLimit,
		CaptionLimit: cfg.Render.CaptionLimit,
		Truncate:     cfg.Render.Truncate,
		ResendOnIdle: cfg.Render.ResendOnIdle,
		Album:        albumConfig(cfg),
	})
}

func provideInline(log *slog.Logger, cfg config.Config) *inline.Strategy {
	return inline.New(log, cfg.Render.StrictPath)
}

func providePlanner(log *slog.Logger, exec *execute.Executor, inl *inline.Strategy, cfg config.Config) *planner.Planner {
	return planner.New(log, exec, inl, albumConfig(cfg), decision.Config{ThumbGuard: cfg.Render.ThumbGuard})
}

func provideNavigator(log *slog.Logger, stores store.Provider, locks lock.Provider, pl *planner.Planner, restorer *views.Restorer, gw gateway.Gateway, cfg config.Config) *navigator.Service {
	return navigator.NewService(log, stores, locks, pl, restorer, gw, navigator.Config{
		HistoryLimit: cfg.Render.HistoryLimit,
		TailPolicy:   cfg.Render.TailPolicy,
	})
}

func albumConfig(cfg config.Config) album.Config {
	blend := make(map[nav.MediaType]bool, len(cfg.Render.AlbumBlend))
	for _, t := range cfg.Render.AlbumBlend {
		blend[nav.MediaType(t)] = true
	}
	return album.Config{
		Floor:   cfg.Render.AlbumFloor,
		Ceiling: cfg.Render.AlbumCeiling,
		Blend:   blend,
	}
}
