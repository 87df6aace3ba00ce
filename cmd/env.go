package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/pathwise/internal/config"
	"github.com/abhisek/pathwise/internal/engine"
	"github.com/abhisek/pathwise/internal/llm"
	"github.com/abhisek/pathwise/internal/lock"
	"github.com/abhisek/pathwise/internal/logging"
	"github.com/abhisek/pathwise/internal/metrics"
	"github.com/abhisek/pathwise/internal/notify"
	"github.com/abhisek/pathwise/internal/planner"
	"github.com/abhisek/pathwise/internal/store"
)

// env is everything a command needs, built from configuration.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	metrics *metrics.Metrics
	engine  *engine.Engine

	closers []func()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(config.Options{File: file, EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Database.Path = p
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db or config (highest
// priority), then PATHWISE_DB, then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if p := cfg.Database.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens only the database, for commands that need nothing else.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	return store.Open(dbPath)
}

// openEnv builds the full engine: store, planner, notifier and locker.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger}
	e.closers = append(e.closers, func() { _ = logger.Sync() })

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	if e.store, err = store.Open(dbPath); err != nil {
		e.Close()
		return nil, err
	}
	e.closers = append(e.closers, func() { e.store.Close() })

	if e.metrics, err = metrics.New(nil); err != nil {
		e.Close()
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	var provider llm.Provider
	if cfg.LLM.Provider != llm.ProviderNone {
		provider, err = llm.NewProvider(cmd.Context(), cfg.LLM, e.store.EventRepo(), logger.Named("llm"))
		if err != nil {
			if !errors.Is(err, llm.ErrNotConfigured) {
				e.Close()
				return nil, err
			}
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "Sprints will be planned heuristically.")
			provider = nil
		}
	}

	notifiers := notify.Multi{notify.NewLogNotifier(logger.Named("notify"))}
	if cfg.Notify.AMQPURL != "" {
		pub, err := notify.DialAMQP(cfg.Notify.AMQPURL, cfg.Notify.Exchange)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.closers = append(e.closers, func() { pub.Close() })
		notifiers = append(notifiers, pub)
	}

	var locker lock.Locker
	if cfg.Lock.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Lock.RedisAddr,
			Password: cfg.Lock.RedisPassword,
			DB:       cfg.Lock.RedisDB,
		})
		e.closers = append(e.closers, func() { client.Close() })
		locker = lock.NewRedisLocker(client, cfg.Lock.TTL, logger.Named("lock"))
	}

	e.engine = engine.New(e.store, engine.Options{
		Planner:  planner.New(provider, cfg.Planner, e.metrics, logger.Named("planner")),
		Locker:   locker,
		Notifier: notifiers,
		Metrics:  e.metrics,
		Logger:   logger,
	})
	return e, nil
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}
