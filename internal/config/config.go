// Package config loads pathwise settings from a YAML file, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/pathwise/internal/llm"
	"github.com/abhisek/pathwise/internal/logging"
	"github.com/abhisek/pathwise/internal/planner"
)

// EnvPrefix prefixes every environment override, e.g. PATHWISE_DATABASE_PATH.
const EnvPrefix = "PATHWISE"

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       logging.Config  `mapstructure:"log"`
	LLM       llm.Config      `mapstructure:"llm"`
	Planner   planner.Config  `mapstructure:"planner"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Lock      LockConfig      `mapstructure:"lock"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type DatabaseConfig struct {
	// Path is the SQLite file. Empty resolves to the XDG data dir.
	Path string `mapstructure:"path"`
}

type SchedulerConfig struct {
	BufferInterval time.Duration `mapstructure:"buffer_interval"`
}

type NotifyConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

type LockConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
	ServiceName       string `mapstructure:"service_name"`
}

// Options tells Load where to look.
type Options struct {
	// File is an explicit config file. When empty, pathwise.yaml is searched
	// in the working directory and ~/.config/pathwise; absence is not an error.
	File string
	// EnvFile is an explicit dotenv file. When empty, ./.env is loaded if present.
	EnvFile string
}

// Load merges defaults, the config file, .env and PATHWISE_* variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional provider key variables are honored as fallbacks.
	_ = v.BindEnv("llm.anthropic.api_key", "PATHWISE_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("llm.openai.api_key", "PATHWISE_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.gemini.api_key", "PATHWISE_LLM_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("llm.openrouter.api_key", "PATHWISE_LLM_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("pathwise")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pathwise")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	llmDefaults := llm.DefaultConfig()
	plannerDefaults := planner.DefaultConfig()

	v.SetDefault("database.path", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("llm.provider", llmDefaults.Provider)
	v.SetDefault("llm.timeout", llmDefaults.Timeout)
	v.SetDefault("llm.requests_per_second", llmDefaults.RequestsPerSecond)
	v.SetDefault("llm.burst", llmDefaults.Burst)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", llmDefaults.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", llmDefaults.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", llmDefaults.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", llmDefaults.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.retry.max_attempts", llmDefaults.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", llmDefaults.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", llmDefaults.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", llmDefaults.Retry.Multiplier)

	v.SetDefault("planner.timeout", plannerDefaults.Timeout)
	v.SetDefault("planner.max_tokens", plannerDefaults.MaxTokens)
	v.SetDefault("planner.temperature", plannerDefaults.Temperature)
	v.SetDefault("planner.heuristic", false)

	v.SetDefault("scheduler.buffer_interval", 15*time.Minute)

	v.SetDefault("notify.amqp_url", "")
	v.SetDefault("notify.exchange", "pathwise.events")

	v.SetDefault("lock.redis_addr", "")
	v.SetDefault("lock.redis_password", "")
	v.SetDefault("lock.redis_db", 0)
	v.SetDefault("lock.ttl", 2*time.Minute)

	v.SetDefault("metrics.addr", ":9464")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.collector_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.service_name", "pathwise")
}
