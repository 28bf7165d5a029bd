package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"apostado/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	DiscordToken string
	DataDir      string
	LogLevel     string

	// Channel the bot opens match threads under. Optional; falls back to
	// the channel the queue display lives in.
	MatchParentChannel string

	MaxConcurrentQueues int
	CancellationWindow  time.Duration
	CancellationLimit   int
	PunishmentDuration  time.Duration
	ConfirmationTimeout time.Duration
	MediatorCacheTTL    time.Duration
	SweepInterval       time.Duration

	// Stake values offered per queue display, in whole BRL.
	TierValues []int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DiscordToken:        getEnv("DISCORD_TOKEN", ""),
		DataDir:             getEnv("DATA_DIR", "data"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		MatchParentChannel:  getEnv("MATCH_PARENT_CHANNEL", ""),
		MaxConcurrentQueues: getEnvInt("MAX_CONCURRENT_QUEUES", constants.MaxConcurrentQueues),
		CancellationWindow:  getEnvDuration("CANCELLATION_WINDOW", constants.CancellationWindow),
		CancellationLimit:   getEnvInt("CANCELLATION_LIMIT", constants.CancellationLimit),
		PunishmentDuration:  getEnvDuration("PUNISHMENT_DURATION", constants.PunishmentDuration),
		ConfirmationTimeout: getEnvDuration("CONFIRMATION_TIMEOUT", constants.ConfirmationTimeout),
		MediatorCacheTTL:    getEnvDuration("MEDIATOR_CACHE_TTL", constants.MediatorCacheTTL),
		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", constants.SweepInterval),
		TierValues:          []int{100, 50, 20, 10, 5, 3, 2, 1},
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}

	logger.Info().
		Str("data_dir", cfg.DataDir).
		Str("log_level", cfg.LogLevel).
		Int("max_concurrent_queues", cfg.MaxConcurrentQueues).
		Dur("cancellation_window", cfg.CancellationWindow).
		Dur("punishment_duration", cfg.PunishmentDuration).
		Dur("confirmation_timeout", cfg.ConfirmationTimeout).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
