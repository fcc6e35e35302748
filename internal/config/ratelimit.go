package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

// RateLimitConfig configures the inbound sliding window limiter for a route group
type RateLimitConfig struct {
	Enabled bool
	MaxHits int
	Window  time.Duration
}

func GetRateLimitConfig(key string) RateLimitConfig {
	enabled := GetEnvOrDefault("RATELIMIT_ENABLED", "false") == "true"

	configs := map[string]RateLimitConfig{
		"global": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_GLOBAL", 1000), // 1000 requests per minute globally
			Window:  time.Minute,
		},
		"assistant": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_ASSISTANT", 60), // 60 prompts per minute
			Window:  time.Minute,
		},
		"git": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_GIT", 120),
			Window:  time.Minute,
		},
		"runner": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_RUNNER", 30),
			Window:  time.Minute,
		},
		"search": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_SEARCH", 300),
			Window:  time.Minute,
		},
	}

	if config, exists := configs[key]; exists {
		return config
	}

	log.Warn().Str("key", key).Msg("No rate limit config found")
	return RateLimitConfig{Enabled: false}
}

// ThrottleConfig configures the token bucket gating outbound AI requests
type ThrottleConfig struct {
	Capacity   int
	RefillRate float64 // tokens per second
}

func GetThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		Capacity:   parseEnvInt("AI_THROTTLE_CAPACITY", 50),
		RefillRate: parseEnvFloat("AI_THROTTLE_REFILL_RATE", 10),
	}
}
