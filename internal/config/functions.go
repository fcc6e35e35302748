package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

// FunctionsConfig configures the client of the hosted serverless functions
type FunctionsConfig struct {
	URL        string
	ServiceKey string
	RatePerSec float64
	Burst      int
	Timeout    time.Duration
}

func GetFunctionsConfig() FunctionsConfig {
	url := GetEnvOrDefault("FUNCTIONS_URL", "")
	if url == "" {
		log.Warn().Msg("FUNCTIONS_URL environment variable not set")
	}

	return FunctionsConfig{
		URL:        url,
		ServiceKey: GetEnvOrDefault("FUNCTIONS_SERVICE_KEY", ""),
		RatePerSec: parseEnvFloat("FUNCTIONS_RATE", 5),
		Burst:      parseEnvInt("FUNCTIONS_BURST", 10),
		Timeout:    parseEnvDuration("FUNCTIONS_TIMEOUT", 30*time.Second),
	}
}
