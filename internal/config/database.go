package config

import (
	"github.com/rs/zerolog/log"
)

// GetDatabaseURL returns the connection string of the hosted Postgres database
func GetDatabaseURL() string {
	value := GetEnvOrDefault("DATABASE_URL", "")
	if value == "" {
		log.Warn().Msg("DATABASE_URL environment variable not set")
	}
	return value
}

func GetDatabaseMaxConns() int {
	return parseEnvInt("DB_MAX_CONNECTIONS", 10)
}
