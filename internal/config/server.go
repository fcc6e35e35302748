package config

import "time"

func GetServerAddr() string {
	return GetEnvOrDefault("SERVER_ADDR", ":8080")
}

// GetGitPollInterval returns how often the git status is refreshed
func GetGitPollInterval() time.Duration {
	return parseEnvDuration("GIT_POLL_INTERVAL", 5*time.Second)
}
