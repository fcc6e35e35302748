package config

import "time"

// DeepSeekConfig holds the settings of the chat completion endpoint
type DeepSeekConfig struct {
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	// ResponseTimeout bounds the wait for response headers, not the stream
	ResponseTimeout time.Duration
}

func GetDeepSeekConfig() DeepSeekConfig {
	return DeepSeekConfig{
		BaseURL:     GetEnvOrDefault("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1"),
		Model:       GetEnvOrDefault("DEEPSEEK_MODEL", "deepseek-chat"),
		Temperature: float32(parseEnvFloat("DEEPSEEK_TEMPERATURE", 0.7)),
		MaxTokens:   parseEnvInt("DEEPSEEK_MAX_TOKENS", 1000),

		ResponseTimeout: parseEnvDuration("DEEPSEEK_RESPONSE_TIMEOUT", 30*time.Second),
	}
}

// GetDeepSeekAPIKey returns the key from the environment. It is only a
// fallback for the key stored in the database and is read on every call.
func GetDeepSeekAPIKey() string {
	return GetEnvOrDefault("DEEPSEEK_API_KEY", "")
}
