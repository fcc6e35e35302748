package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns default when env not set",
			key:          "TEST_KEY_1",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
		{
			name:         "returns env value when set",
			key:          "TEST_KEY_2",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := GetEnvOrDefault(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("GetEnvOrDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEnv(t *testing.T) {
	t.Run("int", func(t *testing.T) {
		t.Setenv("TEST_INT", "42")
		if got := parseEnvInt("TEST_INT", 1); got != 42 {
			t.Errorf("parseEnvInt() = %d, want 42", got)
		}

		t.Setenv("TEST_INT", "forty-two")
		if got := parseEnvInt("TEST_INT", 1); got != 1 {
			t.Errorf("parseEnvInt() with invalid value = %d, want default 1", got)
		}
	})

	t.Run("float", func(t *testing.T) {
		t.Setenv("TEST_FLOAT", "0.25")
		if got := parseEnvFloat("TEST_FLOAT", 1); got != 0.25 {
			t.Errorf("parseEnvFloat() = %v, want 0.25", got)
		}

		t.Setenv("TEST_FLOAT", "")
		if got := parseEnvFloat("TEST_FLOAT", 1.5); got != 1.5 {
			t.Errorf("parseEnvFloat() unset = %v, want default 1.5", got)
		}
	})

	t.Run("duration", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "250ms")
		if got := parseEnvDuration("TEST_DURATION", time.Second); got != 250*time.Millisecond {
			t.Errorf("parseEnvDuration() = %v, want 250ms", got)
		}

		t.Setenv("TEST_DURATION", "soon")
		if got := parseEnvDuration("TEST_DURATION", time.Second); got != time.Second {
			t.Errorf("parseEnvDuration() with invalid value = %v, want default 1s", got)
		}
	})
}

func TestGetDeepSeekConfig(t *testing.T) {
	t.Setenv("DEEPSEEK_BASE_URL", "")
	t.Setenv("DEEPSEEK_MODEL", "")
	t.Setenv("DEEPSEEK_TEMPERATURE", "")
	t.Setenv("DEEPSEEK_MAX_TOKENS", "")

	cfg := GetDeepSeekConfig()
	if cfg.BaseURL != "https://api.deepseek.com/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Model != "deepseek-chat" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want 1000", cfg.MaxTokens)
	}
}
