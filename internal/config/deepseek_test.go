package config

import (
	"testing"
	"time"
)

func TestGetDeepSeekConfigResponseTimeout(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"default", "", 30 * time.Second},
		{"override", "90s", 90 * time.Second},
		{"invalid falls back", "soon", 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DEEPSEEK_RESPONSE_TIMEOUT", tt.value)

			if got := GetDeepSeekConfig().ResponseTimeout; got != tt.want {
				t.Errorf("ResponseTimeout = %v, want %v", got, tt.want)
			}
		})
	}
}
