package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/terranocoder/terrano/internal/config"
	"github.com/terranocoder/terrano/internal/metrics"
)

const maxErrorBody = 4096

// ErrNotConfigured is returned by the fallback invoker when FUNCTIONS_URL is unset
var ErrNotConfigured = errors.New("remote functions are not configured")

// InvokeError is returned when a function answers with a non-success status
type InvokeError struct {
	Function   string
	StatusCode int
	Body       string
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("function %s failed with status %d", e.Function, e.StatusCode)
}

// Invoker is the part of Service the domain services depend on
type Invoker interface {
	Invoke(ctx context.Context, name string, body, out interface{}) error
}

type unavailable struct{}

func (unavailable) Invoke(ctx context.Context, name string, body, out interface{}) error {
	return ErrNotConfigured
}

// NewInvoker returns s, or an Invoker that always fails with
// ErrNotConfigured when s is nil
func NewInvoker(s *Service) Invoker {
	if s == nil {
		return unavailable{}
	}
	return s
}

type Service struct {
	client     *http.Client
	baseURL    string
	serviceKey string
	limiter    *rate.Limiter
}

// NewService returns nil when FUNCTIONS_URL is not configured
func NewService(cfg config.FunctionsConfig) *Service {
	if cfg.URL == "" {
		log.Warn().Msg("Functions URL not configured - remote functions will be unavailable")
		return nil
	}

	log.Info().
		Str("url", cfg.URL).
		Float64("rate", cfg.RatePerSec).
		Int("burst", cfg.Burst).
		Msg("Initialising functions service")

	return &Service{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
	}
}

// Invoke posts body as JSON to the named function and decodes the response
// into out. A nil body sends an empty object and a nil out discards the
// response.
func (s *Service) Invoke(ctx context.Context, name string, body, out interface{}) error {
	err := s.invoke(ctx, name, body, out)

	status := "ok"
	if err != nil {
		status = "error"
		log.Error().Err(err).Str("function", name).Msg("Function invocation failed")
	}
	metrics.FunctionCalls.WithLabelValues(name, status).Inc()

	return err
}

func (s *Service) invoke(ctx context.Context, name string, body, out interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for function rate limiter: %w", err)
	}

	if body == nil {
		body = struct{}{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", s.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &InvokeError{
			Function:   name,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", name, err)
	}
	return nil
}
