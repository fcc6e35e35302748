package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/terranocoder/terrano/internal/config"
	"github.com/terranocoder/terrano/pkg/ratelimit"
)

// SystemPrompt is sent ahead of every user prompt
const SystemPrompt = "You are TerranoCoder's intelligent coding assistant, designed to help developers write better code. " +
	"You provide concise, accurate responses and specialize in code review, bug fixing, best practices, and modern development patterns."

const maxErrorBody = 4096

// KeySource resolves the API key at call time so a rotated key is picked up
// without a restart
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// KeySourceFunc adapts a plain function to KeySource
type KeySourceFunc func(ctx context.Context) (string, error)

func (f KeySourceFunc) APIKey(ctx context.Context) (string, error) {
	return f(ctx)
}

type Service struct {
	cfg      config.DeepSeekConfig
	client   *http.Client
	throttle *ratelimit.Bucket
	keys     KeySource
}

type Option func(*Service)

// WithHTTPClient replaces the default http client
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.client = c
	}
}

// NewHTTPClient returns a client that gives up on a completion whose response
// headers take longer than responseTimeout. The body is not bounded: a stream
// may stay open for as long as the model keeps producing fragments.
func NewHTTPClient(responseTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = responseTimeout
	return &http.Client{Transport: transport}
}

// NewService builds a completion client. Every request first takes a permit
// from throttle; a nil throttle gets a bucket with the default shape.
func NewService(cfg config.DeepSeekConfig, throttle *ratelimit.Bucket, keys KeySource, opts ...Option) *Service {
	log.Info().Str("base_url", cfg.BaseURL).Str("model", cfg.Model).Msg("Initialising DeepSeek service")

	if throttle == nil {
		throttle = ratelimit.NewBucket(ratelimit.DefaultCapacity, ratelimit.DefaultRefillRate)
	}

	s := &Service{
		cfg:      cfg,
		client:   http.DefaultClient,
		throttle: throttle,
		keys:     keys,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StreamChat sends prompt as a streaming chat completion and returns the
// decoded fragment stream. The caller owns the returned Stream and must
// drain or Close it.
func (s *Service) StreamChat(ctx context.Context, prompt string) (*Stream, error) {
	if err := s.throttle.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire request permit: %w", err)
	}

	key, err := s.keys.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load DeepSeek API key: %w", err)
	}
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(s.newRequest(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		log.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("DeepSeek API returned an error")

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	log.Debug().Int("prompt_length", len(prompt)).Msg("Opened completion stream")
	return NewStream(resp.Body), nil
}

// Complete is StreamChat followed by Collect
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	stream, err := s.StreamChat(ctx, prompt)
	if err != nil {
		return "", err
	}
	return Collect(stream)
}

func (s *Service) newRequest(prompt string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream:      true,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}
}
