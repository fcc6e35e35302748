package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/config"
	"github.com/terranocoder/terrano/internal/infrastructure/deepseek"
	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
)

var (
	_ deepseek.KeySource = (*PostgresSource)(nil)
	_ deepseek.KeySource = EnvSource{}
	_ deepseek.KeySource = Chain{}
)

// PostgresSource reads the stored key on every call so rotations apply
// immediately
type PostgresSource struct {
	db postgres.DB
}

func NewPostgresSource(db postgres.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (p *PostgresSource) APIKey(ctx context.Context) (string, error) {
	var key *string
	err := p.db.QueryRow(ctx, `SELECT deepseek_key FROM api_keys LIMIT 1`).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read api key: %w", err)
	}
	if key == nil {
		return "", nil
	}
	return *key, nil
}

// EnvSource reads DEEPSEEK_API_KEY
type EnvSource struct{}

func (EnvSource) APIKey(ctx context.Context) (string, error) {
	return config.GetDeepSeekAPIKey(), nil
}

// Chain asks each source in order and returns the first non-empty key. A
// failing source is logged and skipped; its error is returned only when no
// later source yields a key.
type Chain []deepseek.KeySource

func (c Chain) APIKey(ctx context.Context) (string, error) {
	var firstErr error
	for _, source := range c {
		key, err := source.APIKey(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("API key source failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if key != "" {
			return key, nil
		}
	}
	return "", firstErr
}

// NewSource prefers the stored key and falls back to the environment
func NewSource(db *postgres.Service) deepseek.KeySource {
	if db == nil {
		return EnvSource{}
	}
	return Chain{NewPostgresSource(db.Pool()), EnvSource{}}
}
