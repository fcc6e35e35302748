package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
	"github.com/terranocoder/terrano/internal/infrastructure/redis"
)

const historyKey = "terrano:ai_messages"

// MessageStore persists the conversation
type MessageStore interface {
	Save(ctx context.Context, msg Message) error
	List(ctx context.Context) ([]Message, error)
}

type PostgresStore struct {
	db postgres.DB
}

type RedisStore struct {
	redisService *redis.Service
}

type MemoryStore struct {
	mu       sync.RWMutex
	messages []Message
}

// NewStore picks Postgres, then Redis, then memory, depending on what is
// configured
func NewStore(db *postgres.Service, redisService *redis.Service) MessageStore {
	if db != nil {
		log.Info().Msg("Assistant history stored in Postgres")
		return NewPostgresStore(db.Pool())
	}

	if redisService != nil {
		if err := redisService.Ping(context.Background()); err == nil {
			log.Info().Msg("Assistant history stored in Redis")
			return NewRedisStore(redisService)
		}
	}

	log.Warn().Msg("Assistant history kept in memory - it will not survive a restart")
	return NewMemoryStore()
}

func NewPostgresStore(db postgres.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func NewRedisStore(redisService *redis.Service) *RedisStore {
	return &RedisStore{redisService: redisService}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Postgres Store implementation
func (ps *PostgresStore) Save(ctx context.Context, msg Message) error {
	_, err := ps.db.Exec(ctx,
		`INSERT INTO ai_messages (id, content, role, timestamp) VALUES ($1, $2, $3, $4)`,
		msg.ID, msg.Content, string(msg.Role), msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (ps *PostgresStore) List(ctx context.Context) ([]Message, error) {
	rows, err := ps.db.Query(ctx, `SELECT id, content, role, timestamp FROM ai_messages ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var msg Message
		var role string
		if err := rows.Scan(&msg.ID, &msg.Content, &role, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = Role(role)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

// Redis Store implementation
func (rs *RedisStore) Save(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return rs.redisService.Append(ctx, historyKey, string(data))
}

func (rs *RedisStore) List(ctx context.Context) ([]Message, error) {
	entries, err := rs.redisService.Range(ctx, historyKey, 0, -1)
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(entries))
	for _, entry := range entries {
		var msg Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			log.Warn().Err(err).Msg("Skipping unreadable history entry")
			continue
		}
		messages = append(messages, msg)
	}

	sortByTimestamp(messages)
	return messages, nil
}

// Memory Store implementation
func (ms *MemoryStore) Save(ctx context.Context, msg Message) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.messages = append(ms.messages, msg)
	return nil
}

func (ms *MemoryStore) List(ctx context.Context) ([]Message, error) {
	ms.mu.RLock()
	messages := make([]Message, len(ms.messages))
	copy(messages, ms.messages)
	ms.mu.RUnlock()

	sortByTimestamp(messages)
	return messages, nil
}

func sortByTimestamp(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
}
