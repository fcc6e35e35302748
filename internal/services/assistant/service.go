package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/infrastructure/deepseek"
)

// Completer opens a streamed completion for a prompt
type Completer interface {
	StreamChat(ctx context.Context, prompt string) (*deepseek.Stream, error)
}

type Service struct {
	completer Completer
	store     MessageStore
	now       func() time.Time

	mu     sync.Mutex
	lastID int64
}

func NewService(completer Completer, store MessageStore) *Service {
	return &Service{
		completer: completer,
		store:     store,
		now:       time.Now,
	}
}

// Stream opens a completion for incremental delivery. The caller must drain
// or Close the returned stream.
func (s *Service) Stream(ctx context.Context, prompt string) (*deepseek.Stream, error) {
	stream, err := s.completer.StreamChat(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate AI response: %w", err)
	}
	return stream, nil
}

// Generate returns the complete reply to prompt
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	stream, err := s.Stream(ctx, prompt)
	if err != nil {
		return "", err
	}

	text, err := deepseek.Collect(stream)
	if err != nil {
		return "", fmt.Errorf("failed to generate AI response: %w", err)
	}
	return text, nil
}

// SaveMessage stamps msg with an ID and timestamp when missing and persists it
func (s *Service) SaveMessage(ctx context.Context, msg Message) (Message, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	}
	if msg.ID == "" {
		msg.ID = s.nextID(msg.Timestamp)
	}

	if err := s.store.Save(ctx, msg); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to save message")
		return msg, fmt.Errorf("failed to save message: %w", err)
	}
	return msg, nil
}

// History returns the stored conversation, oldest first
func (s *Service) History(ctx context.Context) ([]Message, error) {
	messages, err := s.store.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch message history")
		return nil, fmt.Errorf("failed to fetch message history: %w", err)
	}
	return messages, nil
}

// Ask records the user prompt, generates a reply and records it. When
// generation fails the returned reply is an unsaved apology and err is nil;
// only persistence failures are returned.
func (s *Service) Ask(ctx context.Context, prompt string) (Message, error) {
	if _, err := s.SaveMessage(ctx, Message{Content: prompt, Role: RoleUser}); err != nil {
		return Message{}, err
	}

	text, err := s.Generate(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("Error generating AI response")

		now := s.now().UTC()
		return Message{
			ID:        s.nextID(now),
			Content:   ApologyText,
			Role:      RoleAssistant,
			Timestamp: now,
		}, nil
	}

	return s.SaveMessage(ctx, Message{Content: text, Role: RoleAssistant})
}

// Converse records the prompt, passes each reply fragment to emit as it
// arrives and records the assembled reply. An emit error aborts the
// completion. Nothing is recorded for the reply unless the stream finishes.
func (s *Service) Converse(ctx context.Context, prompt string, emit func(fragment string) error) (Message, error) {
	if _, err := s.SaveMessage(ctx, Message{Content: prompt, Role: RoleUser}); err != nil {
		return Message{}, err
	}

	stream, err := s.Stream(ctx, prompt)
	if err != nil {
		return Message{}, err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Message{}, fmt.Errorf("failed to generate AI response: %w", err)
		}

		sb.WriteString(fragment)
		if err := emit(fragment); err != nil {
			return Message{}, fmt.Errorf("failed to deliver response fragment: %w", err)
		}
	}

	return s.SaveMessage(ctx, Message{Content: sb.String(), Role: RoleAssistant})
}

// Welcome is the greeting the assistant panel opens with
func (s *Service) Welcome() Message {
	return Message{
		ID:        "1",
		Content:   welcomeText,
		Role:      RoleAssistant,
		Timestamp: s.now().UTC(),
	}
}

// nextID derives a millisecond ID from ts, bumped when two messages land in
// the same millisecond
func (s *Service) nextID(ts time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ts.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}
