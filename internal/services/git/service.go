package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/infrastructure/functions"
)

const defaultCommitMessage = "Update"

type Service struct {
	functions functions.Invoker
}

func NewService(invoker functions.Invoker) *Service {
	return &Service{functions: invoker}
}

type commandRequest struct {
	Command string `json:"command"`
}

type commandsRequest struct {
	Commands []string `json:"commands"`
}

type pathRequest struct {
	Path string `json:"path"`
}

type outputResponse struct {
	Output string `json:"output"`
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	var resp outputResponse
	if err := s.functions.Invoke(ctx, "git-status", commandRequest{Command: "git status --porcelain"}, &resp); err != nil {
		return Status{}, fmt.Errorf("failed to get git status: %w", err)
	}
	return ParsePorcelain(resp.Output), nil
}

func (s *Service) Stage(ctx context.Context, path string) error {
	if err := s.functions.Invoke(ctx, "git-stage", pathRequest{Path: path}, nil); err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	return nil
}

func (s *Service) Unstage(ctx context.Context, path string) error {
	if err := s.functions.Invoke(ctx, "git-unstage", pathRequest{Path: path}, nil); err != nil {
		return fmt.Errorf("failed to unstage %s: %w", path, err)
	}
	return nil
}

// Commit commits the staged changes; an empty message becomes "Update"
func (s *Service) Commit(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		message = defaultCommitMessage
	}

	req := commandsRequest{Commands: []string{
		`git config --global user.email "user@example.com"`,
		`git config --global user.name "User"`,
		"git commit -m " + shellQuote(message),
	}}
	if err := s.functions.Invoke(ctx, "git-commit", req, nil); err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}

	log.Info().Str("message", message).Msg("Changes committed")
	return nil
}

func (s *Service) Push(ctx context.Context) error {
	if err := s.functions.Invoke(ctx, "git-push", commandRequest{Command: "git push origin main"}, nil); err != nil {
		return fmt.Errorf("failed to push changes: %w", err)
	}
	return nil
}

func (s *Service) Pull(ctx context.Context) error {
	if err := s.functions.Invoke(ctx, "git-pull", nil, nil); err != nil {
		return fmt.Errorf("failed to pull changes: %w", err)
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
