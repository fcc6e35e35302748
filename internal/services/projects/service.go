package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
)

var ErrNameRequired = errors.New("project name is required")

type Service struct {
	repo     Repository
	now      func() time.Time
	onDelete []func(ctx context.Context, id uuid.UUID) error
}

// NewService uses Postgres when available and an in-memory repository otherwise
func NewService(db *postgres.Service) *Service {
	if db == nil {
		log.Warn().Msg("Projects kept in memory - database not configured")
		return NewServiceWithRepository(NewMemoryRepository())
	}
	return NewServiceWithRepository(NewPostgresRepository(db.Pool()))
}

func NewServiceWithRepository(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, name, description string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, ErrNameRequired
	}

	p := Project{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Str("name", name).Msg("Error creating project")
		return Project{}, err
	}

	log.Info().Str("project_id", p.ID.String()).Str("name", p.Name).Msg("Project created")
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, upd Update) (Project, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Project{}, ErrNameRequired
		}
		upd.Name = &name
	}

	p, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return Project{}, fmt.Errorf("failed to update project %s: %w", id, err)
	}
	return p, nil
}

// OnDelete registers fn to run after a project is deleted, in registration
// order. It is how stores without foreign keys drop what the project owned.
func (s *Service) OnDelete(fn func(ctx context.Context, id uuid.UUID) error) {
	s.onDelete = append(s.onDelete, fn)
}

// Delete removes the project and then runs the OnDelete hooks. A failing hook
// does not restore the project; the first hook error is returned.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}
	log.Info().Str("project_id", id.String()).Msg("Project deleted")

	var firstErr error
	for _, fn := range s.onDelete {
		if err := fn(ctx, id); err != nil {
			log.Error().Err(err).Str("project_id", id.String()).Msg("Project delete hook failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// List returns all projects, newest first
func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}
