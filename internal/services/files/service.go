package files

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
)

var ErrPathRequired = errors.New("file path is required")

type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService uses Postgres when available and an in-memory repository otherwise
func NewService(db *postgres.Service) *Service {
	if db == nil {
		log.Warn().Msg("Files kept in memory - database not configured")
		return NewServiceWithRepository(NewMemoryRepository())
	}
	return NewServiceWithRepository(NewPostgresRepository(db.Pool()))
}

func NewServiceWithRepository(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Repository exposes the underlying store for read-only consumers such as search
func (s *Service) Repository() Repository {
	return s.repo
}

// Create stores a new file. The name defaults to the last path element.
func (s *Service) Create(ctx context.Context, f File) (File, error) {
	f.Path = cleanPath(f.Path)
	if f.Path == "" {
		return File{}, ErrPathRequired
	}
	if f.Name == "" {
		f.Name = path.Base(f.Path)
	}

	now := s.now().UTC()
	f.ID = uuid.New()
	f.CreatedAt = now
	f.UpdatedAt = now

	if err := s.repo.Create(ctx, f); err != nil {
		log.Error().Err(err).Str("path", f.Path).Msg("Error creating file")
		return File{}, err
	}
	return f, nil
}

// Update applies upd and stamps updated_at
func (s *Service) Update(ctx context.Context, id uuid.UUID, upd Update) (File, error) {
	if upd.Path != nil {
		p := cleanPath(*upd.Path)
		if p == "" {
			return File{}, ErrPathRequired
		}
		upd.Path = &p
	}

	f, err := s.repo.Update(ctx, id, upd, s.now().UTC())
	if err != nil {
		return File{}, fmt.Errorf("failed to update file %s: %w", id, err)
	}
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", id, err)
	}
	return nil
}

// DeleteByProject removes every file of a project. Deleting a project that
// has no files is not an error.
func (s *Service) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	n, err := s.repo.DeleteByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete files of project %s: %w", projectID, err)
	}
	log.Debug().Str("project_id", projectID.String()).Int64("files", n).Msg("Project files deleted")
	return nil
}

// ListByProject returns the files of a project ordered by path
func (s *Service) ListByProject(ctx context.Context, projectID uuid.UUID) ([]File, error) {
	return s.repo.ListByProject(ctx, projectID)
}

func (s *Service) GetByPath(ctx context.Context, projectID uuid.UUID, p string) (File, error) {
	return s.repo.GetByPath(ctx, projectID, cleanPath(p))
}

// Tree returns the explorer tree of a project
func (s *Service) Tree(ctx context.Context, projectID uuid.UUID) ([]*Node, error) {
	files, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return BuildTree(files), nil
}

func cleanPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	return p
}
