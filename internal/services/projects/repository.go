package projects

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
)

type Repository interface {
	Create(ctx context.Context, p Project) error
	Get(ctx context.Context, id uuid.UUID) (Project, error)
	Update(ctx context.Context, id uuid.UUID, upd Update) (Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Project, error)
}

type PostgresRepository struct {
	db postgres.DB
}

func NewPostgresRepository(db postgres.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p Project) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO projects (id, name, description, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Name, p.Description, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", postgres.Conflict(err))
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Project, error) {
	var p Project
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return Project{}, postgres.NotFound(err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, upd Update) (Project, error) {
	var p Project
	err := r.db.QueryRow(ctx, `
		UPDATE projects
		SET name = COALESCE($2, name), description = COALESCE($3, description)
		WHERE id = $1
		RETURNING id, name, description, created_at`,
		id, upd.Name, upd.Description,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return Project{}, postgres.NotFound(err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return postgres.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Project, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, created_at FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]Project
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{projects: make(map[uuid.UUID]Project)}
}

func (r *MemoryRepository) Create(ctx context.Context, p Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.projects[p.ID]; exists {
		return postgres.ErrConflict
	}
	r.projects[p.ID] = p
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.projects[id]
	if !exists {
		return Project{}, postgres.ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uuid.UUID, upd Update) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.projects[id]
	if !exists {
		return Project{}, postgres.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	r.projects[id] = p
	return p, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.projects[id]; !exists {
		return postgres.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]Project, error) {
	r.mu.RLock()
	projects := make([]Project, 0, len(r.projects))
	for _, p := range r.projects {
		projects = append(projects, p)
	}
	r.mu.RUnlock()

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}
