package files

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
)

type Repository interface {
	Create(ctx context.Context, f File) error
	Update(ctx context.Context, id uuid.UUID, upd Update, updatedAt time.Time) (File, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByProject removes every file of a project and reports how many went
	DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]File, error)
	GetByPath(ctx context.Context, projectID uuid.UUID, path string) (File, error)
	// MatchPath and MatchContent do case-insensitive substring matching across all projects
	MatchPath(ctx context.Context, query string) ([]File, error)
	MatchContent(ctx context.Context, query string) ([]File, error)
}

const fileColumns = `id, project_id, name, content, path, created_at, updated_at`

type PostgresRepository struct {
	db postgres.DB
}

func NewPostgresRepository(db postgres.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (File, error) {
	var f File
	err := row.Scan(&f.ID, &f.ProjectID, &f.Name, &f.Content, &f.Path, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (r *PostgresRepository) Create(ctx context.Context, f File) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO files (`+fileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.ProjectID, f.Name, f.Content, f.Path, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", postgres.Conflict(err))
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, upd Update, updatedAt time.Time) (File, error) {
	f, err := scanFile(r.db.QueryRow(ctx, `
		UPDATE files
		SET name = COALESCE($2, name),
		    content = COALESCE($3, content),
		    path = COALESCE($4, path),
		    updated_at = $5
		WHERE id = $1
		RETURNING `+fileColumns,
		id, upd.Name, upd.Content, upd.Path, updatedAt,
	))
	if err != nil {
		return File{}, postgres.Conflict(postgres.NotFound(err))
	}
	return f, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return postgres.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM files WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete project files: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]File, error) {
	return r.query(ctx, `SELECT `+fileColumns+` FROM files WHERE project_id = $1 ORDER BY path`, projectID)
}

func (r *PostgresRepository) GetByPath(ctx context.Context, projectID uuid.UUID, path string) (File, error) {
	f, err := scanFile(r.db.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE project_id = $1 AND path = $2`, projectID, path,
	))
	if err != nil {
		return File{}, postgres.NotFound(err)
	}
	return f, nil
}

func (r *PostgresRepository) MatchPath(ctx context.Context, query string) ([]File, error) {
	return r.query(ctx, `SELECT `+fileColumns+` FROM files WHERE path ILIKE $1 ORDER BY path`, postgres.LikePattern(query))
}

func (r *PostgresRepository) MatchContent(ctx context.Context, query string) ([]File, error) {
	return r.query(ctx, `SELECT `+fileColumns+` FROM files WHERE content ILIKE $1 ORDER BY path`, postgres.LikePattern(query))
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]File, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	files := []File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

type MemoryRepository struct {
	mu    sync.RWMutex
	files map[uuid.UUID]File
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{files: make(map[uuid.UUID]File)}
}

func (r *MemoryRepository) Create(ctx context.Context, f File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pathTaken(f.ProjectID, f.Path, f.ID) {
		return postgres.ErrConflict
	}
	r.files[f.ID] = f
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uuid.UUID, upd Update, updatedAt time.Time) (File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, exists := r.files[id]
	if !exists {
		return File{}, postgres.ErrNotFound
	}
	if upd.Path != nil && r.pathTaken(f.ProjectID, *upd.Path, id) {
		return File{}, postgres.ErrConflict
	}

	if upd.Name != nil {
		f.Name = *upd.Name
	}
	if upd.Content != nil {
		f.Content = *upd.Content
	}
	if upd.Path != nil {
		f.Path = *upd.Path
	}
	f.UpdatedAt = updatedAt
	r.files[id] = f
	return f, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.files[id]; !exists {
		return postgres.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

func (r *MemoryRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, f := range r.files {
		if f.ProjectID == projectID {
			delete(r.files, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]File, error) {
	return r.filter(func(f File) bool { return f.ProjectID == projectID }), nil
}

func (r *MemoryRepository) GetByPath(ctx context.Context, projectID uuid.UUID, path string) (File, error) {
	matches := r.filter(func(f File) bool { return f.ProjectID == projectID && f.Path == path })
	if len(matches) == 0 {
		return File{}, postgres.ErrNotFound
	}
	return matches[0], nil
}

func (r *MemoryRepository) MatchPath(ctx context.Context, query string) ([]File, error) {
	q := strings.ToLower(query)
	return r.filter(func(f File) bool { return strings.Contains(strings.ToLower(f.Path), q) }), nil
}

func (r *MemoryRepository) MatchContent(ctx context.Context, query string) ([]File, error) {
	q := strings.ToLower(query)
	return r.filter(func(f File) bool { return strings.Contains(strings.ToLower(f.Content), q) }), nil
}

// filter returns matching files ordered by path
func (r *MemoryRepository) filter(keep func(File) bool) []File {
	r.mu.RLock()
	files := []File{}
	for _, f := range r.files {
		if keep(f) {
			files = append(files, f)
		}
	}
	r.mu.RUnlock()

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files
}

// pathTaken must be called with r.mu held
func (r *MemoryRepository) pathTaken(projectID uuid.UUID, path string, except uuid.UUID) bool {
	for id, f := range r.files {
		if id != except && f.ProjectID == projectID && f.Path == path {
			return true
		}
	}
	return false
}
