package plugins

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
)

type Repository interface {
	Catalogue(ctx context.Context) ([]Plugin, error)
	Install(ctx context.Context, pp ProjectPlugin) error
	Get(ctx context.Context, id uuid.UUID) (ProjectPlugin, error)
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	ByProject(ctx context.Context, projectID uuid.UUID) ([]ProjectPlugin, error)
}

const projectPluginSelect = `
	SELECT pp.id, pp.project_id, pp.plugin_id, pp.enabled, pp.config,
	       p.id, p.name, p.version, p.description, p.config
	FROM project_plugins pp
	JOIN plugins p ON p.id = pp.plugin_id`

type PostgresRepository struct {
	db postgres.DB
}

func NewPostgresRepository(db postgres.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProjectPlugin(row scanner) (ProjectPlugin, error) {
	var pp ProjectPlugin
	err := row.Scan(
		&pp.ID, &pp.ProjectID, &pp.PluginID, &pp.Enabled, &pp.Config,
		&pp.Plugin.ID, &pp.Plugin.Name, &pp.Plugin.Version, &pp.Plugin.Description, &pp.Plugin.Config,
	)
	return pp, err
}

func (r *PostgresRepository) Catalogue(ctx context.Context) ([]Plugin, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, version, description, config FROM plugins ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plugins: %w", err)
	}
	defer rows.Close()

	plugins := []Plugin{}
	for rows.Next() {
		var p Plugin
		if err := rows.Scan(&p.ID, &p.Name, &p.Version, &p.Description, &p.Config); err != nil {
			return nil, fmt.Errorf("failed to scan plugin: %w", err)
		}
		plugins = append(plugins, p)
	}
	return plugins, rows.Err()
}

func (r *PostgresRepository) Install(ctx context.Context, pp ProjectPlugin) error {
	config := pp.Config
	if config == nil {
		config = map[string]interface{}{}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO project_plugins (id, project_id, plugin_id, enabled, config) VALUES ($1, $2, $3, $4, $5)`,
		pp.ID, pp.ProjectID, pp.PluginID, pp.Enabled, config,
	)
	if err != nil {
		return fmt.Errorf("failed to install plugin: %w", postgres.Conflict(err))
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (ProjectPlugin, error) {
	pp, err := scanProjectPlugin(r.db.QueryRow(ctx, projectPluginSelect+` WHERE pp.id = $1`, id))
	if err != nil {
		return ProjectPlugin{}, postgres.NotFound(err)
	}
	return pp, nil
}

func (r *PostgresRepository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE project_plugins SET enabled = $2 WHERE id = $1`, id, enabled)
	if err != nil {
		return fmt.Errorf("failed to update plugin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return postgres.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM project_plugins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to uninstall plugin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return postgres.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ByProject(ctx context.Context, projectID uuid.UUID) ([]ProjectPlugin, error) {
	rows, err := r.db.Query(ctx, projectPluginSelect+` WHERE pp.project_id = $1 ORDER BY p.name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project plugins: %w", err)
	}
	defer rows.Close()

	installed := []ProjectPlugin{}
	for rows.Next() {
		pp, err := scanProjectPlugin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project plugin: %w", err)
		}
		installed = append(installed, pp)
	}
	return installed, rows.Err()
}

// MemoryRepository serves the built-in catalogue when no database is configured
type MemoryRepository struct {
	mu        sync.RWMutex
	catalogue map[uuid.UUID]Plugin
	installed map[uuid.UUID]ProjectPlugin
}

func NewMemoryRepository(catalogue ...Plugin) *MemoryRepository {
	r := &MemoryRepository{
		catalogue: make(map[uuid.UUID]Plugin),
		installed: make(map[uuid.UUID]ProjectPlugin),
	}
	for _, p := range catalogue {
		r.catalogue[p.ID] = p
	}
	return r
}

func (r *MemoryRepository) Catalogue(ctx context.Context) ([]Plugin, error) {
	r.mu.RLock()
	plugins := make([]Plugin, 0, len(r.catalogue))
	for _, p := range r.catalogue {
		plugins = append(plugins, p)
	}
	r.mu.RUnlock()

	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name < plugins[j].Name })
	return plugins, nil
}

func (r *MemoryRepository) Install(ctx context.Context, pp ProjectPlugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.catalogue[pp.PluginID]; !ok {
		return postgres.ErrNotFound
	}
	for _, existing := range r.installed {
		if existing.ProjectID == pp.ProjectID && existing.PluginID == pp.PluginID {
			return postgres.ErrConflict
		}
	}
	r.installed[pp.ID] = pp
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (ProjectPlugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pp, ok := r.installed[id]
	if !ok {
		return ProjectPlugin{}, postgres.ErrNotFound
	}
	pp.Plugin = r.catalogue[pp.PluginID]
	return pp, nil
}

func (r *MemoryRepository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pp, ok := r.installed[id]
	if !ok {
		return postgres.ErrNotFound
	}
	pp.Enabled = enabled
	r.installed[id] = pp
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.installed[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(r.installed, id)
	return nil
}

func (r *MemoryRepository) ByProject(ctx context.Context, projectID uuid.UUID) ([]ProjectPlugin, error) {
	r.mu.RLock()
	installed := []ProjectPlugin{}
	for _, pp := range r.installed {
		if pp.ProjectID == projectID {
			pp.Plugin = r.catalogue[pp.PluginID]
			installed = append(installed, pp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(installed, func(i, j int) bool { return installed[i].Plugin.Name < installed[j].Plugin.Name })
	return installed, nil
}
