package plugins

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
)

// Manager installs plugins into projects and drives their lifecycle hooks.
// Hook failures are logged and never undo the stored change.
type Manager struct {
	repo     Repository
	registry *Registry
}

// NewManager uses Postgres when available and the built-in catalogue in memory otherwise
func NewManager(db *postgres.Service, registry *Registry) *Manager {
	if db == nil {
		log.Warn().Msg("Plugins kept in memory - database not configured")
		return NewManagerWithRepository(NewMemoryRepository(DefaultCatalogue()...), registry)
	}
	return NewManagerWithRepository(NewPostgresRepository(db.Pool()), registry)
}

func NewManagerWithRepository(repo Repository, registry *Registry) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{repo: repo, registry: registry}
}

// Install adds an enabled plugin to a project and initialises it
func (m *Manager) Install(ctx context.Context, projectID, pluginID uuid.UUID) (ProjectPlugin, error) {
	pp := ProjectPlugin{
		ID:        uuid.New(),
		ProjectID: projectID,
		PluginID:  pluginID,
		Enabled:   true,
		Config:    map[string]interface{}{},
	}
	if err := m.repo.Install(ctx, pp); err != nil {
		return ProjectPlugin{}, err
	}

	installed, err := m.repo.Get(ctx, pp.ID)
	if err != nil {
		return ProjectPlugin{}, fmt.Errorf("failed to read installed plugin: %w", err)
	}

	m.registry.run(ctx, installed.Plugin.Name, "init", onInit)
	log.Info().Str("plugin", installed.Plugin.Name).Str("project_id", projectID.String()).Msg("Plugin installed")
	return installed, nil
}

// Uninstall runs the uninstall hook and removes the plugin from its project
func (m *Manager) Uninstall(ctx context.Context, projectPluginID uuid.UUID) error {
	pp, err := m.repo.Get(ctx, projectPluginID)
	if err != nil {
		return err
	}

	m.registry.run(ctx, pp.Plugin.Name, "uninstall", onUninstall)
	return m.repo.Delete(ctx, projectPluginID)
}

// Toggle enables or disables an installed plugin
func (m *Manager) Toggle(ctx context.Context, projectPluginID uuid.UUID, enabled bool) (ProjectPlugin, error) {
	if err := m.repo.SetEnabled(ctx, projectPluginID, enabled); err != nil {
		return ProjectPlugin{}, err
	}

	pp, err := m.repo.Get(ctx, projectPluginID)
	if err != nil {
		return ProjectPlugin{}, err
	}

	if enabled {
		m.registry.run(ctx, pp.Plugin.Name, "enable", onEnable)
	} else {
		m.registry.run(ctx, pp.Plugin.Name, "disable", onDisable)
	}
	return pp, nil
}

// ProjectPlugins lists the plugins installed in a project
func (m *Manager) ProjectPlugins(ctx context.Context, projectID uuid.UUID) ([]ProjectPlugin, error) {
	return m.repo.ByProject(ctx, projectID)
}

// Available lists catalogue plugins not yet installed in the project
func (m *Manager) Available(ctx context.Context, projectID uuid.UUID) ([]Plugin, error) {
	installed, err := m.repo.ByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	catalogue, err := m.repo.Catalogue(ctx)
	if err != nil {
		return nil, err
	}

	taken := make(map[uuid.UUID]bool, len(installed))
	for _, pp := range installed {
		taken[pp.PluginID] = true
	}

	available := []Plugin{}
	for _, p := range catalogue {
		if !taken[p.ID] {
			available = append(available, p)
		}
	}
	return available, nil
}

// Load initialises every enabled plugin of a project that has a registered
// implementation and returns the names that initialised cleanly
func (m *Manager) Load(ctx context.Context, projectID uuid.UUID) ([]string, error) {
	installed, err := m.repo.ByProject(ctx, projectID)
	if err != nil {
		log.Error().Err(err).Str("project_id", projectID.String()).Msg("Error loading plugins")
		return nil, err
	}

	loaded := []string{}
	for _, pp := range installed {
		if !pp.Enabled {
			continue
		}
		if _, ok := m.registry.Lookup(pp.Plugin.Name); !ok {
			log.Debug().Str("plugin", pp.Plugin.Name).Msg("No implementation registered for plugin")
			continue
		}
		if err := m.registry.run(ctx, pp.Plugin.Name, "init", onInit); err != nil {
			continue
		}
		loaded = append(loaded, pp.Plugin.Name)
	}
	return loaded, nil
}
