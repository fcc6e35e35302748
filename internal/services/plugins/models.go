package plugins

import "github.com/google/uuid"

// Plugin is a catalogue entry
type Plugin struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Version     string                 `json:"version"`
	Description string                 `json:"description"`
	Config      map[string]interface{} `json:"config"`
}

// ProjectPlugin is a plugin installed in a project
type ProjectPlugin struct {
	ID        uuid.UUID              `json:"id"`
	ProjectID uuid.UUID              `json:"project_id"`
	PluginID  uuid.UUID              `json:"plugin_id"`
	Enabled   bool                   `json:"enabled"`
	Config    map[string]interface{} `json:"config"`
	Plugin    Plugin                 `json:"plugin"`
}
