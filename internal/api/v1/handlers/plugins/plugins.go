package plugins

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/terranocoder/terrano/internal/api/v1/httputil"
	"github.com/terranocoder/terrano/internal/services/plugins"
	"github.com/terranocoder/terrano/pkg/httpext"
)

type InstallRequest struct {
	PluginID string `json:"plugin_id" validate:"required,uuid"`
}

type ToggleRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type LoadResponse struct {
	Loaded []string `json:"loaded"`
}

func HandleList(m *plugins.Manager, w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	installed, err := m.ProjectPlugins(r.Context(), projectID)
	if err != nil {
		httputil.Error(w, err, "Failed to list plugins")
		return
	}
	httpext.Json(w, http.StatusOK, installed)
}

func HandleAvailable(m *plugins.Manager, w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	available, err := m.Available(r.Context(), projectID)
	if err != nil {
		httputil.Error(w, err, "Failed to list available plugins")
		return
	}
	httpext.Json(w, http.StatusOK, available)
}

func HandleInstall(m *plugins.Manager, w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	var req InstallRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	pp, err := m.Install(r.Context(), projectID, uuid.MustParse(req.PluginID))
	if err != nil {
		httputil.Error(w, err, "Failed to install plugin")
		return
	}
	httpext.Json(w, http.StatusCreated, pp)
}

// HandleLoad initialises the enabled plugins of a project
func HandleLoad(m *plugins.Manager, w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	loaded, err := m.Load(r.Context(), projectID)
	if err != nil {
		httputil.Error(w, err, "Failed to load plugins")
		return
	}
	httpext.Json(w, http.StatusOK, LoadResponse{Loaded: loaded})
}

func HandleToggle(m *plugins.Manager, w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ToggleRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	pp, err := m.Toggle(r.Context(), id, *req.Enabled)
	if err != nil {
		httputil.Error(w, err, "Failed to toggle plugin")
		return
	}
	httpext.Json(w, http.StatusOK, pp)
}

func HandleUninstall(m *plugins.Manager, w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := m.Uninstall(r.Context(), id); err != nil {
		httputil.Error(w, err, "Failed to uninstall plugin")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
