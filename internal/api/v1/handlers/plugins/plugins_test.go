package plugins

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terranocoder/terrano/internal/services/plugins"
)

func withID(r *http.Request, id uuid.UUID) *http.Request {
	return mux.SetURLVars(r, map[string]string{"id": id.String()})
}

func TestPluginHandlers(t *testing.T) {
	catalogue := plugins.DefaultCatalogue()
	m := plugins.NewManagerWithRepository(plugins.NewMemoryRepository(catalogue...), plugins.DefaultRegistry())
	projectID := uuid.New()

	rr := httptest.NewRecorder()
	HandleAvailable(m, rr, withID(httptest.NewRequest(http.MethodGet, "/", nil), projectID))
	require.Equal(t, http.StatusOK, rr.Code)
	var available []plugins.Plugin
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&available))
	assert.Len(t, available, len(catalogue))

	body := `{"plugin_id":"` + catalogue[0].ID.String() + `"}`
	rr = httptest.NewRecorder()
	HandleInstall(m, rr, withID(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), projectID))
	require.Equal(t, http.StatusCreated, rr.Code)
	var installed plugins.ProjectPlugin
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&installed))
	assert.True(t, installed.Enabled)

	rr = httptest.NewRecorder()
	HandleList(m, rr, withID(httptest.NewRequest(http.MethodGet, "/", nil), projectID))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []plugins.ProjectPlugin
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 1)

	rr = httptest.NewRecorder()
	HandleLoad(m, rr, withID(httptest.NewRequest(http.MethodPost, "/", nil), projectID))
	require.Equal(t, http.StatusOK, rr.Code)
	var loaded LoadResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&loaded))
	assert.Equal(t, []string{catalogue[0].Name}, loaded.Loaded)

	rr = httptest.NewRecorder()
	HandleToggle(m, rr, withID(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"enabled":false}`)), installed.ID))
	require.Equal(t, http.StatusOK, rr.Code)
	var toggled plugins.ProjectPlugin
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&toggled))
	assert.False(t, toggled.Enabled)

	rr = httptest.NewRecorder()
	HandleToggle(m, rr, withID(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{}`)), installed.ID))
	assert.Equal(t, http.StatusBadRequest, rr.Code, "enabled is required")

	rr = httptest.NewRecorder()
	HandleUninstall(m, rr, withID(httptest.NewRequest(http.MethodDelete, "/", nil), installed.ID))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	HandleUninstall(m, rr, withID(httptest.NewRequest(http.MethodDelete, "/", nil), installed.ID))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleInstallRejectsBadPluginID(t *testing.T) {
	m := plugins.NewManagerWithRepository(plugins.NewMemoryRepository(), plugins.DefaultRegistry())

	rr := httptest.NewRecorder()
	HandleInstall(m, rr, withID(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"plugin_id":"nope"}`)), uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
