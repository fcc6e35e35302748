package projects

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terranocoder/terrano/internal/services/projects"
)

func newService() *projects.Service {
	return projects.NewServiceWithRepository(projects.NewMemoryRepository())
}

func TestHandleCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"created", `{"name":"demo","description":"a project"}`, http.StatusCreated},
		{"missing name", `{"description":"a project"}`, http.StatusBadRequest},
		{"invalid json", `{"name":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			HandleCreate(newService(), rr, httptest.NewRequest(http.MethodPost, "/v1/projects", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestHandleListUpdateDelete(t *testing.T) {
	svc := newService()
	created, err := svc.Create(context.Background(), "demo", "first")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	HandleList(svc, rr, httptest.NewRequest(http.MethodGet, "/v1/projects", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []projects.Project
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 1)

	req := httptest.NewRequest(http.MethodPatch, "/v1/projects/"+created.ID.String(), strings.NewReader(`{"description":"second"}`))
	req = mux.SetURLVars(req, map[string]string{"id": created.ID.String()})
	rr = httptest.NewRecorder()
	HandleUpdate(svc, rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var updated projects.Project
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
	assert.Equal(t, "demo", updated.Name)
	assert.Equal(t, "second", updated.Description)

	req = mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{"id": created.ID.String()})
	rr = httptest.NewRecorder()
	HandleDelete(svc, rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	HandleDelete(svc, rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleUpdateRejectsBadID(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{}`)), map[string]string{"id": "nope"})
	rr := httptest.NewRecorder()
	HandleUpdate(newService(), rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = mux.SetURLVars(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"name":"x"}`)), map[string]string{"id": uuid.NewString()})
	rr = httptest.NewRecorder()
	HandleUpdate(newService(), rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
