package projects

import (
	"net/http"

	"github.com/terranocoder/terrano/internal/api/v1/httputil"
	"github.com/terranocoder/terrano/internal/services/projects"
	"github.com/terranocoder/terrano/pkg/httpext"
)

type CreateRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func HandleList(svc *projects.Service, w http.ResponseWriter, r *http.Request) {
	list, err := svc.List(r.Context())
	if err != nil {
		httputil.Error(w, err, "Failed to list projects")
		return
	}
	httpext.Json(w, http.StatusOK, list)
}

func HandleCreate(svc *projects.Service, w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	p, err := svc.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		httputil.Error(w, err, "Failed to create project")
		return
	}
	httpext.Json(w, http.StatusCreated, p)
}

func HandleUpdate(svc *projects.Service, w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	var req projects.Update
	if !httputil.Decode(w, r, &req) {
		return
	}

	p, err := svc.Update(r.Context(), id, req)
	if err != nil {
		httputil.Error(w, err, "Failed to update project")
		return
	}
	httpext.Json(w, http.StatusOK, p)
}

func HandleDelete(svc *projects.Service, w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := svc.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err, "Failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
