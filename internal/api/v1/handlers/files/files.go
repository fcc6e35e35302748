package files

import (
	"net/http"

	"github.com/terranocoder/terrano/internal/api/v1/httputil"
	"github.com/terranocoder/terrano/internal/services/files"
	"github.com/terranocoder/terrano/pkg/httpext"
)

type CreateRequest struct {
	Name    string `json:"name" validate:"max=255"`
	Path    string `json:"path" validate:"required"`
	Content string `json:"content"`
}

// HandleList returns a project's files, or the single file at ?path=
func HandleList(svc *files.Service, w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	if p := r.URL.Query().Get("path"); p != "" {
		f, err := svc.GetByPath(r.Context(), projectID, p)
		if err != nil {
			httputil.Error(w, err, "Failed to get file")
			return
		}
		httpext.Json(w, http.StatusOK, f)
		return
	}

	list, err := svc.ListByProject(r.Context(), projectID)
	if err != nil {
		httputil.Error(w, err, "Failed to list files")
		return
	}
	httpext.Json(w, http.StatusOK, list)
}

func HandleTree(svc *files.Service, w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	tree, err := svc.Tree(r.Context(), projectID)
	if err != nil {
		httputil.Error(w, err, "Failed to build file tree")
		return
	}
	if tree == nil {
		tree = []*files.Node{}
	}
	httpext.Json(w, http.StatusOK, tree)
}

func HandleCreate(svc *files.Service, w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	var req CreateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	f, err := svc.Create(r.Context(), files.File{
		ProjectID: projectID,
		Name:      req.Name,
		Path:      req.Path,
		Content:   req.Content,
	})
	if err != nil {
		httputil.Error(w, err, "Failed to create file")
		return
	}
	httpext.Json(w, http.StatusCreated, f)
}

func HandleUpdate(svc *files.Service, w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	var req files.Update
	if !httputil.Decode(w, r, &req) {
		return
	}

	f, err := svc.Update(r.Context(), id, req)
	if err != nil {
		httputil.Error(w, err, "Failed to update file")
		return
	}
	httpext.Json(w, http.StatusOK, f)
}

func HandleDelete(svc *files.Service, w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.PathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := svc.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err, "Failed to delete file")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
