package git

import (
	"net/http"

	"github.com/terranocoder/terrano/internal/api/v1/httputil"
	"github.com/terranocoder/terrano/internal/services/git"
	"github.com/terranocoder/terrano/pkg/httpext"
)

type PathRequest struct {
	Path string `json:"path" validate:"required"`
}

type CommitRequest struct {
	Message string `json:"message" validate:"max=5000"`
}

// HandleStatus serves the last polled status
func HandleStatus(poller *git.Poller, w http.ResponseWriter, r *http.Request) {
	status, err := poller.CachedStatus(r.Context())
	if err != nil {
		httputil.Error(w, err, "Failed to get git status")
		return
	}
	httpext.Json(w, http.StatusOK, status)
}

func HandleStage(svc *git.Service, poller *git.Poller, w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := svc.Stage(r.Context(), req.Path); err != nil {
		httputil.Error(w, err, "Failed to stage file")
		return
	}
	poller.Refresh(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func HandleUnstage(svc *git.Service, poller *git.Poller, w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := svc.Unstage(r.Context(), req.Path); err != nil {
		httputil.Error(w, err, "Failed to unstage file")
		return
	}
	poller.Refresh(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func HandleCommit(svc *git.Service, poller *git.Poller, w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if err := svc.Commit(r.Context(), req.Message); err != nil {
		httputil.Error(w, err, "Failed to commit changes")
		return
	}
	poller.Refresh(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func HandlePush(svc *git.Service, w http.ResponseWriter, r *http.Request) {
	if err := svc.Push(r.Context()); err != nil {
		httputil.Error(w, err, "Failed to push changes")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func HandlePull(svc *git.Service, poller *git.Poller, w http.ResponseWriter, r *http.Request) {
	if err := svc.Pull(r.Context()); err != nil {
		httputil.Error(w, err, "Failed to pull changes")
		return
	}
	poller.Refresh(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
