package runner

import (
	"net/http"

	"github.com/terranocoder/terrano/internal/api/v1/httputil"
	"github.com/terranocoder/terrano/internal/services/runner"
	"github.com/terranocoder/terrano/pkg/httpext"
)

type TerminalResponse struct {
	runner.State
	Output []string `json:"output"`
}

func HandleRun(svc *runner.Service, w http.ResponseWriter, r *http.Request) {
	if err := svc.Run(r.Context()); err != nil {
		httputil.Error(w, err, "Failed to start project")
		return
	}
	HandleTerminal(svc, w, r)
}

func HandleDebug(svc *runner.Service, w http.ResponseWriter, r *http.Request) {
	if err := svc.Debug(r.Context()); err != nil {
		httputil.Error(w, err, "Failed to start debugging")
		return
	}
	HandleTerminal(svc, w, r)
}

func HandleStop(svc *runner.Service, w http.ResponseWriter, r *http.Request) {
	if err := svc.Stop(r.Context()); err != nil {
		httputil.Error(w, err, "Failed to stop process")
		return
	}
	HandleTerminal(svc, w, r)
}

// HandleTerminal returns the runner state and accumulated output
func HandleTerminal(svc *runner.Service, w http.ResponseWriter, r *http.Request) {
	httpext.Json(w, http.StatusOK, TerminalResponse{
		State:  svc.State(),
		Output: svc.Output(),
	})
}

func HandleClear(svc *runner.Service, w http.ResponseWriter, r *http.Request) {
	svc.Clear()
	w.WriteHeader(http.StatusNoContent)
}
