package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1assistant "github.com/terranocoder/terrano/internal/api/v1/handlers/assistant"
	v1files "github.com/terranocoder/terrano/internal/api/v1/handlers/files"
	v1git "github.com/terranocoder/terrano/internal/api/v1/handlers/git"
	v1plugins "github.com/terranocoder/terrano/internal/api/v1/handlers/plugins"
	v1projects "github.com/terranocoder/terrano/internal/api/v1/handlers/projects"
	v1runner "github.com/terranocoder/terrano/internal/api/v1/handlers/runner"
	v1search "github.com/terranocoder/terrano/internal/api/v1/handlers/search"
	v1websocket "github.com/terranocoder/terrano/internal/api/v1/handlers/websocket"
	v1mware "github.com/terranocoder/terrano/internal/api/v1/middleware"
	"github.com/terranocoder/terrano/internal/services"
	"github.com/terranocoder/terrano/pkg/httpext"
)

// HealthResponse reports the state of each backing store
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// RegisterSystemRoutes mounts the health and metrics endpoints
func RegisterSystemRoutes(router *mux.Router, services *services.Services) {
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "ok", Checks: services.Ping(ctx)}
		code := http.StatusOK
		for _, state := range resp.Checks {
			if state == "down" {
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		httpext.Json(w, code, resp)
	}).Methods("GET")
}

func RegisterV1Routes(router *mux.Router, services *services.Services) {
	// v1 routes
	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(v1mware.RequestLogger)
	v1.Use(v1mware.RateLimit("global"))

	// Assistant routes
	v1assistantRouter := v1.PathPrefix("/assistant").Subrouter()
	v1assistantRouter.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		v1assistant.HandleHistory(services.GetAssistantService(), w, r)
	}).Methods("GET")
	v1assistantRouter.Handle("/messages", v1mware.RateLimit("assistant")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1assistant.HandleAsk(services.GetAssistantService(), w, r)
	}))).Methods("POST")
	v1assistantRouter.Handle("/stream", v1mware.RateLimit("assistant")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1assistant.HandleStream(services.GetAssistantService(), w, r)
	}))).Methods("POST")
	v1assistantRouter.Handle("/ws", v1mware.RateLimit("assistant")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1websocket.HandleAssistantWebSocket(services.GetAssistantService(), services.GetConnectionManager(), w, r)
	}))).Methods("GET")

	// Project routes
	v1.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		v1projects.HandleList(services.GetProjectService(), w, r)
	}).Methods("GET")
	v1.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		v1projects.HandleCreate(services.GetProjectService(), w, r)
	}).Methods("POST")
	v1.HandleFunc("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		v1projects.HandleUpdate(services.GetProjectService(), w, r)
	}).Methods("PATCH")
	v1.HandleFunc("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		v1projects.HandleDelete(services.GetProjectService(), w, r)
	}).Methods("DELETE")

	// File routes
	v1.HandleFunc("/projects/{id}/files", func(w http.ResponseWriter, r *http.Request) {
		v1files.HandleList(services.GetFileService(), w, r)
	}).Methods("GET")
	v1.HandleFunc("/projects/{id}/files", func(w http.ResponseWriter, r *http.Request) {
		v1files.HandleCreate(services.GetFileService(), w, r)
	}).Methods("POST")
	v1.HandleFunc("/projects/{id}/tree", func(w http.ResponseWriter, r *http.Request) {
		v1files.HandleTree(services.GetFileService(), w, r)
	}).Methods("GET")
	v1.HandleFunc("/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		v1files.HandleUpdate(services.GetFileService(), w, r)
	}).Methods("PATCH")
	v1.HandleFunc("/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		v1files.HandleDelete(services.GetFileService(), w, r)
	}).Methods("DELETE")

	// Plugin routes
	v1.HandleFunc("/projects/{id}/plugins", func(w http.ResponseWriter, r *http.Request) {
		v1plugins.HandleList(services.GetPluginManager(), w, r)
	}).Methods("GET")
	v1.HandleFunc("/projects/{id}/plugins", func(w http.ResponseWriter, r *http.Request) {
		v1plugins.HandleInstall(services.GetPluginManager(), w, r)
	}).Methods("POST")
	v1.HandleFunc("/projects/{id}/plugins/available", func(w http.ResponseWriter, r *http.Request) {
		v1plugins.HandleAvailable(services.GetPluginManager(), w, r)
	}).Methods("GET")
	v1.HandleFunc("/projects/{id}/plugins/load", func(w http.ResponseWriter, r *http.Request) {
		v1plugins.HandleLoad(services.GetPluginManager(), w, r)
	}).Methods("POST")
	v1.HandleFunc("/plugins/{id}", func(w http.ResponseWriter, r *http.Request) {
		v1plugins.HandleToggle(services.GetPluginManager(), w, r)
	}).Methods("PATCH")
	v1.HandleFunc("/plugins/{id}", func(w http.ResponseWriter, r *http.Request) {
		v1plugins.HandleUninstall(services.GetPluginManager(), w, r)
	}).Methods("DELETE")

	// Search routes
	v1.Handle("/search", v1mware.RateLimit("search")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v1search.HandleSearch(services.GetSearchService(), w, r)
	}))).Methods("GET")

	// Git routes
	v1gitRouter := v1.PathPrefix("/git").Subrouter()
	v1gitRouter.Use(v1mware.RateLimit("git"))
	v1gitRouter.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		v1git.HandleStatus(services.GetGitPoller(), w, r)
	}).Methods("GET")
	v1gitRouter.HandleFunc("/stage", func(w http.ResponseWriter, r *http.Request) {
		v1git.HandleStage(services.GetGitService(), services.GetGitPoller(), w, r)
	}).Methods("POST")
	v1gitRouter.HandleFunc("/unstage", func(w http.ResponseWriter, r *http.Request) {
		v1git.HandleUnstage(services.GetGitService(), services.GetGitPoller(), w, r)
	}).Methods("POST")
	v1gitRouter.HandleFunc("/commit", func(w http.ResponseWriter, r *http.Request) {
		v1git.HandleCommit(services.GetGitService(), services.GetGitPoller(), w, r)
	}).Methods("POST")
	v1gitRouter.HandleFunc("/push", func(w http.ResponseWriter, r *http.Request) {
		v1git.HandlePush(services.GetGitService(), w, r)
	}).Methods("POST")
	v1gitRouter.HandleFunc("/pull", func(w http.ResponseWriter, r *http.Request) {
		v1git.HandlePull(services.GetGitService(), services.GetGitPoller(), w, r)
	}).Methods("POST")

	// Runner routes
	v1runnerRouter := v1.PathPrefix("/runner").Subrouter()
	v1runnerRouter.Use(v1mware.RateLimit("runner"))
	v1runnerRouter.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		v1runner.HandleRun(services.GetRunnerService(), w, r)
	}).Methods("POST")
	v1runnerRouter.HandleFunc("/debug", func(w http.ResponseWriter, r *http.Request) {
		v1runner.HandleDebug(services.GetRunnerService(), w, r)
	}).Methods("POST")
	v1runnerRouter.HandleFunc("/stop", func(w http.ResponseWriter, r *http.Request) {
		v1runner.HandleStop(services.GetRunnerService(), w, r)
	}).Methods("POST")
	v1runnerRouter.HandleFunc("/terminal", func(w http.ResponseWriter, r *http.Request) {
		v1runner.HandleTerminal(services.GetRunnerService(), w, r)
	}).Methods("GET")
	v1runnerRouter.HandleFunc("/terminal", func(w http.ResponseWriter, r *http.Request) {
		v1runner.HandleClear(services.GetRunnerService(), w, r)
	}).Methods("DELETE")
}
