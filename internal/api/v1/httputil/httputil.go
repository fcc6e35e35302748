package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/infrastructure/deepseek"
	"github.com/terranocoder/terrano/internal/infrastructure/functions"
	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
	"github.com/terranocoder/terrano/internal/services/files"
	"github.com/terranocoder/terrano/internal/services/projects"
	"github.com/terranocoder/terrano/internal/services/runner"
	"github.com/terranocoder/terrano/pkg/httpext"
)

const maxBodyBytes = 5 << 20

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode reads a JSON body into v and validates it. On failure it writes a
// 400 response and returns false.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Client sent malformed JSON request")
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return false
	}

	if err := validate.Struct(v); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Request validation failed")
		httpext.JsonError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// PathUUID parses the named route variable. On failure it writes a 400
// response and returns false.
func PathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		httpext.JsonError(w, fmt.Sprintf("Invalid %s", name), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// Status maps service errors to HTTP status codes
func Status(err error) int {
	var apiErr *deepseek.APIError
	var invokeErr *functions.InvokeError

	switch {
	case errors.Is(err, postgres.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, postgres.ErrConflict), errors.Is(err, runner.ErrAlreadyRunning), errors.Is(err, runner.ErrStarting):
		return http.StatusConflict
	case errors.Is(err, projects.ErrNameRequired), errors.Is(err, files.ErrPathRequired):
		return http.StatusBadRequest
	case errors.Is(err, deepseek.ErrMissingAPIKey), errors.Is(err, functions.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr), errors.As(err, &invokeErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error logs err and writes the JSON error envelope. Client errors carry the
// error text; server errors carry msg only.
func Error(w http.ResponseWriter, err error, msg string) {
	code := Status(err)

	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", code).Msg(msg)
		httpext.JsonError(w, msg, code)
		return
	}

	log.Warn().Err(err).Int("status", code).Msg(msg)
	httpext.JsonErrorWithDetails(w, code, httpext.ErrorResponse{
		Error:            msg,
		ErrorDescription: err.Error(),
	})
}
