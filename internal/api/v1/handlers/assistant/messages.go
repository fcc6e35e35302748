package assistant

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/api/v1/httputil"
	"github.com/terranocoder/terrano/internal/services/assistant"
	"github.com/terranocoder/terrano/pkg/httpext"
)

type PromptRequest struct {
	Prompt string `json:"prompt" validate:"required,max=20000"`
}

type HistoryResponse struct {
	Welcome  assistant.Message   `json:"welcome"`
	Messages []assistant.Message `json:"messages"`
}

// HandleAsk answers a prompt with the complete reply
func HandleAsk(svc *assistant.Service, w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	log.Info().
		Int("prompt_length", len(req.Prompt)).
		Str("client_ip", r.RemoteAddr).
		Msg("Received assistant prompt")

	reply, err := svc.Ask(r.Context(), req.Prompt)
	if err != nil {
		httputil.Error(w, err, "Failed to process prompt")
		return
	}

	httpext.Json(w, http.StatusOK, reply)
}

// HandleHistory returns the greeting followed by the stored conversation
func HandleHistory(svc *assistant.Service, w http.ResponseWriter, r *http.Request) {
	messages, err := svc.History(r.Context())
	if err != nil {
		httputil.Error(w, err, "Failed to fetch message history")
		return
	}

	httpext.Json(w, http.StatusOK, HistoryResponse{
		Welcome:  svc.Welcome(),
		Messages: messages,
	})
}
