package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/connections"
	"github.com/terranocoder/terrano/internal/services/assistant"
)

const maxPromptBytes = 64 << 10

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// TODO: restrict to the IDE origin once it is configurable
			return true
		},
	}
)

// Inbound is a prompt sent by the client
type Inbound struct {
	Prompt string `json:"prompt"`
}

// Outbound is one server message. Type is fragment, done or error.
type Outbound struct {
	Type    string             `json:"type"`
	Content string             `json:"content,omitempty"`
	Message *assistant.Message `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// HandleAssistantWebSocket streams replies to prompts received over a
// websocket. Prompts are answered one at a time in arrival order.
func HandleAssistantWebSocket(svc *assistant.Service, manager *connections.Manager, w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}
	ws.SetReadLimit(maxPromptBytes)

	conn := manager.Register(ws)
	defer manager.Unregister(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn.KeepAlive(ctx)

	log.Info().Str("client_ip", r.RemoteAddr).Msg("Assistant websocket connected")

	for {
		var in Inbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected websocket closure")
			} else {
				log.Debug().Err(err).Msg("Assistant websocket closed")
			}
			return
		}

		if strings.TrimSpace(in.Prompt) == "" {
			if err := conn.WriteJSON(Outbound{Type: "error", Error: "prompt is required"}); err != nil {
				return
			}
			continue
		}

		if err := answer(ctx, svc, conn, in.Prompt); err != nil {
			log.Debug().Err(err).Msg("Failed to write to assistant websocket")
			return
		}
	}
}

// answer streams one reply. It returns an error only when the connection
// can no longer be written to.
func answer(ctx context.Context, svc *assistant.Service, conn *connections.Conn, prompt string) error {
	var writeErr error
	emit := func(fragment string) error {
		writeErr = conn.WriteJSON(Outbound{Type: "fragment", Content: fragment})
		return writeErr
	}

	reply, err := svc.Converse(ctx, prompt, emit)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		log.Error().Err(err).Msg("Error generating AI response")
		return conn.WriteJSON(Outbound{Type: "error", Error: assistant.ApologyText})
	}

	return conn.WriteJSON(Outbound{Type: "done", Message: &reply})
}
