package websocket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terranocoder/terrano/internal/connections"
	"github.com/terranocoder/terrano/internal/infrastructure/deepseek"
	"github.com/terranocoder/terrano/internal/services/assistant"
)

type fakeCompleter struct {
	fragments []string
	err       error
}

func (f fakeCompleter) StreamChat(ctx context.Context, prompt string) (*deepseek.Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	var sb strings.Builder
	for _, frag := range f.fragments {
		fmt.Fprintf(&sb, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", frag)
	}
	sb.WriteString("data: [DONE]\n\n")
	return deepseek.NewStream(io.NopCloser(strings.NewReader(sb.String()))), nil
}

func dial(t *testing.T, svc *assistant.Service) (*websocket.Conn, *connections.Manager) {
	t.Helper()

	manager := connections.NewManager(connections.DefaultTimeouts)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleAssistantWebSocket(svc, manager, w, r)
	}))
	t.Cleanup(server.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	return ws, manager
}

func TestAssistantWebSocketStreamsReply(t *testing.T) {
	store := assistant.NewMemoryStore()
	ws, manager := dial(t, assistant.NewService(fakeCompleter{fragments: []string{"Hel", "lo"}}, store))

	require.NoError(t, ws.WriteJSON(Inbound{Prompt: "greet"}))

	var got []Outbound
	for {
		var out Outbound
		require.NoError(t, ws.ReadJSON(&out))
		got = append(got, out)
		if out.Type != "fragment" {
			break
		}
	}

	require.Len(t, got, 3)
	assert.Equal(t, "Hel", got[0].Content)
	assert.Equal(t, "lo", got[1].Content)
	assert.Equal(t, "done", got[2].Type)
	require.NotNil(t, got[2].Message)
	assert.Equal(t, "Hello", got[2].Message.Content)
	assert.Equal(t, 1, manager.Count())

	saved, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestAssistantWebSocketErrors(t *testing.T) {
	ws, _ := dial(t, assistant.NewService(fakeCompleter{err: deepseek.ErrMissingAPIKey}, assistant.NewMemoryStore()))

	require.NoError(t, ws.WriteJSON(Inbound{Prompt: "  "}))
	var out Outbound
	require.NoError(t, ws.ReadJSON(&out))
	assert.Equal(t, "error", out.Type)
	assert.Equal(t, "prompt is required", out.Error)

	require.NoError(t, ws.WriteJSON(Inbound{Prompt: "hi"}))
	require.NoError(t, ws.ReadJSON(&out))
	assert.Equal(t, "error", out.Type)
	assert.Equal(t, "Sorry, I encountered an error. Please try again.", out.Error)
}

func TestAssistantWebSocketUnregistersOnClose(t *testing.T) {
	ws, manager := dial(t, assistant.NewService(fakeCompleter{}, assistant.NewMemoryStore()))

	require.Eventually(t, func() bool { return manager.Count() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return manager.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
