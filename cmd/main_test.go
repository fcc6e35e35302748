package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terranocoder/terrano/internal/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "FUNCTIONS_URL", "DEEPSEEK_API_KEY"} {
		t.Setenv(key, "")
	}

	svcs, err := services.InitializeServices(context.Background())
	require.NoError(t, err)
	t.Cleanup(svcs.Close)

	server := httptest.NewServer(setupRouter(svcs))
	t.Cleanup(server.Close)
	return server
}

func TestMainServer(t *testing.T) {
	server := newTestServer(t)

	t.Run("health endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("project lifecycle", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/v1/projects", "application/json", strings.NewReader(`{"name":"demo"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var project struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&project))

		resp, err = http.Post(server.URL+"/v1/projects/"+project.ID+"/files", "application/json", strings.NewReader(`{"path":"src/index.ts","content":"export {}"}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, err = http.Get(server.URL + "/v1/search?q=index")
		require.NoError(t, err)
		defer resp.Body.Close()
		var results []map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
		assert.NotEmpty(t, results)
	})

	t.Run("git without functions backend", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/v1/git/status")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("assistant websocket", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/assistant/ws"
		ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer ws.Close()

		require.NoError(t, ws.WriteJSON(map[string]string{"prompt": "hello"}))
		var out map[string]interface{}
		require.NoError(t, ws.ReadJSON(&out))
		assert.Equal(t, "error", out["type"], "no API key is configured")
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/invalid")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
