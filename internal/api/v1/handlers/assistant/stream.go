package assistant

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/terranocoder/terrano/internal/api/v1/httputil"
	"github.com/terranocoder/terrano/internal/services/assistant"
	"github.com/terranocoder/terrano/pkg/httpext"
)

// sseWriter re-streams fragments as chat completion chunks so clients can
// decode them with the same reader they would use upstream. Headers are sent
// with the first fragment so early failures still get a JSON error.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	s.started = true

	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
}

func (s *sseWriter) event(name string, payload interface{}) error {
	s.start()

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if name != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *sseWriter) fragment(content string) error {
	return s.event("", openai.ChatCompletionStreamResponse{
		Object: "chat.completion.chunk",
		Choices: []openai.ChatCompletionStreamChoice{
			{Delta: openai.ChatCompletionStreamChoiceDelta{Content: content}},
		},
	})
}

func (s *sseWriter) done() {
	s.start()
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// HandleStream answers a prompt as a server-sent event stream
func HandleStream(svc *assistant.Service, w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	flusher, _ := w.(http.Flusher)
	sse := &sseWriter{w: w, flusher: flusher}

	reply, err := svc.Converse(r.Context(), req.Prompt, sse.fragment)
	if err != nil {
		if !sse.started {
			httputil.Error(w, err, assistant.ApologyText)
			return
		}

		log.Error().Err(err).Msg("Completion stream interrupted")
		sse.event("error", httpext.ErrorResponse{Error: assistant.ApologyText})
		return
	}

	sse.event("message", reply)
	sse.done()
}
