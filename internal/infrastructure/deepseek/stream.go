package deepseek

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/terranocoder/terrano/internal/metrics"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"

	// maxLineBytes bounds a single server-sent line, newline included
	maxLineBytes = 1 << 20
)

// ErrLineTooLong is returned when the stream carries a line longer than maxLineBytes
var ErrLineTooLong = errors.New("completion stream line too long")

type frameKind int

const (
	frameSkip frameKind = iota
	frameContent
	frameDone
)

// Stream decodes a server-sent completion stream into content fragments.
// It is pull-based and forward-only: each Recv reads just enough of the body
// to produce the next fragment. A Stream is not safe for concurrent use; to
// abandon a stream early cancel the request context or call Close.
type Stream struct {
	body      io.ReadCloser
	reader    *bufio.Reader
	err       error
	closeOnce sync.Once
}

func NewStream(body io.ReadCloser) *Stream {
	return &Stream{
		body:   body,
		reader: bufio.NewReader(body),
	}
}

// Recv returns the next content fragment. Once the body is exhausted or the
// [DONE] sentinel is seen it returns io.EOF; read failures are returned
// wrapped. The body is released on every terminal outcome.
func (s *Stream) Recv() (string, error) {
	for {
		if s.err != nil {
			return "", s.err
		}

		line, readErr := s.readLine()
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				s.finish(io.EOF)
			} else {
				s.finish(fmt.Errorf("failed to read completion stream: %w", readErr))
			}
		}

		if line == "" {
			continue
		}

		fragment, kind := decodeLine(line)
		switch kind {
		case frameDone:
			s.finish(io.EOF)
			return "", s.err
		case frameContent:
			return fragment, nil
		}
	}
}

// readLine reads up to and including the next newline, failing with
// ErrLineTooLong instead of buffering past maxLineBytes.
func (s *Stream) readLine() (string, error) {
	var line []byte
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if len(line)+len(chunk) > maxLineBytes {
			return "", ErrLineTooLong
		}
		line = append(line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(line), err
	}
}

// Close releases the response body. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.err == nil {
		s.err = io.EOF
	}

	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}

func (s *Stream) finish(err error) {
	if s.err == nil {
		s.err = err
	}
	if closeErr := s.Close(); closeErr != nil {
		log.Debug().Err(closeErr).Msg("Failed to close completion stream body")
	}
}

func decodeLine(line string) (string, frameKind) {
	payload := strings.TrimSpace(line)
	if payload == "" || strings.HasPrefix(payload, ":") {
		return "", frameSkip
	}

	payload = strings.TrimSpace(strings.TrimPrefix(payload, dataPrefix))
	if payload == doneSentinel {
		return "", frameDone
	}

	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		metrics.StreamDecodeErrors.Inc()
		log.Warn().Err(err).Str("frame", payload).Msg("Skipping malformed streaming frame")
		return "", frameSkip
	}

	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", frameSkip
	}

	metrics.StreamFragments.Inc()
	return chunk.Choices[0].Delta.Content, frameContent
}

// Collect drains the stream and concatenates every fragment. On a read
// failure the text received so far is returned along with the error.
func Collect(s *Stream) (string, error) {
	defer s.Close()

	var sb strings.Builder
	for {
		fragment, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(fragment)
	}
}
