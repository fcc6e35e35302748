package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/infrastructure/functions"
)

type Mode string

const (
	ModeRun   Mode = "run"
	ModeDebug Mode = "debug"
)

var commands = map[Mode]string{
	ModeRun:   "npm run dev",
	ModeDebug: "npm run dev:debug",
}

var (
	ErrAlreadyRunning = errors.New("a process is already running")
	// ErrStarting is returned by Stop while a start has not yet returned a process ID
	ErrStarting = errors.New("a process is still starting")
)

// State is a snapshot of the runner
type State struct {
	ProcessID string `json:"process_id,omitempty"`
	Running   bool   `json:"running"`
	Debugging bool   `json:"debugging"`
}

type runResponse struct {
	ID     string   `json:"id"`
	Output []string `json:"output"`
}

// Service starts and stops the project's dev process through remote
// functions and keeps the terminal output. It is safe for concurrent use.
type Service struct {
	functions functions.Invoker

	mu        sync.Mutex
	processID string
	starting  bool
	running   bool
	debugging bool
	output    []string
}

func NewService(invoker functions.Invoker) *Service {
	return &Service{functions: invoker}
}

// Run starts the dev server
func (s *Service) Run(ctx context.Context) error {
	return s.start(ctx, ModeRun, "Error: Failed to start project")
}

// Debug starts the dev server with the debugger attached
func (s *Service) Debug(ctx context.Context) error {
	return s.start(ctx, ModeDebug, "Error: Failed to start debugging")
}

func (s *Service) start(ctx context.Context, mode Mode, failure string) error {
	s.mu.Lock()
	if s.processID != "" || s.starting {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.starting = true
	s.setMode(mode, true)
	s.mu.Unlock()

	var resp runResponse
	err := s.functions.Invoke(ctx, "run-project", map[string]string{"command": commands[mode]}, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false

	if err != nil {
		s.setMode(mode, false)
		log.Error().Err(err).Str("mode", string(mode)).Msg("Error starting project")
		s.output = append(s.output, failure)
		return fmt.Errorf("failed to start %s: %w", mode, err)
	}

	s.processID = resp.ID
	s.output = append(s.output, resp.Output...)
	log.Info().Str("process_id", resp.ID).Str("mode", string(mode)).Msg("Project started")
	return nil
}

// Stop stops the tracked process, if any, and clears both run and debug state.
// It fails with ErrStarting while a start is in flight.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.starting {
		s.mu.Unlock()
		return ErrStarting
	}
	id := s.processID
	debugging := s.debugging
	s.mu.Unlock()

	if id != "" {
		if err := s.functions.Invoke(ctx, "stop-process", map[string]string{"id": id}, nil); err != nil {
			log.Error().Err(err).Str("process_id", id).Msg("Error stopping project")
			return fmt.Errorf("failed to stop process %s: %w", id, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processID == id {
		s.processID = ""
	}
	s.running = false
	s.debugging = false
	if debugging {
		s.output = append(s.output, "Debugging stopped")
	} else {
		s.output = append(s.output, "Project stopped")
	}
	return nil
}

// Output returns the terminal lines collected so far
func (s *Service) Output() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.output...)
}

// Clear empties the terminal
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = nil
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ProcessID: s.processID,
		Running:   s.running,
		Debugging: s.debugging,
	}
}

// setMode must be called with s.mu held
func (s *Service) setMode(mode Mode, on bool) {
	switch mode {
	case ModeRun:
		s.running = on
	case ModeDebug:
		s.debugging = on
	}
}
