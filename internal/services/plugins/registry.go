package plugins

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Hooks are the lifecycle callbacks a plugin implementation may provide
type Hooks interface {
	OnInit(ctx context.Context) error
	OnEnable(ctx context.Context) error
	OnDisable(ctx context.Context) error
	OnUninstall(ctx context.Context) error
}

// Registry maps plugin names to their in-process implementations
type Registry struct {
	mu    sync.RWMutex
	hooks map[string]Hooks
}

func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]Hooks)}
}

// Register replaces any implementation previously registered under name
func (r *Registry) Register(name string, hooks Hooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = hooks
}

func (r *Registry) Lookup(name string) (Hooks, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[name]
	return h, ok
}

// Names lists the registered plugin names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.hooks))
	for name := range r.hooks {
		names = append(names, name)
	}
	return names
}

type hookFunc func(Hooks, context.Context) error

var (
	onInit      hookFunc = Hooks.OnInit
	onEnable    hookFunc = Hooks.OnEnable
	onDisable   hookFunc = Hooks.OnDisable
	onUninstall hookFunc = Hooks.OnUninstall
)

// run invokes a hook when the plugin has an implementation. Failures are
// logged and reported to the caller.
func (r *Registry) run(ctx context.Context, name, hook string, fn hookFunc) error {
	h, ok := r.Lookup(name)
	if !ok {
		return nil
	}

	if err := fn(h, ctx); err != nil {
		log.Error().Err(err).Str("plugin", name).Str("hook", hook).Msg("Plugin hook failed")
		return err
	}
	return nil
}

// LoggingPlugin records each lifecycle event in the log
type LoggingPlugin struct {
	Name string
}

func (p LoggingPlugin) OnInit(ctx context.Context) error {
	log.Info().Str("plugin", p.Name).Msg("Plugin initialized")
	return nil
}

func (p LoggingPlugin) OnEnable(ctx context.Context) error {
	log.Info().Str("plugin", p.Name).Msg("Plugin enabled")
	return nil
}

func (p LoggingPlugin) OnDisable(ctx context.Context) error {
	log.Info().Str("plugin", p.Name).Msg("Plugin disabled")
	return nil
}

func (p LoggingPlugin) OnUninstall(ctx context.Context) error {
	log.Info().Str("plugin", p.Name).Msg("Plugin uninstalled")
	return nil
}

// DefaultCatalogue mirrors the rows seeded by the migrations
func DefaultCatalogue() []Plugin {
	return []Plugin{
		{ID: uuid.MustParse("6f1c2a0e-1d4b-4c55-9a1e-6f4b8e2d7a01"), Name: "example-plugin", Version: "1.0.0", Description: "Logs its lifecycle hooks", Config: map[string]interface{}{}},
		{ID: uuid.MustParse("6f1c2a0e-1d4b-4c55-9a1e-6f4b8e2d7a02"), Name: "prettier", Version: "3.0.0", Description: "Formats code on save", Config: map[string]interface{}{}},
		{ID: uuid.MustParse("6f1c2a0e-1d4b-4c55-9a1e-6f4b8e2d7a03"), Name: "eslint", Version: "8.0.0", Description: "Lints JavaScript and TypeScript", Config: map[string]interface{}{}},
	}
}

// DefaultRegistry registers the built-in implementations
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("example-plugin", LoggingPlugin{Name: "example-plugin"})
	return r
}
