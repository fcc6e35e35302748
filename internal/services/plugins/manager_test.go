package plugins

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
)

type recordingHooks struct {
	mu      sync.Mutex
	events  []string
	initErr error
}

func (h *recordingHooks) record(event string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *recordingHooks) Events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func (h *recordingHooks) OnInit(ctx context.Context) error {
	h.record("init")
	return h.initErr
}

func (h *recordingHooks) OnEnable(ctx context.Context) error {
	h.record("enable")
	return nil
}

func (h *recordingHooks) OnDisable(ctx context.Context) error {
	h.record("disable")
	return nil
}

func (h *recordingHooks) OnUninstall(ctx context.Context) error {
	h.record("uninstall")
	return errors.New("cleanup failed")
}

func catalogueID(t *testing.T, name string) uuid.UUID {
	t.Helper()
	for _, p := range DefaultCatalogue() {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("plugin %s not in catalogue", name)
	return uuid.Nil
}

func newTestManager() (*Manager, *recordingHooks) {
	hooks := &recordingHooks{}
	registry := NewRegistry()
	registry.Register("prettier", hooks)
	return NewManagerWithRepository(NewMemoryRepository(DefaultCatalogue()...), registry), hooks
}

func TestInstallAndAvailable(t *testing.T) {
	m, hooks := newTestManager()
	ctx := context.Background()
	project := uuid.New()

	available, err := m.Available(ctx, project)
	require.NoError(t, err)
	assert.Len(t, available, 3)

	pp, err := m.Install(ctx, project, catalogueID(t, "prettier"))
	require.NoError(t, err)
	assert.True(t, pp.Enabled)
	assert.Equal(t, "prettier", pp.Plugin.Name)
	assert.Equal(t, []string{"init"}, hooks.Events())

	_, err = m.Install(ctx, project, catalogueID(t, "prettier"))
	assert.ErrorIs(t, err, postgres.ErrConflict)

	available, err = m.Available(ctx, project)
	require.NoError(t, err)
	var names []string
	for _, p := range available {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"eslint", "example-plugin"}, names)

	other, err := m.Available(ctx, uuid.New())
	require.NoError(t, err)
	assert.Len(t, other, 3, "installs are per project")
}

func TestInstallUnknownPlugin(t *testing.T) {
	m, _ := newTestManager()

	_, err := m.Install(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, postgres.ErrNotFound)
}

func TestToggle(t *testing.T) {
	m, hooks := newTestManager()
	ctx := context.Background()

	pp, err := m.Install(ctx, uuid.New(), catalogueID(t, "prettier"))
	require.NoError(t, err)

	off, err := m.Toggle(ctx, pp.ID, false)
	require.NoError(t, err)
	assert.False(t, off.Enabled)

	on, err := m.Toggle(ctx, pp.ID, true)
	require.NoError(t, err)
	assert.True(t, on.Enabled)

	assert.Equal(t, []string{"init", "disable", "enable"}, hooks.Events())

	_, err = m.Toggle(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, postgres.ErrNotFound)
}

func TestUninstallHookFailureStillRemoves(t *testing.T) {
	m, hooks := newTestManager()
	ctx := context.Background()
	project := uuid.New()

	pp, err := m.Install(ctx, project, catalogueID(t, "prettier"))
	require.NoError(t, err)

	require.NoError(t, m.Uninstall(ctx, pp.ID))
	assert.Equal(t, []string{"init", "uninstall"}, hooks.Events())

	installed, err := m.ProjectPlugins(ctx, project)
	require.NoError(t, err)
	assert.Empty(t, installed)

	assert.ErrorIs(t, m.Uninstall(ctx, pp.ID), postgres.ErrNotFound)
}

func TestLoad(t *testing.T) {
	m, hooks := newTestManager()
	ctx := context.Background()
	project := uuid.New()

	prettier, err := m.Install(ctx, project, catalogueID(t, "prettier"))
	require.NoError(t, err)
	_, err = m.Install(ctx, project, catalogueID(t, "eslint"))
	require.NoError(t, err)

	loaded, err := m.Load(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, []string{"prettier"}, loaded, "eslint has no implementation")

	_, err = m.Toggle(ctx, prettier.ID, false)
	require.NoError(t, err)
	loaded, err = m.Load(ctx, project)
	require.NoError(t, err)
	assert.Empty(t, loaded, "disabled plugins are not loaded")

	_, err = m.Toggle(ctx, prettier.ID, true)
	require.NoError(t, err)
	hooks.mu.Lock()
	hooks.initErr = errors.New("bad config")
	hooks.mu.Unlock()

	loaded, err = m.Load(ctx, project)
	require.NoError(t, err, "hook failures do not abort loading")
	assert.Empty(t, loaded)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	h, ok := r.Lookup("example-plugin")
	require.True(t, ok)
	assert.NoError(t, h.OnInit(context.Background()))
	assert.Equal(t, []string{"example-plugin"}, r.Names())

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}
