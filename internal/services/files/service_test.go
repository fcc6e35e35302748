package files

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terranocoder/terrano/internal/infrastructure/postgres"
)

func newTestService() *Service {
	s := NewServiceWithRepository(NewMemoryRepository())
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return s
}

func TestCreate(t *testing.T) {
	s := newTestService()
	project := uuid.New()

	f, err := s.Create(context.Background(), File{ProjectID: project, Path: "/src//components/App.tsx", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "src/components/App.tsx", f.Path)
	assert.Equal(t, "App.tsx", f.Name)
	assert.Equal(t, f.CreatedAt, f.UpdatedAt)

	_, err = s.Create(context.Background(), File{ProjectID: project, Path: "src/components/App.tsx"})
	assert.ErrorIs(t, err, postgres.ErrConflict)

	_, err = s.Create(context.Background(), File{ProjectID: uuid.New(), Path: "src/components/App.tsx"})
	assert.NoError(t, err, "paths are unique per project")

	_, err = s.Create(context.Background(), File{ProjectID: project, Path: "  "})
	assert.ErrorIs(t, err, ErrPathRequired)
}

func TestUpdateStampsUpdatedAt(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	f, err := s.Create(ctx, File{ProjectID: uuid.New(), Path: "main.go", Content: "package main"})
	require.NoError(t, err)

	content := "package main\n\nfunc main() {}"
	updated, err := s.Update(ctx, f.ID, Update{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)
	assert.Equal(t, "main.go", updated.Path)
	assert.True(t, updated.UpdatedAt.After(f.UpdatedAt))

	_, err = s.Update(ctx, uuid.New(), Update{Content: &content})
	assert.ErrorIs(t, err, postgres.ErrNotFound)
}

func TestListByProjectOrderedByPath(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	project := uuid.New()

	for _, p := range []string{"src/z.ts", "README.md", "src/a.ts"} {
		_, err := s.Create(ctx, File{ProjectID: project, Path: p})
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, File{ProjectID: uuid.New(), Path: "other.ts"})
	require.NoError(t, err)

	files, err := s.ListByProject(ctx, project)
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"README.md", "src/a.ts", "src/z.ts"}, paths)
}

func TestGetByPathAndDelete(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	project := uuid.New()

	f, err := s.Create(ctx, File{ProjectID: project, Path: "index.html"})
	require.NoError(t, err)

	got, err := s.GetByPath(ctx, project, "/index.html")
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)

	require.NoError(t, s.Delete(ctx, f.ID))
	_, err = s.GetByPath(ctx, project, "index.html")
	assert.ErrorIs(t, err, postgres.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, f.ID), postgres.ErrNotFound)
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"a.go", "a.go"},
		{"/a/b.go", "a/b.go"},
		{`src\lib\x.ts`, "src/lib/x.ts"},
		{"a/../b.go", "b.go"},
		{"../../etc/passwd", "etc/passwd"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanPath(tt.in), "cleanPath(%q)", tt.in)
	}
}

func TestDeleteByProject(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	doomed, kept := uuid.New(), uuid.New()

	for _, p := range []string{"a.ts", "b.ts"} {
		_, err := s.Create(ctx, File{ProjectID: doomed, Path: p})
		require.NoError(t, err)
	}
	survivor, err := s.Create(ctx, File{ProjectID: kept, Path: "a.ts"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteByProject(ctx, doomed))

	gone, err := s.ListByProject(ctx, doomed)
	require.NoError(t, err)
	assert.Empty(t, gone)

	left, err := s.ListByProject(ctx, kept)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, survivor.ID, left[0].ID)

	assert.NoError(t, s.DeleteByProject(ctx, doomed), "nothing left to delete is fine")
}
