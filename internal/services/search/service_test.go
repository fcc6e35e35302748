package search

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terranocoder/terrano/internal/services/files"
)

type failingMatcher struct{}

func (failingMatcher) MatchPath(ctx context.Context, query string) ([]files.File, error) {
	return nil, errors.New("connection refused")
}

func (failingMatcher) MatchContent(ctx context.Context, query string) ([]files.File, error) {
	return nil, errors.New("connection refused")
}

func seed(t *testing.T) *files.MemoryRepository {
	t.Helper()

	repo := files.NewMemoryRepository()
	project := uuid.New()
	for _, f := range []files.File{
		{Path: "src/lib/deepseek.ts", Content: "export const API = 'x';\n  const key = getDeepSeekKey();\n"},
		{Path: "src/App.tsx", Content: "import { DeepSeek } from './lib/deepseek';\nrender(<App />);"},
		{Path: "README.md", Content: "nothing here"},
	} {
		f.ID = uuid.New()
		f.ProjectID = project
		require.NoError(t, repo.Create(context.Background(), f))
	}
	return repo
}

func TestSearch(t *testing.T) {
	s := NewService(seed(t))

	results := s.Search(context.Background(), "DeepSeek")

	assert.Equal(t, []Result{
		{Type: ResultFile, Path: "src/lib/deepseek.ts", Title: "deepseek.ts"},
		{Type: ResultContent, Path: "src/App.tsx", Title: "App.tsx", Preview: "import { DeepSeek } from './lib/deepseek';", Line: 1},
		{Type: ResultContent, Path: "src/lib/deepseek.ts", Title: "deepseek.ts", Preview: "const key = getDeepSeekKey();", Line: 2},
	}, results)
}

func TestSearchBlankQuery(t *testing.T) {
	s := NewService(seed(t))

	for _, q := range []string{"", "   ", "\t\n"} {
		assert.Empty(t, s.Search(context.Background(), q), "query %q", q)
	}
}

func TestSearchNoMatches(t *testing.T) {
	s := NewService(seed(t))
	assert.Empty(t, s.Search(context.Background(), "kubernetes"))
}

func TestSearchStoreFailure(t *testing.T) {
	s := NewService(failingMatcher{})

	results := s.Search(context.Background(), "x")
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "b.go", title("a/b.go"))
	assert.Equal(t, "b.go", title("b.go"))
}
