package search

import (
	"context"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/services/files"
)

type ResultType string

const (
	ResultFile    ResultType = "file"
	ResultContent ResultType = "content"
)

type Result struct {
	Type    ResultType `json:"type"`
	Path    string     `json:"path"`
	Title   string     `json:"title"`
	Preview string     `json:"preview,omitempty"`
	Line    int        `json:"line_number,omitempty"`
}

// Matcher finds files whose path or content contains a query, ignoring case
type Matcher interface {
	MatchPath(ctx context.Context, query string) ([]files.File, error)
	MatchContent(ctx context.Context, query string) ([]files.File, error)
}

type Service struct {
	matcher Matcher
}

func NewService(matcher Matcher) *Service {
	return &Service{matcher: matcher}
}

// Search returns file name matches followed by one content match per
// matching line. A blank query yields no results; store failures are logged
// and yield no results.
func (s *Service) Search(ctx context.Context, query string) []Result {
	if strings.TrimSpace(query) == "" {
		return []Result{}
	}

	byPath, err := s.matcher.MatchPath(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Error searching file names")
		return []Result{}
	}

	byContent, err := s.matcher.MatchContent(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Error searching file contents")
		return []Result{}
	}

	results := make([]Result, 0, len(byPath))
	for _, f := range byPath {
		results = append(results, Result{
			Type:  ResultFile,
			Path:  f.Path,
			Title: title(f.Path),
		})
	}

	needle := strings.ToLower(query)
	for _, f := range byContent {
		for i, line := range strings.Split(f.Content, "\n") {
			if !strings.Contains(strings.ToLower(line), needle) {
				continue
			}
			results = append(results, Result{
				Type:    ResultContent,
				Path:    f.Path,
				Title:   title(f.Path),
				Preview: strings.TrimSpace(line),
				Line:    i + 1,
			})
		}
	}

	log.Debug().Str("query", query).Int("results", len(results)).Msg("Search completed")
	return results
}

func title(p string) string {
	if base := path.Base(p); base != "." && base != "/" {
		return base
	}
	return p
}
