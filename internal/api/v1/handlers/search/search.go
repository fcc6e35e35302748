package search

import (
	"net/http"

	"github.com/terranocoder/terrano/internal/services/search"
	"github.com/terranocoder/terrano/pkg/httpext"
)

// HandleSearch matches ?q= against file paths and contents
func HandleSearch(svc *search.Service, w http.ResponseWriter, r *http.Request) {
	results := svc.Search(r.Context(), r.URL.Query().Get("q"))
	httpext.Json(w, http.StatusOK, results)
}
