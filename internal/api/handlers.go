package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bull/commitscope/internal/mcp"
	"github.com/bull/commitscope/internal/search"
)

type handlers struct {
	searcher  mcp.Searcher
	processor mcp.Processor
	logger    *slog.Logger
}

// search handles GET /search?query=. It always answers 200.
func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	results := h.searcher.Search(r.Context(), r.URL.Query().Get("query"))
	if results == nil {
		results = []search.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// process handles GET /process?user=. Failures are logged and reported as a
// bare 500 so internal details never reach the caller.
func (h *handlers) process(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "missing required query parameter: user", http.StatusBadRequest)
		return
	}

	result, err := h.processor.Process(r.Context(), user)
	if err != nil {
		h.logger.Error("Processing failed", "user", user, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
