package web

import (
	"net/http"

	"github.com/gridvault/gridvault/internal/logging"
)

// handleCacheSummary reports the view cache hit/miss counters and sizing.
func (s *Server) handleCacheSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.CacheSummary())
}

// handleCacheKeys lists cached document ids, most recently used first.
func (s *Server) handleCacheKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"keys": s.service.CacheKeys()})
}

// handleCacheClear drops cached views. With ?id= only that document's view
// is removed; without it the whole cache is cleared and counters reset.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	if id := r.URL.Query().Get("id"); id != "" {
		removed := s.service.CacheRemove(id)
		logger.Info("cache entry removed", "document", id, "removed", removed)
		writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
		return
	}

	s.service.CacheClear()
	logger.Info("cache cleared")
	w.WriteHeader(http.StatusNoContent)
}
