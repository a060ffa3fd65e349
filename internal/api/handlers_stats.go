package api

import (
	"net/http"
)

func (s *Server) handleMathStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "math stats unavailable", http.StatusServiceUnavailable)
		return
	}

	renderer := "offline"
	if s.cfg.MathRenderURL != "" {
		renderer = s.cfg.MathRenderURL
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"renderer":    renderer,
		"stats":       s.stats.Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
