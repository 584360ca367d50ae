package api

import "net/http"

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.orchestrator.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"overall":     stats.Snapshot(),
		"by_dataset":  stats.ByDataset(),
	})
}
