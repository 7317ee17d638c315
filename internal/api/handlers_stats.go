package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleParseStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stats":       s.orchestrator.Stats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

func (s *Server) handleListTaxonomies(w http.ResponseWriter, r *http.Request) {
	profiles := s.orchestrator.Registry().Profiles()

	out := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, map[string]any{
			"filer":    p.Filer,
			"name":     p.Name,
			"sections": len(p.Sections),
			"regions":  len(p.Regions),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"taxonomies": out,
		"count":      len(out),
	})
}
