package httpapi

import (
	"encoding/json"
	"net/http"
)

// RegisterHealth attaches the liveness endpoint used by the worked
// HTTP interface ("GET /actuator/health").
func (s *Server) RegisterHealth() {
	s.mux.HandleFunc("/actuator/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "UP"})
	})
}
