package httpapi

import (
	"net/http"

	"broker-sim/internal/broker"
)

// QuotesHandler serves "GET /quotes?symbol=..." using a non-advancing
// peek so that browsing quotes never perturbs the replay stream an
// order placement would consume.
type QuotesHandler struct {
	svc *broker.Service
}

// RegisterQuotes attaches the quotes route.
func (s *Server) RegisterQuotes(svc *broker.Service) {
	h := &QuotesHandler{svc: svc}
	s.mux.HandleFunc("GET /quotes", h.handleGet)
}

func (h *QuotesHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	quote, err := h.svc.PeekQuote(r.Context(), symbol)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
