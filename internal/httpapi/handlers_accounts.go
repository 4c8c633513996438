package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"broker-sim/internal/broker"

	"github.com/shopspring/decimal"
)

// AccountsHandler serves the account/order/fill surface named in the
// worked HTTP interface.
type AccountsHandler struct {
	svc *broker.Service
}

// RegisterAccounts attaches the account/position/order/fill routes.
func (s *Server) RegisterAccounts(svc *broker.Service) {
	h := &AccountsHandler{svc: svc}
	s.mux.HandleFunc("POST /accounts", h.handleCreate)
	s.mux.HandleFunc("GET /accounts/{id}", h.handleGetAccount)
	s.mux.HandleFunc("GET /accounts/{id}/positions", h.handlePositions)
	s.mux.HandleFunc("GET /accounts/{id}/orders", h.handleOrders)
	s.mux.HandleFunc("POST /accounts/{id}/orders", h.handlePlaceOrder)
	s.mux.HandleFunc("GET /accounts/{id}/fills", h.handleFills)
}

type createAccountRequest struct {
	InitialCapital float64 `json:"initialCapital"`
}

func (h *AccountsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.InitialCapital <= 0 {
		http.Error(w, "initialCapital must be > 0", http.StatusBadRequest)
		return
	}

	acct, err := h.svc.CreateAccount(r.Context(), decimal.NewFromFloat(req.InitialCapital))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": acct.ID})
}

func (h *AccountsHandler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.GetAccount(r.Context(), r.PathValue("id"))
	if writeAccountError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *AccountsHandler) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.svc.GetPositions(r.Context(), r.PathValue("id"))
	if writeAccountError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (h *AccountsHandler) handleOrders(w http.ResponseWriter, r *http.Request) {
	var status *string
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = &raw
	}
	orders, err := h.svc.GetOrders(r.Context(), r.PathValue("id"), status)
	if writeAccountError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *AccountsHandler) handleFills(w http.ResponseWriter, r *http.Request) {
	fills, err := h.svc.GetFills(r.Context(), r.PathValue("id"))
	if writeAccountError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, fills)
}

func (h *AccountsHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var raw broker.RawOrder
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	order, err := h.svc.PlaceOrder(r.Context(), r.PathValue("id"), raw)
	if writeAccountError(w, err) {
		return
	}
	if order.Status == "REJECTED" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"reason": order.Reason})
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// writeAccountError maps ErrAccountNotFound to 404 and any other error
// to 500; returns true if it wrote a response.
func writeAccountError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, broker.ErrAccountNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return true
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
