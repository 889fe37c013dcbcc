package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jlrojas/cardvault/internal/cardvault/service"
	"github.com/jlrojas/cardvault/internal/cardvault/store"
	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

type Dependencies struct {
	Logger       *zap.Logger
	Addr         string
	Orchestrator *service.AccessOrchestrator
	Bridge       *service.SecureViewBridge
	Audit        store.AuditStore
}

// Server is the thin HTTP surface standing in for the presentation layer:
// it triggers secure-view flows, exposes loading state, and answers audit
// queries. No sensitive card data ever crosses it.
type Server struct {
	httpServer   *http.Server
	logger       *zap.Logger
	mux          *http.ServeMux
	orchestrator *service.AccessOrchestrator
	bridge       *service.SecureViewBridge
	audit        store.AuditStore
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:       d.Logger,
		mux:          mux,
		orchestrator: d.Orchestrator,
		bridge:       d.Bridge,
		audit:        d.Audit,
	}

	mux.HandleFunc("POST /v1/secure-view", s.handleShowSecureCard)
	mux.HandleFunc("GET /v1/secure-view/status", s.handleSecureViewStatus)
	mux.HandleFunc("GET /v1/secure-view/available", s.handleSecureViewAvailable)
	mux.HandleFunc("GET /v1/audit/events", s.handleRecentEvents)
	mux.HandleFunc("GET /v1/audit/high-risk", s.handleHighRiskEvents)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type showSecureCardRequest struct {
	CardID string `json:"card_id"`
}

type showSecureCardResponse struct {
	OK     bool   `json:"ok"`
	CardID string `json:"card_id"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleShowSecureCard(w http.ResponseWriter, r *http.Request) {
	var req showSecureCardRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if req.CardID == "" {
		writeError(w, http.StatusBadRequest, "invalid_card_id", "card_id is required")
		return
	}

	// The flow recovers its own failures; the outcome is read back from the
	// orchestrator state.
	s.orchestrator.ShowSecureCard(r.Context(), req.CardID)

	resp := showSecureCardResponse{OK: true, CardID: req.CardID}
	status := http.StatusOK
	if err := s.orchestrator.Err(); err != nil {
		resp.OK = false
		resp.Error = err.Error()
		if errors.Is(err, service.ErrAccessDenied) {
			status = http.StatusForbidden
		} else {
			status = http.StatusUnprocessableEntity
		}
	}
	writeJSON(w, status, resp)
}

type secureViewStatusResponse struct {
	CardID  string `json:"card_id"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleSecureViewStatus(w http.ResponseWriter, r *http.Request) {
	cardID := r.URL.Query().Get("card_id")
	if cardID == "" {
		writeError(w, http.StatusBadRequest, "invalid_card_id", "card_id is required")
		return
	}

	resp := secureViewStatusResponse{
		CardID:  cardID,
		Loading: s.orchestrator.IsLoadingCard(cardID),
	}
	if err := s.orchestrator.Err(); err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSecureViewAvailable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"available": s.bridge.IsAvailable(r.Context()),
	})
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := s.audit.RecentEvents(r.Context(), limit)
	if err != nil {
		s.logger.Error("recent events query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

func (s *Server) handleHighRiskEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.audit.HighRiskEvents(r.Context())
	if err != nil {
		s.logger.Error("high risk events query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

type eventsResponse struct {
	Events []types.SecurityEvent `json:"events"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
