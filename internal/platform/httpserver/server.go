package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	leaderboardservice "turnboard/contexts/turnover/leaderboard-service"
	turnovererrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	turnoverhttp "turnboard/contexts/turnover/leaderboard-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "turnboard/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	turnover leaderboardservice.Module
}

func New(turnover leaderboardservice.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		turnover: turnover,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/turnover/batches", s.handleUploadBatch)
	s.mux.HandleFunc("GET /api/turnover/batches", s.handleListBatches)
	s.mux.HandleFunc("GET /api/turnover/batches/{batch_id}", s.handleBatchDetails)
	s.mux.HandleFunc("POST /api/turnover/batches/{batch_id}/approve", s.handleApproveBatch)
	s.mux.HandleFunc("POST /api/turnover/batches/{batch_id}/reject", s.handleRejectBatch)
	s.mux.HandleFunc("DELETE /api/turnover/batches/{batch_id}", s.handleRollbackBatch)

	s.mux.HandleFunc("GET /api/turnover/leaderboard", s.handleLeaderboard)
	s.mux.HandleFunc("GET /api/turnover/stats", s.handleStats)

	s.mux.HandleFunc("POST /api/turnover/fake", s.handleUpsertSynthetic)
	s.mux.HandleFunc("GET /api/turnover/fake", s.handleListSynthetic)
	s.mux.HandleFunc("DELETE /api/turnover/fake/{config_id}", s.handleDeleteSynthetic)

	s.mux.HandleFunc("GET /api/turnover/players/{username}/history", s.handlePlayerHistory)
	s.mux.HandleFunc("POST /api/turnover/import", s.handleImportHistory)
}

func (s *Server) handleUploadBatch(w http.ResponseWriter, r *http.Request) {
	var req turnoverhttp.UploadBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTurnoverError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.turnover.Handler.UploadBatchHandler(r.Context(), resolveActorEmail(r), req)
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.turnover.Handler.ListBatchesHandler(
		r.Context(),
		query.Get("date"),
		query.Get("country"),
		query.Get("status"),
	)
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatchDetails(w http.ResponseWriter, r *http.Request) {
	resp, err := s.turnover.Handler.BatchDetailsHandler(r.Context(), r.PathValue("batch_id"))
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveBatch(w http.ResponseWriter, r *http.Request) {
	resp, err := s.turnover.Handler.ApproveBatchHandler(
		r.Context(),
		resolveActorEmail(r),
		r.PathValue("batch_id"),
	)
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectBatch(w http.ResponseWriter, r *http.Request) {
	var req turnoverhttp.RejectBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTurnoverError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.turnover.Handler.RejectBatchHandler(
		r.Context(),
		resolveActorEmail(r),
		r.PathValue("batch_id"),
		req,
	)
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRollbackBatch(w http.ResponseWriter, r *http.Request) {
	resp, err := s.turnover.Handler.RollbackBatchHandler(r.Context(), r.PathValue("batch_id"))
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeTurnoverError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}

	resp, err := s.turnover.Handler.LeaderboardHandler(r.Context(), query.Get("date"), limit)
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.turnover.Handler.StatsHandler(
		r.Context(),
		query.Get("mode"),
		query.Get("country"),
		query.Get("date"),
	)
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpsertSynthetic(w http.ResponseWriter, r *http.Request) {
	var req turnoverhttp.UpsertSyntheticRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTurnoverError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.turnover.Handler.UpsertSyntheticHandler(r.Context(), resolveActorEmail(r), req)
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSynthetic(w http.ResponseWriter, r *http.Request) {
	resp, err := s.turnover.Handler.ListSyntheticHandler(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSynthetic(w http.ResponseWriter, r *http.Request) {
	if err := s.turnover.Handler.DeleteSyntheticHandler(r.Context(), r.PathValue("config_id")); err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handlePlayerHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.turnover.Handler.PlayerHistoryHandler(
		r.Context(),
		r.PathValue("username"),
		r.URL.Query().Get("country"),
	)
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	var req turnoverhttp.ImportHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTurnoverError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.turnover.Handler.ImportHistoryHandler(r.Context(), resolveActorEmail(r), req)
	if err != nil {
		writeTurnoverDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func writeTurnoverDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, turnovererrors.ErrBatchNotFound):
		writeTurnoverError(w, http.StatusNotFound, "batch_not_found", err.Error())
	case errors.Is(err, turnovererrors.ErrSyntheticConfigNotFound):
		writeTurnoverError(w, http.StatusNotFound, "config_not_found", err.Error())
	case errors.Is(err, turnovererrors.ErrInvalidStateTransition):
		writeTurnoverError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, turnovererrors.ErrInvalidCountry),
		errors.Is(err, turnovererrors.ErrInvalidDate),
		errors.Is(err, turnovererrors.ErrUnknownSlot),
		errors.Is(err, turnovererrors.ErrNoValidRows),
		errors.Is(err, turnovererrors.ErrRejectReasonRequired),
		errors.Is(err, turnovererrors.ErrInvalidSyntheticConfig),
		errors.Is(err, turnovererrors.ErrInvalidStatsMode),
		errors.Is(err, turnovererrors.ErrUsernameRequired):
		writeTurnoverError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeTurnoverError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTurnoverError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, turnoverhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// resolveActorEmail returns the authenticated operator identity. Cloudflare
// Access injects the first header; the second is the local dev override.
func resolveActorEmail(r *http.Request) string {
	if email := strings.TrimSpace(r.Header.Get("Cf-Access-Authenticated-User-Email")); email != "" {
		return email
	}
	return strings.TrimSpace(r.Header.Get("X-Verifier-Email"))
}
