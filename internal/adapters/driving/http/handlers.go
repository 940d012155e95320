package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// maxBodyBytes caps request bodies; chat history is the largest payload
const maxBodyBytes = 1 << 20

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse represents a simple status response
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse reports liveness with admission counters
type HealthResponse struct {
	Status     string `json:"status"`
	Sessions   int    `json:"sessions"`
	QueueDepth int    `json:"queue_depth"`
	Busy       bool   `json:"busy"`
}

// ReadyResponse reports per-backend availability
type ReadyResponse struct {
	Status   string          `json:"status"`
	Backends map[string]bool `json:"backends,omitempty"`
}

// VersionResponse represents the API version response
type VersionResponse struct {
	Version string `json:"version"`
}

// TurnResponse reports the caller's place after requesting or releasing a turn
type TurnResponse struct {
	Position   int  `json:"position"`
	Processing bool `json:"processing"`
	QueueDepth int  `json:"queue_depth"`
}

// Health endpoints

// handleHealth reports liveness with admission counters
// @Summary      Health check
// @Description  Returns liveness plus session and queue counters
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.admissionService != nil {
		stats := s.admissionService.Stats()
		resp.Sessions = stats.Sessions
		resp.QueueDepth = stats.QueueDepth
		resp.Busy = stats.Busy
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReady reports 503 until every backend has passed a probe
// @Summary      Readiness check
// @Description  Returns per-backend readiness (vector index, site store, embedding, generation)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse  "One or more backends down"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readiness == nil {
		writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
		return
	}
	resp := ReadyResponse{Status: "ready", Backends: s.readiness.Readiness()}
	if !s.readiness.Ready() {
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Summary      Get API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Session endpoints

// handleConnect claims an access code for the caller
// @Summary      Connect a session
// @Description  Claims an access code. Connecting with a code already in use takes the session over.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        request  body      domain.ConnectRequest  true  "Access code"
// @Success      200      {object}  domain.ConnectResponse
// @Failure      400      {object}  ErrorResponse  "Missing access code"
// @Failure      401      {object}  ErrorResponse  "Unknown access code"
// @Router       /session/connect [post]
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req domain.ConnectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.sessionService.Connect(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "access_code is required")
		case errors.Is(err, domain.ErrInvalidAccessCode):
			writeError(w, http.StatusUnauthorized, "invalid access code")
		default:
			s.logger.Error("connect failed", "error", err)
			writeError(w, http.StatusInternalServerError, "connect failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// @Summary      Disconnect a session
// @Tags         Session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /session/disconnect [post]
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if err := s.sessionService.Disconnect(r.Context(), authCtx.SessionToken); err != nil {
		writeError(w, statusFor(err), "not connected")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "disconnected"})
}

// handleHeartbeat keeps the session alive; authentication already touched it
// @Summary      Keep a session alive
// @Tags         Session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.QueueStatus
// @Router       /session/heartbeat [post]
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	writeJSON(w, http.StatusOK, s.admissionService.Status(authCtx.SessionToken))
}

// Queue endpoints

// @Summary      Queue position of the caller
// @Tags         Queue
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.QueueStatus
// @Router       /queue/status [get]
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	writeJSON(w, http.StatusOK, s.admissionService.Status(authCtx.SessionToken))
}

// @Summary      Request the inference turn
// @Tags         Queue
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  TurnResponse
// @Failure      409  {object}  ErrorResponse  "Not connected"
// @Router       /queue/turn [post]
func (s *Server) handleRequestTurn(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	position, err := s.admissionService.RequestTurn(authCtx.SessionToken)
	if err != nil {
		writeError(w, statusFor(err), "not connected")
		return
	}
	writeJSON(w, http.StatusOK, TurnResponse{
		Position:   position,
		Processing: position == domain.PositionProcessing,
		QueueDepth: s.admissionService.Stats().QueueDepth,
	})
}

// handleFinishTurn releases the turn, or the queue place if still waiting
// @Summary      Release the turn or leave the queue
// @Tags         Queue
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  TurnResponse
// @Failure      409  {object}  ErrorResponse  "No turn requested"
// @Router       /queue/finish [post]
func (s *Server) handleFinishTurn(w http.ResponseWriter, r *http.Request) {
	token := GetAuthContext(r.Context()).SessionToken
	switch s.admissionService.PositionOf(token) {
	case domain.PositionProcessing:
		s.admissionService.FinishTurn(token)
	case domain.PositionIdle:
		writeError(w, http.StatusConflict, "no turn requested")
		return
	default:
		s.admissionService.LeaveQueue(token)
	}
	writeJSON(w, http.StatusOK, TurnResponse{
		Position:   domain.PositionIdle,
		QueueDepth: s.admissionService.Stats().QueueDepth,
	})
}

// Search endpoints

type searchRequest struct {
	Query       string         `json:"query"`
	Sources     []string       `json:"sources,omitempty"`
	Filters     domain.Filters `json:"filters"`
	Limit       int            `json:"limit,omitempty"`
	NearFeature string         `json:"near_feature,omitempty"`
	RadiusKm    float64        `json:"radius_km,omitempty"`
}

type searchResponse struct {
	Results []domain.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// @Summary      Search site collections
// @Description  Semantic search across collections, or a proximity search when near_feature is set
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      searchRequest  true  "Query, sources and filters"
// @Success      200      {object}  searchResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse  "Backends unavailable"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		results []domain.SearchResult
		err     error
	)
	switch {
	case req.NearFeature != "":
		results, err = s.searchService.SearchNearFeature(r.Context(), req.NearFeature, req.Sources, req.RadiusKm, req.Limit)
	case strings.TrimSpace(req.Query) == "":
		writeError(w, http.StatusBadRequest, "query is required")
		return
	default:
		results, err = s.searchService.Search(r.Context(), req.Query, domain.SearchOptions{
			Sources: req.Sources,
			Filters: req.Filters.Normalize(),
			Limit:   req.Limit,
		})
	}
	if err != nil {
		s.logger.Warn("search failed", "error", err)
		writeError(w, statusFor(err), "search failed")
		return
	}

	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results, Count: len(results)})
}

type analyzeRequest struct {
	Query string `json:"query"`
}

// handleAnalyze returns the classification and parse of a query without searching
// @Summary      Classify and parse a query
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      analyzeRequest  true  "Query"
// @Success      200      {object}  domain.QueryAnalysis
// @Router       /query/analyze [post]
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	writeJSON(w, http.StatusOK, s.analyzer.Analyze(req.Query))
}

// @Summary      List searchable collections
// @Tags         Search
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Collection
// @Router       /collections [get]
func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.searchService.Collections(r.Context())
	if err != nil {
		writeError(w, statusFor(err), "failed to list collections")
		return
	}
	writeJSON(w, http.StatusOK, collections)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnknownCollection):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON body, writing a 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
