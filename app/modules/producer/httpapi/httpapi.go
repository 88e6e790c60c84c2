// Package httpapi exposes the producer adapter over HTTP. Submissions are
// accepted with 202 and a task id; callers poll the task endpoint for the
// outcome.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/taskstore"
	produceradapter "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/producer/adapter"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/modules/producer/contract"
	"github.com/Lakeshore-Soccer-Club/matchsync/app/shared/attr"
)

// Submitter is the part of the producer adapter the API needs.
type Submitter interface {
	Submit(ctx context.Context, obs produceradapter.Observation) (produceradapter.TaskHandle, error)
	ImportBatch(ctx context.Context, observations []produceradapter.Observation) []produceradapter.BatchResult
}

// Server holds the API dependencies.
type Server struct {
	adapter Submitter
	tasks   taskstore.Store
	logger  *slog.Logger
}

// NewServer builds the API server.
func NewServer(adapter Submitter, tasks taskstore.Store, logger *slog.Logger) *Server {
	return &Server{
		adapter: adapter,
		tasks:   tasks,
		logger:  logger,
	}
}

// Routes builds the chi router for the producer API.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/matches", s.handleSubmit)
		r.Post("/matches/batch", s.handleBatch)
		r.Get("/tasks/{taskID}", s.handleTask)
	})
	return r
}

// matchRequest is the HTTP shape of one scraped match.
type matchRequest struct {
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	Date       string `json:"date"`
	Season     string `json:"season"`
	AgeGroup   string `json:"age_group"`
	MatchType  string `json:"match_type"`
	Division   string `json:"division,omitempty"`
	HomeScore  *int   `json:"score_home,omitempty"`
	AwayScore  *int   `json:"score_away,omitempty"`
	Status     string `json:"status,omitempty"`
	ExternalID string `json:"match_id,omitempty"`
	Location   string `json:"location,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (m matchRequest) observation() produceradapter.Observation {
	return produceradapter.Observation{
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		Date:       m.Date,
		Season:     m.Season,
		AgeGroup:   m.AgeGroup,
		MatchType:  m.MatchType,
		Division:   m.Division,
		HomeScore:  m.HomeScore,
		AwayScore:  m.AwayScore,
		Status:     m.Status,
		ExternalID: m.ExternalID,
		Location:   m.Location,
		Notes:      m.Notes,
	}
}

type batchRequest struct {
	Matches []matchRequest `json:"matches"`
}

type errorResponse struct {
	Error  string                `json:"error"`
	Fields []contract.FieldError `json:"fields,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("failed to decode request body: %v", err)})
		return
	}

	handle, err := s.adapter.Submit(r.Context(), req.observation())
	if err != nil {
		var verr *contract.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "contract violation", Fields: verr.Fields})
			return
		}
		s.logger.ErrorContext(r.Context(), "submission failed", attr.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to submit match"})
		return
	}

	writeJSON(w, http.StatusAccepted, handle)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("failed to decode request body: %v", err)})
		return
	}
	if len(req.Matches) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "matches must not be empty"})
		return
	}

	observations := make([]produceradapter.Observation, len(req.Matches))
	for i, m := range req.Matches {
		observations[i] = m.observation()
	}

	results := s.adapter.ImportBatch(r.Context(), observations)
	writeJSON(w, http.StatusAccepted, map[string]any{"results": results})
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	result, err := s.tasks.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "task not found"})
			return
		}
		s.logger.ErrorContext(r.Context(), "task lookup failed", attr.TaskID(taskID), attr.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to fetch task"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
