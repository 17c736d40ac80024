package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/internal/domain/run"
	"wsbsentiment/internal/services/analysis"
	"wsbsentiment/pkg/errors"
	"wsbsentiment/pkg/logger"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// AnalysisService is what the HTTP layer needs from the orchestrator
type AnalysisService interface {
	Trigger(ctx context.Context) (string, error)
	Status() run.Status
	LatestSentiment(ctx context.Context) (*post.Snapshot, error)
	LatestPosts(ctx context.Context) ([]post.Post, error)
	History(ctx context.Context, limit int) ([]run.Record, error)
}

// Handlers serves the /api routes
type Handlers struct {
	service AnalysisService
	log     *logger.Logger
}

// NewHandlers creates the API handlers
func NewHandlers(service AnalysisService, log *logger.Logger) *Handlers {
	return &Handlers{service: service, log: log.Component("api")}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type analyzeResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	RunID   string `json:"run_id"`
}

type postsResponse struct {
	Posts []post.Post `json:"posts"`
	Count int         `json:"count"`
}

type sentimentResponse struct {
	Sentiment   []post.AnalyzedPost `json:"sentiment"`
	Count       int                 `json:"count"`
	RunID       string              `json:"run_id,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

type runsResponse struct {
	Runs  []run.Record `json:"runs"`
	Count int          `json:"count"`
}

// Status handles GET /api/status
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status())
}

// Analyze handles POST /api/analyze: 202 when a run starts, 409 if one is active
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	runID, err := h.service.Trigger(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Infow("Analysis triggered via API", "run_id", runID, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusAccepted, analyzeResponse{
		Message: "Analysis started",
		Status:  string(run.StateRunning),
		RunID:   runID,
	})
}

// Posts handles GET /api/posts
func (h *Handlers) Posts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.LatestPosts(r.Context())
	if err != nil {
		h.writeError(w, errors.Wrap(err, "No posts data found"))
		return
	}
	writeJSON(w, http.StatusOK, postsResponse{Posts: posts, Count: len(posts)})
}

// Sentiment handles GET /api/sentiment?label=&ticker=
func (h *Handlers) Sentiment(w http.ResponseWriter, r *http.Request) {
	filter, err := analysis.ParseFilter(r.URL.Query().Get("label"), r.URL.Query().Get("ticker"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	snap, err := h.service.LatestSentiment(r.Context())
	if err != nil {
		h.writeError(w, errors.Wrap(err, "No sentiment data found"))
		return
	}

	posts := filter.Apply(snap.Posts)
	resp := sentimentResponse{
		Sentiment: posts,
		Count:     len(posts),
		RunID:     snap.RunID,
	}
	if !snap.CompletedAt.IsZero() {
		resp.CompletedAt = &snap.CompletedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// Runs handles GET /api/runs?limit=
func (h *Handlers) Runs(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, errors.NewValidationError("limit", "must be a positive integer", raw))
			return
		}
		limit = min(n, maxRunsLimit)
	}

	records, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if records == nil {
		records = []run.Record{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Runs: records, Count: len(records)})
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps domain errors to status codes
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var verr *errors.ValidationError

	switch {
	case errors.Is(err, errors.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Detail: "Analysis is already running"})
	case errors.Is(err, errors.ErrNoSnapshot), errors.Is(err, errors.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: err.Error()})
	case errors.As(err, &verr), errors.Is(err, errors.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
	case errors.Is(err, errors.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: err.Error()})
	default:
		h.log.Errorw("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
