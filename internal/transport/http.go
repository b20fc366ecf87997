package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/build"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/project"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/session"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
)

// ProjectService lists discoverable projects.
type ProjectService interface {
	List(ctx context.Context) ([]project.Project, error)
}

// BuildService runs project builds.
type BuildService interface {
	Build(ctx context.Context, projectID string) (*build.Result, error)
}

// StatsService records launches and ratings and derives snapshots.
type StatsService interface {
	RecordLaunch(ctx context.Context, projectID string) (uint64, error)
	RecordRating(ctx context.Context, projectID string, value float64) (uint64, error)
	Snapshot(ctx context.Context) (*stats.Snapshot, error)
}

// SessionService lists realtime sessions.
type SessionService interface {
	List(ctx context.Context, limit int) ([]session.Session, error)
}

// ActivityService lists activity entries.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services are the collaborators the router dispatches to. Realtime and MCP
// are optional.
type Services struct {
	Projects ProjectService
	Builds   BuildService
	Stats    StatsService
	Sessions SessionService
	Activity ActivityService
	Realtime http.Handler
	MCP      http.Handler
}

// Server wires HTTP handlers.
type Server struct {
	svc    Services
	logger *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(svc Services, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(LoggingMiddleware(logger))

		r.Get("/projects", srv.handleListProjects)
		r.Post("/build/{id}", srv.handleBuild)
		r.Get("/stats", srv.handleStats)
		r.Post("/launch/{id}", srv.handleLaunch)
		r.Post("/rate/{id}", srv.handleRate)
		r.Get("/sessions", srv.handleListSessions)
		r.Get("/activity", srv.handleListActivity)
	})

	if svc.Realtime != nil {
		r.Handle("/ws", svc.Realtime)
	}
	if svc.MCP != nil {
		r.Handle("/mcp", svc.MCP)
	}

	return r
}

// BuildResponse is the body of a successful build.
type BuildResponse struct {
	Success bool   `json:"success"`
	Logs    string `json:"logs"`
}

// LaunchResponse is the body of a recorded launch.
type LaunchResponse struct {
	Success  bool   `json:"success"`
	Launches uint64 `json:"launches"`
}

// RateRequest is the body of a rating submission.
type RateRequest struct {
	Rating *float64 `json:"rating"`
}

// RateResponse is the body of a recorded rating.
type RateResponse struct {
	Success     bool   `json:"success"`
	RatingCount uint64 `json:"ratingCount"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.Projects.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Builds.Build(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BuildResponse{Success: true, Logs: result.Logs})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Stats.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	count, err := s.svc.Stats.RecordLaunch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LaunchResponse{Success: true, Launches: count})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Rating == nil {
		s.writeError(w, r, fmt.Errorf("%w: rating is required", ErrBadRequest))
		return
	}

	count, err := s.svc.Stats.RecordRating(r.Context(), chi.URLParam(r, "id"), *req.Rating)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RateResponse{Success: true, RatingCount: count})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.svc.Sessions.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := activity.ListActivityOptions{
		ProjectID: r.URL.Query().Get("project"),
		Limit:     limit,
	}
	if typ := r.URL.Query().Get("type"); typ != "" {
		t := activity.ActivityType(typ)
		opts.ActivityType = &t
	}

	entries, err := s.svc.Activity.GetRecentActivity(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := MapError(err)
	resp := ErrorResponse{Error: msg}

	var failure *build.Failure
	if errors.As(err, &failure) {
		resp.Details = failure.Logs
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, resp)
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return v, nil
}
