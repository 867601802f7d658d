package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/arche"
	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/ports"
	"github.com/aretw0/arche/pkg/progress"
	"github.com/aretw0/arche/pkg/project"
	"github.com/aretw0/arche/pkg/record"
	"github.com/aretw0/arche/pkg/tree"
)

// Projects is the project access the server needs. *project.Manager implements it.
type Projects interface {
	Open(ctx context.Context, projectID string) (*arche.Project, error)
	Create(ctx context.Context, projectID string, rec record.Record) (*arche.Project, error)
	Save(ctx context.Context, projectID string) error
	List(ctx context.Context) ([]string, error)
}

// Server serves project introspection, event posting and summary streams.
type Server struct {
	Projects Projects

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer exposes the gatherer's metrics on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler over projects.
func NewHandler(projects Projects, opts ...Option) http.Handler {
	s := &Server{
		Projects: projects,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.ListProjects)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", s.GetProject)
			r.Put("/", s.CreateProject)
			r.Post("/save", s.SaveProject)
			r.Post("/events", s.PostEvent)
			r.Get("/nodes", s.ListNodes)
			r.Route("/nodes/{nodeID}", func(r chi.Router) {
				r.Get("/", s.GetNode)
				r.Get("/summary", s.GetSummary)
				r.Get("/stream", s.StreamSummary)
			})
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":            "arche-http",
		"version":        strings.TrimSpace(arche.Version),
		"record_version": fmt.Sprint(record.SupportedVersion),
	})
}

// ListProjects handles the GET /projects request.
func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Projects.List(r.Context())
	if err != nil {
		s.fail(w, "ListProjects", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"projects": ids})
}

// GetProject handles the GET /projects/{projectID} request: the encoded live tree.
func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.open(w, r)
	if !ok {
		return
	}
	rec, err := p.Record()
	if err != nil {
		s.fail(w, "GetProject", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// CreateProject handles the PUT /projects/{projectID} request with a record body.
func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	rec, err := record.Decode(r.Body, record.FormatJSON)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("CreateProject: Invalid request body", "err", err)
		return
	}
	projectID := chi.URLParam(r, "projectID")
	p, err := s.Projects.Create(r.Context(), projectID, rec)
	if err != nil {
		s.fail(w, "CreateProject", err)
		return
	}
	s.logger.Info("Project created", "project_id", projectID, "nodes", p.Tree().Len())
	s.writeJSON(w, http.StatusCreated, map[string]any{"id": projectID, "nodes": p.Tree().Len()})
}

// SaveProject handles the POST /projects/{projectID}/save request.
func (s *Server) SaveProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if err := s.Projects.Save(r.Context(), projectID); err != nil {
		s.fail(w, "SaveProject", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNodes handles the GET /projects/{projectID}/nodes request.
// Optional filters: ?kind=observation-mesh, ?tag=mesh.
func (s *Server) ListNodes(w http.ResponseWriter, r *http.Request) {
	p, ok := s.open(w, r)
	if !ok {
		return
	}
	t := p.Tree()

	nodes := t.Nodes()
	if tag := r.URL.Query().Get("tag"); tag != "" {
		nodes = t.WithTag(tag)
	}
	if k := r.URL.Query().Get("kind"); k != "" {
		kind, err := domain.ParseKind(k)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filtered := nodes[:0:0]
		for _, n := range nodes {
			if n.Kind() == kind {
				filtered = append(filtered, n)
			}
		}
		nodes = filtered
	}

	infos := make([]tree.Info, 0, len(nodes))
	for _, n := range nodes {
		infos = append(infos, t.Describe(n))
	}
	s.writeJSON(w, http.StatusOK, infos)
}

// GetNode handles the GET /projects/{projectID}/nodes/{nodeID} request.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	p, ok := s.open(w, r)
	if !ok {
		return
	}
	n, err := p.Tree().Get(chi.URLParam(r, "nodeID"))
	if err != nil {
		s.fail(w, "GetNode", err)
		return
	}
	s.writeJSON(w, http.StatusOK, p.Tree().Describe(n))
}

// PostEvent handles the POST /projects/{projectID}/events request.
// The body is an arche.Delivery: {"node": "...", "type": "resolve", "count": 1, "id": "..."}.
func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	var d arche.Delivery
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostEvent: Invalid request body", "err", err)
		return
	}
	p, ok := s.open(w, r)
	if !ok {
		return
	}
	if err := p.Deliver(d); err != nil {
		s.fail(w, "PostEvent", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetSummary handles the GET /projects/{projectID}/nodes/{nodeID}/summary request.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := s.open(w, r)
	if !ok {
		return
	}
	summary, err := p.Summary(chi.URLParam(r, "nodeID"))
	if err != nil {
		s.fail(w, "GetSummary", err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// StreamSummary handles the GET /projects/{projectID}/nodes/{nodeID}/stream request (SSE).
// The first frame is the current summary; one frame follows per fold step.
func (s *Server) StreamSummary(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("StreamSummary: Streaming not supported")
		return
	}
	p, ok := s.open(w, r)
	if !ok {
		return
	}

	nodeID := chi.URLParam(r, "nodeID")
	stream, err := p.Subscribe(r.Context(), nodeID)
	if err != nil {
		s.fail(w, "StreamSummary", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.logger.Info("SSE: Subscribing to summaries", "project_id", p.ID(), "node_id", nodeID)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "node_id", nodeID)
			return
		case summary, ok := <-stream:
			if !ok {
				fmt.Fprintf(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			data, err := json.Marshal(summary)
			if err != nil {
				s.logger.Error("SSE: summary encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: summary\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) open(w http.ResponseWriter, r *http.Request) (*arche.Project, bool) {
	p, err := s.Projects.Open(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, "Open", err)
		return nil, false
	}
	return p, true
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err, "status", status)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrProjectNotFound), errors.Is(err, tree.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, project.ErrProjectExists):
		return http.StatusConflict
	case errors.Is(err, tree.ErrNotAggregating), errors.Is(err, tree.ErrNotRealization):
		return http.StatusUnprocessableEntity
	case errors.Is(err, progress.ErrInvalidEvent):
		return http.StatusBadRequest
	case errors.Is(err, progress.ErrClosed):
		return http.StatusGone
	case errors.Is(err, domain.ErrUnknownKind),
		errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrLeafChildren),
		errors.Is(err, domain.ErrInvalidChild),
		errors.Is(err, tree.ErrDuplicateID),
		errors.Is(err, record.ErrInvalidParameters),
		errors.Is(err, record.ErrUnsupportedVersion),
		errors.Is(err, record.ErrNotRoot):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
