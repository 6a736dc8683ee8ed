// Package http exposes the plot service over a JSON API with server-sent events.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	plotcalc "github.com/AbhinitBarua/PlottingCalculator"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/gonumplot"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves the HTTP API of a plotcalc.Service.
type Server struct {
	Service  Service
	Streams  *StreamManager
	Renderer *gonumplot.Renderer
	Metrics  http.Handler
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager, typically the one whose Sink feeds the Service.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) {
		s.Streams = streams
	}
}

// WithRenderer sets the renderer used for image endpoints.
func WithRenderer(r *gonumplot.Renderer) Option {
	return func(s *Server) {
		s.Renderer = r
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc Service, opts ...Option) http.Handler {
	server := &Server{
		Service: svc,
		Logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.Logger)
	}
	if server.Renderer == nil {
		server.Renderer = gonumplot.NewRenderer()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(server.logRequests)
	r.Use(enableCORS)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.Metrics)
	}
	r.Post("/calculate", server.Calculate)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", server.CreateSession)
		r.Get("/", server.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.DeleteSession)
			r.Post("/functions", server.AddFunction)
			r.Delete("/functions/{index}", server.RemoveFunction)
			r.Put("/domain", server.SetDomain)
			r.Get("/series", server.GetSeries)
			r.Get("/plot.{format}", server.GetPlotImage)
			r.Get("/events", server.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.Ping(r.Context()); err != nil {
		s.Logger.Error("Health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "plotcalc-http",
		"version": plotcalc.Version,
	})
}

// Calculate handles POST /calculate.
func (s *Server) Calculate(w http.ResponseWriter, r *http.Request) {
	var body CalculateRequest
	if !s.decode(w, r, &body) {
		return
	}
	writeJSON(w, http.StatusOK, CalculateResponse{Result: s.Service.Calculate(r.Context(), body.Expression)})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Service.CreateSession(r.Context())
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	w.Header().Set("Location", "/sessions/"+state.SessionID)
	writeJSON(w, http.StatusCreated, newSessionView(state))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.ListSessions(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Service.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(state))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Service.DeleteSession(r.Context(), id); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	s.Streams.Broadcast(id, Message{Event: EventDeleted, Data: strconv.Quote(id)})
	w.WriteHeader(http.StatusNoContent)
}

// AddFunction handles POST /sessions/{id}/functions.
func (s *Server) AddFunction(w http.ResponseWriter, r *http.Request) {
	var body AddFunctionRequest
	if !s.decode(w, r, &body) {
		return
	}
	d, err := body.bounds()
	if err != nil {
		s.fail(w, "AddFunction", err)
		return
	}

	id := chi.URLParam(r, "id")
	change, err := s.Service.AddFunction(r.Context(), id, body.Expression, d)
	if err != nil {
		s.fail(w, "AddFunction", err)
		return
	}
	s.publish(id, change)
	writeJSON(w, http.StatusCreated, ChangeResponse{Function: change.Function, Session: newSessionView(change.State)})
}

// RemoveFunction handles DELETE /sessions/{id}/functions/{index}.
func (s *Server) RemoveFunction(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	id := chi.URLParam(r, "id")
	change, err := s.Service.RemoveFunction(r.Context(), id, index)
	if err != nil {
		s.fail(w, "RemoveFunction", err)
		return
	}
	s.publish(id, change)
	writeJSON(w, http.StatusOK, ChangeResponse{Function: change.Function, Session: newSessionView(change.State)})
}

// SetDomain handles PUT /sessions/{id}/domain.
func (s *Server) SetDomain(w http.ResponseWriter, r *http.Request) {
	var body domain.Domain
	if !s.decode(w, r, &body) {
		return
	}

	id := chi.URLParam(r, "id")
	change, err := s.Service.SetDomain(r.Context(), id, body)
	if err != nil {
		s.fail(w, "SetDomain", err)
		return
	}
	s.publish(id, change)
	writeJSON(w, http.StatusOK, ChangeResponse{Session: newSessionView(change.State)})
}

// GetSeries handles GET /sessions/{id}/series.
func (s *Server) GetSeries(w http.ResponseWriter, r *http.Request) {
	plot, err := s.Service.Plot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSeries", err)
		return
	}
	writeJSON(w, http.StatusOK, plot)
}

// GetPlotImage handles GET /sessions/{id}/plot.{format}.
func (s *Server) GetPlotImage(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	if !gonumplot.IsFormat(format) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unsupported image format %q", format))
		return
	}

	plot, err := s.Service.Plot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetPlotImage", err)
		return
	}

	sink := gonumplot.NewBufferSink(format, s.Renderer)
	if err := sink.Replace(r.Context(), plot); err != nil {
		s.fail(w, "GetPlotImage", err)
		return
	}
	image := sink.Bytes()
	w.Header().Set("Content-Type", gonumplot.ContentType(format))
	w.Header().Set("Content-Length", strconv.Itoa(len(image)))
	_, _ = w.Write(image)
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// The first "diff" event carries the whole session; later ones carry changes only.
// ?watch=diff,plot restricts the stream to the named events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	state, err := s.Service.View(r.Context(), id)
	if err != nil {
		s.fail(w, "SubscribeEvents", err)
		return
	}

	watch := map[string]bool{}
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			watch[strings.TrimSpace(field)] = true
		}
	}
	wants := func(event string) bool {
		return len(watch) == 0 || watch[event]
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.Logger.Info("SSE: Subscribing to session updates", "session_id", id)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if wants(EventDiff) {
		if data, err := json.Marshal(domain.Diff(nil, state)); err == nil {
			writeEvent(w, Message{Event: EventDiff, Data: string(data)})
		}
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !wants(msg.Event) {
				continue
			}
			writeEvent(w, msg)
			flusher.Flush()
			if msg.Event == EventDeleted {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, msg Message) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
}

func (s *Server) publish(sessionID string, change *plotcalc.Change) {
	if change.Diff == nil {
		return
	}
	if err := s.Streams.BroadcastJSON(sessionID, EventDiff, change.Diff); err != nil {
		s.Logger.Error("Diff broadcast failed", "session_id", sessionID, "err", err)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		s.Logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

// fail maps err to a status code: input problems are 400, unknown sessions or indexes 404.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case plotcalc.IsUserError(err):
		writeError(w, http.StatusBadRequest, domain.UserMessage(err))
	case plotcalc.IsNotFound(err):
		writeError(w, http.StatusNotFound, domain.UserMessage(err))
	default:
		s.Logger.Error(op+" failed", "err", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s error: %v", op, err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

var errPartialDomain = fmt.Errorf("%w: x_min and x_max must be given together", domain.ErrInvalidDomain)

func (b AddFunctionRequest) bounds() (*domain.Domain, error) {
	switch {
	case b.XMin == nil && b.XMax == nil:
		return nil, nil
	case b.XMin == nil || b.XMax == nil:
		return nil, errPartialDomain
	}
	return &domain.Domain{XMin: *b.XMin, XMax: *b.XMax}, nil
}

