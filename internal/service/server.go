package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fentz26/radar/internal/store"
)

// Version is reported by /health. The CLI overrides it at startup.
var Version = "dev"

// Server provides the HTTP API for Radar.
type Server struct {
	service *Service
	store   *store.Store
	auth    *Authenticator
	log     logrus.FieldLogger
	addr    string
	server  *http.Server
}

// NewServer creates a new HTTP server. A nil authenticator disables auth.
func NewServer(service *Service, st *store.Store, auth *Authenticator, addr string) *Server {
	return &Server{
		service: service,
		store:   st,
		auth:    auth,
		log:     service.log.WithField("component", "http"),
		addr:    addr,
	}
}

// Handler returns the fully wrapped route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Item endpoints
	mux.HandleFunc("/items", s.handleItems)
	mux.HandleFunc("/items/", s.handleItemByID)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/categories", s.handleCategories)
	mux.HandleFunc("/stats", s.handleStats)

	// Manual order endpoints
	mux.HandleFunc("/order", s.handleOrder)
	mux.HandleFunc("/order/move", s.handleOrderMove)

	// RFID endpoints
	mux.HandleFunc("/scan", s.handleScan)
	mux.HandleFunc("/scan/reset", s.handleScanReset)
	mux.HandleFunc("/rfid/", s.handleTag)

	// Presets
	mux.HandleFunc("/filters", s.handleFilters)
	mux.HandleFunc("/filters/", s.handleFilterByID)
	mux.HandleFunc("/presets", s.handlePresets)
	mux.HandleFunc("/presets/", s.handlePresetByID)

	// Reminders
	mux.HandleFunc("/reminders", s.handleReminders)
	mux.HandleFunc("/reminders/", s.handleReminderByID)

	// Health check and metrics
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", s.service.metrics.Handler())

	return s.instrument(s.authenticate(mux))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.WithField("addr", s.addr).Info("starting radar daemon")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// --- Middleware ---

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// knownRoutes are the metric labels of registered endpoints.
var knownRoutes = map[string]bool{
	"/items": true, "/items/{id}": true, "/snapshot": true, "/categories": true, "/stats": true,
	"/order": true, "/order/move": true,
	"/scan": true, "/scan/reset": true, "/rfid/{id}": true,
	"/filters": true, "/filters/{id}": true,
	"/presets": true, "/presets/{id}": true, "/presets/{id}/apply": true,
	"/reminders": true, "/reminders/{id}": true,
	"/health": true, "/metrics": true,
}

// otherRoute labels every path that matches no registered endpoint.
const otherRoute = "other"

// routeLabel collapses ids out of paths so metric cardinality stays bounded.
func routeLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	var label string
	switch {
	case len(parts) == 1:
		label = "/" + parts[0]
	case parts[0] == "order" || parts[0] == "scan":
		label = "/" + strings.Join(parts, "/")
	case len(parts) == 2:
		label = "/" + parts[0] + "/{id}"
	case len(parts) == 3:
		label = "/" + parts[0] + "/{id}/" + parts[2]
	}
	if !knownRoutes[label] {
		return otherRoute
	}
	return label
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeLabel(r.URL.Path)
		elapsed := time.Since(start)
		m := s.service.metrics
		m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.RequestLatency.WithLabelValues(route).Observe(elapsed.Seconds())

		s.log.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  rec.status,
			"elapsed": elapsed.String(),
		}).Debug("request")
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		if !s.auth.Enabled() {
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), LocalUser)))
			return
		}

		token, err := ExtractToken(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		userID, err := s.auth.Verify(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

// --- Health ---

// HealthResponse is the /health payload.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		resp.OK = false
		resp.DB = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps service errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidItem), errors.Is(err, ErrInvalidQuery),
		errors.Is(err, ErrInvalidReminder), errors.Is(err, ErrInvalidPreset):
		status = http.StatusBadRequest
	case errors.Is(err, ErrDuplicateTag):
		status = http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	http.Error(w, err.Error(), status)
}

// splitPath returns the id and optional action of /prefix/{id}/{action}.
func splitPath(path, prefix string) (id, action string) {
	parts := strings.SplitN(strings.TrimPrefix(path, prefix), "/", 2)
	id = parts[0]
	if len(parts) > 1 {
		action = parts[1]
	}
	return id, action
}
