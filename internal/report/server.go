package report

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"storebench/internal/config"
	"storebench/internal/logging"
)

// Server exposes finished suite results over HTTP.
type Server struct {
	config *config.ReportConfig
	store  *Store
	logger *logging.Logger
	server *http.Server
}

// NewServer creates a report server over the given store.
func NewServer(cfg *config.ReportConfig, store *Store, logger *logging.Logger) *Server {
	return &Server{
		config: cfg,
		store:  store,
		logger: logger,
	}
}

// SetupRoutes configures the result-browsing routes.
func (s *Server) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/suites", s.ListSuites).Methods(http.MethodGet)
	api.HandleFunc("/suites/{name}", s.GetSuite).Methods(http.MethodGet)
	api.HandleFunc("/suites/{name}/summary", s.GetSummary).Methods(http.MethodGet)

	router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)

	return router
}

// Start begins serving; it blocks like http.Server.ListenAndServe.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.config.ServeAddr,
		Handler:      s.SetupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	if s.logger != nil {
		s.logger.Info("Starting report server", "address", s.config.ServeAddr)
	}
	return s.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		if s.logger != nil {
			s.logger.Info("Stopping report server")
		}
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil && s.logger != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// GET /api/suites
func (s *Server) ListSuites(w http.ResponseWriter, r *http.Request) {
	suites := s.store.List()
	summaries := make([]Summary, 0, len(suites))
	for _, suite := range suites {
		summaries = append(summaries, Summarize(suite))
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"count":  len(summaries),
		"suites": summaries,
	})
}

// GET /api/suites/{name}
func (s *Server) GetSuite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	suite, ok := s.store.Get(vars["name"])
	if !ok {
		s.writeJSONResponse(w, http.StatusNotFound, map[string]string{
			"error": "suite not found",
		})
		return
	}
	s.writeJSONResponse(w, http.StatusOK, suite)
}

// GET /api/suites/{name}/summary
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	suite, ok := s.store.Get(vars["name"])
	if !ok {
		s.writeJSONResponse(w, http.StatusNotFound, map[string]string{
			"error": "suite not found",
		})
		return
	}
	s.writeJSONResponse(w, http.StatusOK, Summarize(suite))
}

// GET /healthz
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
