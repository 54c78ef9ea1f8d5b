// JSON API server. This layer validates parameters and delegates; all
// business logic lives in the scanner, trends and suggest services.
package server

import (
	"encoding/json"
	"log"
	"net/http"

	"newswatch/internal/database"
	"newswatch/internal/scanner"
	"newswatch/internal/suggest"
	"newswatch/internal/trends"
)

type Server struct {
	db        *database.DB
	logger    *log.Logger
	scanner   *scanner.Service
	trends    *trends.Service
	suggester *suggest.Service
}

func NewServer(db *database.DB, logger *log.Logger, scanSvc *scanner.Service,
	trendsSvc *trends.Service, suggestSvc *suggest.Service) *Server {
	return &Server{
		db:        db,
		logger:    logger,
		scanner:   scanSvc,
		trends:    trendsSvc,
		suggester: suggestSvc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/keywords", s.handleKeywords)
	mux.HandleFunc("/api/keywords/", s.handleKeywordByID)
	mux.HandleFunc("/api/news", s.handleNews)
	mux.HandleFunc("/api/news/stats", s.handleNewsStats)
	mux.HandleFunc("/api/saved", s.handleSaved)
	mux.HandleFunc("/api/saved/", s.handleSavedByID)
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/trends/daily", s.handleTrendsDaily)
	mux.HandleFunc("/api/trends/interest", s.handleTrendsInterest)
	mux.HandleFunc("/api/trends/related", s.handleTrendsRelated)
	mux.HandleFunc("/api/suggestions", s.handleSuggestions)
	mux.HandleFunc("/healthz", s.handleHealthz)

	return mux
}

func (s *Server) Start(addr string) error {
	s.logger.Printf("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Routes())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("Error encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
