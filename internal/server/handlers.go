package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"newswatch/internal/database"
	"newswatch/internal/scanner"
	"newswatch/internal/suggest"
)

const defaultNewsLimit = 100

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		keywords, err := s.db.GetKeywords(r.Context())
		if err != nil {
			s.logger.Printf("Error listing keywords: %v", err)
			s.writeError(w, http.StatusInternalServerError, "failed to list keywords")
			return
		}
		if keywords == nil {
			keywords = []database.Keyword{}
		}
		s.writeJSON(w, http.StatusOK, keywords)

	case http.MethodPost:
		var req struct {
			Keyword string `json:"keyword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Keyword) == "" {
			s.writeError(w, http.StatusBadRequest, "keyword required")
			return
		}

		keyword, err := s.db.AddKeyword(r.Context(), req.Keyword)
		if err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				s.writeError(w, http.StatusBadRequest, "keyword already exists")
				return
			}
			s.logger.Printf("Error adding keyword: %v", err)
			s.writeError(w, http.StatusInternalServerError, "failed to add keyword")
			return
		}
		s.writeJSON(w, http.StatusOK, keyword)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleKeywordByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, err := pathID(r.URL.Path, "/api/keywords/")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid keyword id")
		return
	}
	if err := s.db.DeleteKeyword(r.Context(), id); err != nil {
		s.logger.Printf("Error deleting keyword %d: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete keyword")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := defaultNewsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	articles, err := s.db.GetArticles(r.Context(), r.URL.Query().Get("keyword"), limit)
	if err != nil {
		s.logger.Printf("Error listing articles: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list news")
		return
	}
	if articles == nil {
		articles = []database.Article{}
	}
	s.writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleNewsStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := s.db.ArticleStats(r.Context())
	if err != nil {
		s.logger.Printf("Error computing article stats: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	scanStats, err := s.db.GetScanStats(r.Context())
	if err != nil {
		s.logger.Printf("Error reading scan stats: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read scan stats")
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		*database.ArticleStats
		ScanStats database.ScanStats `json:"scanStats"`
	}{stats, scanStats})
}

func (s *Server) handleSaved(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		saved, err := s.db.GetSavedArticles(r.Context())
		if err != nil {
			s.logger.Printf("Error listing saved articles: %v", err)
			s.writeError(w, http.StatusInternalServerError, "failed to list saved articles")
			return
		}
		if saved == nil {
			saved = []database.SavedArticle{}
		}
		s.writeJSON(w, http.StatusOK, saved)

	case http.MethodPost:
		var req struct {
			ArticleID int64 `json:"articleId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ArticleID == 0 {
			s.writeError(w, http.StatusBadRequest, "articleId required")
			return
		}
		if err := s.db.SaveArticle(r.Context(), req.ArticleID); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				s.writeError(w, http.StatusBadRequest, "already saved")
				return
			}
			s.logger.Printf("Error saving article %d: %v", req.ArticleID, err)
			s.writeError(w, http.StatusInternalServerError, "failed to save article")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSavedByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, err := pathID(r.URL.Path, "/api/saved/")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid article id")
		return
	}
	if err := s.db.UnsaveArticle(r.Context(), id); err != nil {
		s.logger.Printf("Error unsaving article %d: %v", id, err)
		s.writeError(w, http.StatusInternalServerError, "failed to unsave article")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	result, err := s.scanner.RunCycle(r.Context())
	if err != nil {
		if errors.Is(err, scanner.ErrScanInProgress) {
			s.writeError(w, http.StatusConflict, "scan already in progress")
			return
		}
		s.logger.Printf("Manual scan failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "scan failed")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTrendsDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snapshots, err := s.trends.GetDaily(r.Context())
	if err != nil {
		s.logger.Printf("Error reading daily trends: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read trends")
		return
	}
	if snapshots == nil {
		snapshots = []database.TrendSnapshot{}
	}
	s.writeJSON(w, http.StatusOK, snapshots)
}

func (s *Server) handleTrendsInterest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		s.writeError(w, http.StatusBadRequest, "keyword required")
		return
	}
	s.writeJSON(w, http.StatusOK, s.trends.Interest(r.Context(), keyword))
}

func (s *Server) handleTrendsRelated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		s.writeError(w, http.StatusBadRequest, "keyword required")
		return
	}
	s.writeJSON(w, http.StatusOK, s.trends.Related(r.Context(), keyword))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	result, err := s.suggester.Suggest(r.Context())
	if err != nil {
		s.logger.Printf("Error computing suggestions: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to compute suggestions")
		return
	}
	if result.Suggestions == nil {
		result.Suggestions = []suggest.Suggestion{}
	}
	s.writeJSON(w, http.StatusOK, result)
}

// pathID extracts the numeric id from the final path segment.
func pathID(path, prefix string) (int64, error) {
	raw := strings.TrimPrefix(path, prefix)
	raw = strings.TrimSuffix(raw, "/")
	return strconv.ParseInt(raw, 10, 64)
}
