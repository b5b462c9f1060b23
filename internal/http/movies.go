package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type movieRequest struct {
	Title          string  `json:"title"`
	Year           int     `json:"year"`
	Director       string  `json:"director"`
	Rating         float64 `json:"rating"`
	RuntimeMinutes int     `json:"runtimeMinutes"`
	Votes          int     `json:"votes"`
	Watched        bool    `json:"watched"`
}

type movieResponse struct {
	Index          int     `json:"index"`
	Title          string  `json:"title"`
	Year           int     `json:"year"`
	Director       string  `json:"director"`
	Rating         float64 `json:"rating"`
	RuntimeMinutes int     `json:"runtimeMinutes"`
	Votes          int     `json:"votes"`
	Watched        bool    `json:"watched"`
	Scariness      float64 `json:"scariness"`
}

type movieListResponse struct {
	Items []movieResponse `json:"items"`
}

type scarinessResponse struct {
	Index     int     `json:"index"`
	Title     string  `json:"title"`
	Scariness float64 `json:"scariness"`
}

type movieFilters struct {
	Query   string
	Watched *bool
}

func (f movieFilters) match(m domain.Movie) bool {
	if f.Watched != nil && m.Watched != *f.Watched {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(m.Title), q) || strings.Contains(strings.ToLower(m.Director), q)
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	filters, err := buildMovieFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	items := make([]movieResponse, 0)
	for i, movie := range s.store.All() {
		if filters.match(movie) {
			items = append(items, toMovieResponse(i, movie))
		}
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{Items: items})
}

func buildMovieFilters(query url.Values) (movieFilters, error) {
	var filters movieFilters

	filters.Query = strings.TrimSpace(query.Get("q"))
	if val := strings.TrimSpace(query.Get("watched")); val != "" {
		watched, err := strconv.ParseBool(val)
		if err != nil {
			return filters, fmt.Errorf("invalid watched value")
		}
		filters.Watched = &watched
	}
	return filters, nil
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	movie, ok := s.decodeMovie(w, r)
	if !ok {
		return
	}

	index, err := s.store.Add(movie)
	if err != nil {
		s.respondStoreError(w, err, "Failed to add movie")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/movies/%d", index))
	s.respondJSON(w, http.StatusCreated, toMovieResponse(index, movie))
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	index, err := decodeIndexParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, ok := s.store.Get(index)
	if !ok {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(index, movie))
}

func (s *Server) handleEditMovie(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	index, err := decodeIndexParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, ok := s.decodeMovie(w, r)
	if !ok {
		return
	}

	newIndex, replaced, err := s.store.Edit(index, movie)
	if !replaced && err == nil {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	if err != nil {
		s.respondStoreError(w, err, "Failed to edit movie")
		return
	}

	// Edited movies move to the end of the catalog.
	s.respondJSON(w, http.StatusOK, toMovieResponse(newIndex, movie))
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	index, err := decodeIndexParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	removed, err := s.store.RemoveAt(index)
	if err != nil {
		s.respondStoreError(w, err, "Failed to delete movie")
		return
	}
	if !removed {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScariness(w http.ResponseWriter, r *http.Request) {
	index, err := decodeIndexParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, ok := s.store.Get(index)
	if !ok {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	s.respondJSON(w, http.StatusOK, scarinessResponse{
		Index:     index,
		Title:     movie.Title,
		Scariness: roundToOneDecimal(movie.Scariness()),
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "CSV payload exceeds 1 MiB")
			return
		}
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Unable to read request body")
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
		return
	}

	report, err := s.store.Import(bytes.NewReader(body))
	if err != nil {
		s.respondStoreError(w, err, "Failed to import movies")
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) decodeMovie(w http.ResponseWriter, r *http.Request) (domain.Movie, bool) {
	var req movieRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return domain.Movie{}, false
	}

	movie, err := domain.NewMovie(req.Title, req.Year, req.Director, req.Rating, req.RuntimeMinutes, req.Votes, req.Watched)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return domain.Movie{}, false
	}
	return movie, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Warn("http: failed to encode response", zap.Error(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error, message string) {
	switch {
	case domain.IsFormatError(err):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, store.ErrPersist):
		s.logger.Error("http: catalog not saved", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "PERSIST_ERROR", "Change applied in memory but the catalog file could not be saved")
	default:
		s.logger.Error("http: store error", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
	}
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toMovieResponse(index int, movie domain.Movie) movieResponse {
	return movieResponse{
		Index:          index,
		Title:          movie.Title,
		Year:           movie.Year,
		Director:       movie.Director,
		Rating:         movie.Rating,
		RuntimeMinutes: movie.RuntimeMinutes,
		Votes:          movie.Votes,
		Watched:        movie.Watched,
		Scariness:      roundToOneDecimal(movie.Scariness()),
	}
}

func decodeIndexParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	if raw == "" {
		return 0, fmt.Errorf("missing index parameter")
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid index parameter")
	}
	return index, nil
}

// authorized accepts every request when no token is configured.
func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.AuthToken == "" {
		return true
	}
	return s.verifyBearer(r.Header.Get("Authorization"))
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token == s.cfg.AuthToken
}

func roundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10.0
}
