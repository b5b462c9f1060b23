package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/movie-catalog/internal/config"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

const alienJSON = `{"title":"Alien","year":1979,"director":"Ridley Scott","rating":8.5,"runtimeMinutes":117,"votes":900000,"watched":true}`

func buildTestServer(tb testing.TB, token string) *Server {
	tb.Helper()
	cfg := config.Defaults()
	cfg.Port = "0"
	cfg.AuthToken = token

	st := store.New(filepath.Join(tb.TempDir(), "movies.csv"), store.Options{})
	srv := New(cfg, st, nil)
	// Replace chi router to avoid default middleware noise.
	srv.router = chi.NewRouter()
	srv.registerRoutes()
	return srv
}

func do(srv *Server, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, srv *Server, movies ...domain.Movie) {
	t.Helper()
	for _, m := range movies {
		_, err := srv.store.Add(m)
		require.NoError(t, err)
	}
}

var (
	alien     = domain.Movie{Title: "Alien", Year: 1979, Director: "Ridley Scott", Rating: 8.5, RuntimeMinutes: 117, Votes: 900000, Watched: true}
	halloween = domain.Movie{Title: "Halloween", Year: 1978, Director: "John Carpenter", Rating: 7.7, RuntimeMinutes: 91, Votes: 300000}
	theThing  = domain.Movie{Title: "The Thing", Year: 1982, Director: "John Carpenter", Rating: 8.2, RuntimeMinutes: 109, Votes: 450000}
)

func TestCreateMovie(t *testing.T) {
	srv := buildTestServer(t, "")

	rec := do(srv, http.MethodPost, "/movies", alienJSON, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/movies/0", rec.Header().Get("Location"))

	var got movieResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Alien", got.Title)
	assert.Equal(t, 0, got.Index)
	assert.InDelta(t, 9.3, got.Scariness, 1e-9)
	assert.Equal(t, []domain.Movie{alien}, srv.store.All())
}

func TestCreateMovieAuth(t *testing.T) {
	srv := buildTestServer(t, "secret")

	rec := do(srv, http.MethodPost, "/movies", alienJSON, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(srv, http.MethodPost, "/movies", alienJSON, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(srv, http.MethodPost, "/movies", alienJSON, map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateMovieInvalidPayload(t *testing.T) {
	srv := buildTestServer(t, "")

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "invalid json"},
		{"empty body", ""},
		{"year out of range", `{"title":"Old","year":1700,"director":"Nobody","rating":5,"runtimeMinutes":90}`},
		{"missing title", `{"year":1979,"director":"Ridley Scott","rating":8.5,"runtimeMinutes":117}`},
		{"comma in title", `{"title":"Saw, Part One","year":2004,"director":"James Wan","rating":7.6,"runtimeMinutes":103}`},
		{"wrong type", `{"title":"Alien","year":"1979"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(srv, http.MethodPost, "/movies", tt.body, nil)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, 0, srv.store.Len())
}

func TestListMoviesWithFilters(t *testing.T) {
	srv := buildTestServer(t, "")
	seed(t, srv, alien, halloween, theThing)

	var resp movieListResponse
	rec := do(srv, http.MethodGet, "/movies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 3)

	rec = do(srv, http.MethodGet, "/movies?q=carpenter&watched=false", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Items[0].Index)
	assert.Equal(t, 2, resp.Items[1].Index)

	rec = do(srv, http.MethodGet, "/movies?watched=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMovieAndScariness(t *testing.T) {
	srv := buildTestServer(t, "")
	seed(t, srv, alien, theThing)

	rec := do(srv, http.MethodGet, "/movies/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got movieResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "The Thing", got.Title)

	rec = do(srv, http.MethodGet, "/movies/1/scariness", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var score scarinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.InDelta(t, 9.1, score.Scariness, 1e-9)

	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodGet, "/movies/7", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodGet, "/movies/7/scariness", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(srv, http.MethodGet, "/movies/abc", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(srv, http.MethodGet, "/movies/-1", "", nil).Code)
}

func TestEditMovieMovesToEnd(t *testing.T) {
	srv := buildTestServer(t, "")
	seed(t, srv, alien, halloween)

	body := strings.Replace(alienJSON, `"watched":true`, `"watched":false`, 1)
	rec := do(srv, http.MethodPut, "/movies/0", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got movieResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Index)
	assert.False(t, got.Watched)

	all := srv.store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Halloween", all[0].Title)
	assert.Equal(t, "Alien", all[1].Title)

	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodPut, "/movies/9", alienJSON, nil).Code)
}

func TestDeleteMovie(t *testing.T) {
	srv := buildTestServer(t, "secret")
	seed(t, srv, alien)
	auth := map[string]string{"Authorization": "Bearer secret"}

	assert.Equal(t, http.StatusUnauthorized, do(srv, http.MethodDelete, "/movies/0", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodDelete, "/movies/3", "", auth).Code)
	assert.Equal(t, http.StatusNoContent, do(srv, http.MethodDelete, "/movies/0", "", auth).Code)
	assert.Equal(t, 0, srv.store.Len())
}

func TestImportMovies(t *testing.T) {
	srv := buildTestServer(t, "")

	csv := "title,year,director,rating,runtimeMinutes,votes,watched\n" +
		"Alien,1979,Ridley Scott,8.5,117,900000,true\n" +
		"Broken\n" +
		"Halloween,1978,John Carpenter,7.7,91,300000,false\n"
	rec := do(srv, http.MethodPost, "/movies/import", csv, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report store.ImportReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Inserted)
	require.Len(t, report.Errors, 1)
	assert.True(t, strings.HasPrefix(report.Errors[0], "Line 3: "))

	assert.Equal(t, http.StatusUnprocessableEntity, do(srv, http.MethodPost, "/movies/import", "  ", nil).Code)
}

func TestImportTooLarge(t *testing.T) {
	srv := buildTestServer(t, "")
	body := strings.Repeat("x", maxRequestBody+1)
	assert.Equal(t, http.StatusRequestEntityTooLarge, do(srv, http.MethodPost, "/movies/import", body, nil).Code)
}

func TestRespondStoreErrorPersist(t *testing.T) {
	srv := buildTestServer(t, "")
	rec := httptest.NewRecorder()
	srv.respondStoreError(rec, &store.PersistError{Path: "movies.csv", Err: errors.New("disk full")}, "Failed")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "PERSIST_ERROR")
}

func TestHealthz(t *testing.T) {
	srv := buildTestServer(t, "")
	rec := do(srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
