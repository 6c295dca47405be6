package web

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studydeck/internal/source"
	"github.com/conorfennell/studydeck/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "studydeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewServer(db, source.NewSyncer(db, t.TempDir(), 8), 8), db
}

func postForm(srv *Server, path, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// Navigation posted before any quiz has started must fall back to the
// setup form instead of touching an empty card set.
func TestQuizNavigationBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/quiz/next", "/quiz/prev"} {
		rec := postForm(srv, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Contains(t, rec.Body.String(), "Start Quiz", path)
	}
}

func TestQuizNavigationAfterRestart(t *testing.T) {
	srv, db := newTestServer(t)
	for _, answer := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		_, err := db.InsertCard("the answer is _____ here", answer, 1, "")
		require.NoError(t, err)
	}

	rec := postForm(srv, "/quiz/start", "bucket=all&type=all&count=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Question 1 of 5")

	rec = postForm(srv, "/quiz/restart", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postForm(srv, "/quiz/next", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Start Quiz")
}

func TestQuizStartWithoutMatchingCards(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postForm(srv, "/quiz/start", "bucket=hard&type=due&count=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "No flashcards match")
}
