// Package web is the thin presentation shell over the card store, the
// generator and the quiz engine. It holds no business logic: every handler
// calls into the core and renders the result.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/extract"
	"github.com/conorfennell/studydeck/internal/generator"
	"github.com/conorfennell/studydeck/internal/quiz"
	"github.com/conorfennell/studydeck/internal/source"
	"github.com/conorfennell/studydeck/internal/storage"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// maxUploadBytes bounds the size of an uploaded document.
const maxUploadBytes = 32 << 20

// Server holds the dependencies for the HTTP server.
type Server struct {
	db               *storage.DB
	syncer           *source.Syncer
	session          *quiz.Session
	router           *http.ServeMux
	templates        *template.Template
	defaultQuestions int
}

// NewServer creates and configures a new server. A single interactive quiz
// session is kept per process.
func NewServer(db *storage.DB, syncer *source.Syncer, defaultQuestions int) *Server {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	s := &Server{
		db:               db,
		syncer:           syncer,
		session:          quiz.NewSession(db, rand.New(rand.NewSource(time.Now().UnixNano()))),
		router:           http.NewServeMux(),
		templates:        tpl,
		defaultQuestions: defaultQuestions,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("Failed to create sub-filesystem for static assets: %v", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	s.router.Handle("/static/", http.StripPrefix("/static/", fileServer))
	s.router.Handle("/", fileServer)

	// HTMX-based routes
	s.router.HandleFunc("/upload", s.handleUpload())
	s.router.HandleFunc("/cards", s.handleCards())
	s.router.HandleFunc("/cards/", s.handleCard())
	s.router.HandleFunc("/cards/delete", s.handleDeleteSelected())
	s.router.HandleFunc("/quiz", s.handleQuizConfig())
	s.router.HandleFunc("/quiz/start", s.handleQuizStart())
	s.router.HandleFunc("/quiz/answer", s.handleQuizAnswer())
	s.router.HandleFunc("/quiz/next", s.handleQuizNext())
	s.router.HandleFunc("/quiz/prev", s.handleQuizPrev())
	s.router.HandleFunc("/quiz/restart", s.handleQuizRestart())
	s.router.HandleFunc("/stats", s.handleStats())

	// Source management routes
	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

// handleUpload accepts a document, extracts its text, generates cards and
// inserts the valid ones.
func (s *Server) handleUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		fileReader, header, err := r.FormFile("document")
		if err != nil {
			http.Error(w, "Missing document", http.StatusBadRequest)
			return
		}
		defer fileReader.Close()

		count := s.defaultQuestions
		if v, err := strconv.Atoi(r.PostFormValue("count")); err == nil && v > 0 {
			count = v
		}

		extractor, ok := extract.ForPath(header.Filename)
		if !ok {
			http.Error(w, "Unsupported document type", http.StatusUnsupportedMediaType)
			return
		}
		data, err := io.ReadAll(fileReader)
		if err != nil {
			http.Error(w, "Failed to read document", http.StatusInternalServerError)
			return
		}

		text, err := extractor.Extract(r.Context(), data, nil)
		if err != nil {
			slog.Warn("extraction failed", "file", header.Filename, "error", err)
			text = ""
		}

		pairs := generator.Generate(generator.CleanText(text), count)
		var inserted int
		for _, pair := range pairs {
			if strings.TrimSpace(pair.Question) == "" || strings.TrimSpace(pair.Answer) == "" {
				continue
			}
			if _, err := s.db.InsertCard(pair.Question, pair.Answer, domain.MinDifficulty, storage.Today()); err != nil {
				slog.Error("failed to insert generated card", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			inserted++
		}

		s.templates.ExecuteTemplate(w, "upload_result", map[string]interface{}{
			"Inserted": inserted,
			"Pairs":    pairs,
		})
	}
}

// handleCards renders the searchable card collection.
func (s *Server) handleCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.renderCardList(w, r.URL.Query().Get("q"))
	}
}

func (s *Server) renderCardList(w http.ResponseWriter, searchTerm string) {
	cards, err := s.db.ListCards(searchTerm)
	if err != nil {
		slog.Error("failed to list cards", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, "card_list", map[string]interface{}{
		"Cards":      cards,
		"SearchTerm": searchTerm,
	})
}

// handleCard routes per-card actions: open (marks read), review update and
// delete.
func (s *Server) handleCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/cards/")
		idStr, action, _ := strings.Cut(rest, "/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid card ID", http.StatusBadRequest)
			return
		}

		switch {
		case r.Method == http.MethodGet && action == "":
			s.handleOpenCard(w, r, id)
		case r.Method == http.MethodPost && action == "review":
			s.handleReview(w, r, id)
		case r.Method == http.MethodDelete && action == "":
			if err := s.db.DeleteCard(id); err != nil && !errors.Is(err, domain.ErrNotFound) {
				slog.Error("failed to delete card", "id", id, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			s.renderCardList(w, "")
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleOpenCard renders a card's details. Opening a card is what flips its
// read status, once.
func (s *Server) handleOpenCard(w http.ResponseWriter, r *http.Request, id int64) {
	card, err := s.db.GetCard(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to get card", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !card.IsRead {
		if err := s.db.MarkRead(id); err != nil {
			slog.Warn("failed to mark card as read", "id", id, "error", err)
		} else {
			card.IsRead = true
		}
	}
	s.templates.ExecuteTemplate(w, "card_detail", card)
}

// handleReview applies a manual difficulty/next-review update.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request, id int64) {
	difficulty, err := strconv.Atoi(r.PostFormValue("difficulty"))
	if err != nil {
		http.Error(w, "Invalid difficulty", http.StatusBadRequest)
		return
	}
	nextReview := r.PostFormValue("next_review")
	if err := s.db.UpdateReview(id, difficulty, nextReview); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, domain.ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("failed to update review", "id", id, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}
	s.handleOpenCard(w, r, id)
}

// handleDeleteSelected deletes the checked cards and re-renders the list.
func (s *Server) handleDeleteSelected() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		var ids []int64
		for _, idStr := range r.PostForm["selected"] {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				http.Error(w, "Invalid card ID", http.StatusBadRequest)
				return
			}
			ids = append(ids, id)
		}
		if err := s.db.DeleteCards(ids); err != nil && !errors.Is(err, domain.ErrNotFound) {
			slog.Error("failed to delete cards", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.renderCardList(w, "")
	}
}

// handleQuizConfig renders the quiz setup form.
func (s *Server) handleQuizConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.templates.ExecuteTemplate(w, "quiz_config", nil)
	}
}

// handleQuizStart starts a fresh session from the submitted criteria.
func (s *Server) handleQuizStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		numQuestions, _ := strconv.Atoi(r.PostFormValue("count"))
		config := domain.QuizConfig{
			Bucket:       domain.DifficultyBucket(r.PostFormValue("bucket")),
			DueOnly:      r.PostFormValue("type") == "due",
			NumQuestions: numQuestions,
		}

		s.session.Restart()
		if err := s.session.Start(config); err != nil {
			if errors.Is(err, domain.ErrNoMatchingCards) {
				s.templates.ExecuteTemplate(w, "quiz_empty", nil)
				return
			}
			slog.Error("failed to start quiz", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.renderQuizQuestion(w)
	}
}

func (s *Server) renderQuizQuestion(w http.ResponseWriter) {
	switch s.session.State() {
	case quiz.Completed:
		s.renderQuizResults(w)
		return
	case quiz.NotStarted:
		// Navigation posted before a quiz started, or after a restart.
		s.templates.ExecuteTemplate(w, "quiz_config", nil)
		return
	}
	i := s.session.Index()
	choice, _ := s.session.Choice(i)
	s.templates.ExecuteTemplate(w, "quiz_question", map[string]interface{}{
		"Index":   i,
		"Number":  i + 1,
		"Total":   s.session.Len(),
		"Card":    s.session.Card(i),
		"Options": s.session.Options(i),
		"Choice":  choice,
		"First":   i == 0,
		"Last":    i == s.session.Len()-1,
	})
}

func (s *Server) renderQuizResults(w http.ResponseWriter) {
	s.templates.ExecuteTemplate(w, "quiz_results", map[string]interface{}{
		"Score":    s.session.Score(),
		"Total":    s.session.Len(),
		"Accuracy": s.session.Accuracy(),
		"Feedback": s.session.Feedback(),
		"Results":  s.session.Results(),
	})
}

// handleQuizAnswer records the choice for the submitted question index.
func (s *Server) handleQuizAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		index, err := strconv.Atoi(r.PostFormValue("index"))
		if err != nil {
			http.Error(w, "Invalid question index", http.StatusBadRequest)
			return
		}
		if err := s.session.RecordAnswer(index, r.PostFormValue("choice")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleQuizNext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.session.Advance()
		s.renderQuizQuestion(w)
	}
}

func (s *Server) handleQuizPrev() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.session.Retreat()
		s.renderQuizQuestion(w)
	}
}

func (s *Server) handleQuizRestart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.session.Restart()
		s.templates.ExecuteTemplate(w, "quiz_config", nil)
	}
}

// handleStats renders the dashboard counters.
func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, err := s.db.CountCards()
		if err != nil {
			s.statsError(w, err)
			return
		}
		unread, err := s.db.CountUnread()
		if err != nil {
			s.statsError(w, err)
			return
		}
		due, err := s.db.CountDue(storage.Today())
		if err != nil {
			s.statsError(w, err)
			return
		}
		byDifficulty, err := s.db.CountByDifficulty()
		if err != nil {
			s.statsError(w, err)
			return
		}
		s.templates.ExecuteTemplate(w, "stats", map[string]interface{}{
			"Total":        total,
			"Unread":       unread,
			"Due":          due,
			"ByDifficulty": byDifficulty,
		})
	}
}

func (s *Server) statsError(w http.ResponseWriter, err error) {
	slog.Error("failed to load stats", "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// handleSources handles both GET and POST for the sources page.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.renderSourceList(w, "sources")
		case http.MethodPost:
			path := r.PostFormValue("path")
			if path == "" {
				http.Error(w, "Path cannot be empty", http.StatusBadRequest)
				return
			}
			if _, err := s.syncer.AddSource(path); err != nil {
				slog.Error("failed to add source", "path", path, "error", err)
				http.Error(w, "Failed to add source", http.StatusInternalServerError)
				return
			}
			s.renderSourceList(w, "source_list")
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) renderSourceList(w http.ResponseWriter, templateName string) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		slog.Error("failed to get sources", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, templateName, map[string]interface{}{
		"Sources": sources,
	})
}

// handleDeleteSource deletes a source and re-renders the source list.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		idStr := strings.TrimPrefix(r.URL.Path, "/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}
		if err := s.db.DeleteSource(id); err != nil {
			slog.Error("failed to delete source", "id", id, "error", err)
			http.Error(w, "Failed to delete source", http.StatusInternalServerError)
			return
		}
		s.renderSourceList(w, "source_list")
	}
}

// handlePostSync triggers a manual source sync and re-renders the list.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// Run in the foreground to make the user wait.
		if err := s.syncer.SyncAll(r.Context()); err != nil {
			slog.Error("sync failed", "error", err)
			http.Error(w, "Sync failed", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "sync_success", nil)
		s.renderSourceList(w, "source_list")
	}
}
