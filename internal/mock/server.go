// Package mock runs a local JSONPlaceholder-shaped API so test runs have
// a target that works offline and behaves deterministically. Latency and
// failure injection make it usable as a controlled subject for
// breaking-point searches.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/studiowebux/apiprobe/internal/testdata"
)

const (
	defaultAddr     = "localhost:8080"
	maxRetainedLogs = 1000

	userCount    = 10
	postCount    = 100
	commentCount = 100
)

// Options tunes the mock server's behavior.
type Options struct {
	// Addr is the listen address, host:port.
	Addr string

	// Latency is added to every response before it is written.
	Latency time.Duration

	// FailEvery makes every Nth request return 503. Zero disables
	// failure injection.
	FailEvery int

	// Seed makes the generated dataset reproducible.
	Seed uint64
}

// RequestLog is one served request, retained for inspection.
type RequestLog struct {
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	Duration  time.Duration `json:"duration"`
}

// Server is the mock API. Its dataset is generated once at construction
// and served read-only; created posts are acknowledged but not stored,
// matching how JSONPlaceholder itself behaves.
type Server struct {
	opts       Options
	httpServer *http.Server

	users    []map[string]any
	posts    []map[string]any
	comments []map[string]any

	requests atomic.Int64
	nextID   atomic.Int64

	logsMu sync.Mutex
	logs   []RequestLog

	log *logrus.Entry
}

// NewServer builds the mock API with a generated dataset.
func NewServer(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = defaultAddr
	}

	gen := testdata.NewSeeded(opts.Seed)
	s := &Server{
		opts: opts,
		log:  logrus.WithField("component", "mock"),
	}
	for i := 0; i < userCount; i++ {
		user := gen.User(map[string]any{"id": i + 1})
		s.users = append(s.users, user)
	}
	for i := 0; i < postCount; i++ {
		post := gen.Post((i%userCount)+1, map[string]any{"id": i + 1})
		s.posts = append(s.posts, post)
	}
	for i := 0; i < commentCount; i++ {
		comment := gen.Comment((i%postCount)+1, map[string]any{"id": i + 1})
		s.comments = append(s.comments, comment)
	}
	s.nextID.Store(postCount)

	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return "http://" + s.opts.Addr
}

// Handler returns the route table, also usable under httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.instrument(s.handleRoot))
	mux.HandleFunc("/posts", s.instrument(s.handlePosts))
	mux.HandleFunc("/posts/", s.instrument(s.handlePostByID))
	mux.HandleFunc("/users", s.instrument(s.handleUsers))
	mux.HandleFunc("/users/", s.instrument(s.handleUserByID))
	mux.HandleFunc("/comments", s.instrument(s.handleComments))
	return mux
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.Handler(),
	}

	s.log.WithFields(logrus.Fields{
		"addr":       s.opts.Addr,
		"latency":    s.opts.Latency,
		"fail_every": s.opts.FailEvery,
	}).Info("mock api listening")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("mock api stopped")
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Logs returns a copy of the retained request logs.
func (s *Server) Logs() []RequestLog {
	s.logsMu.Lock()
	defer s.logsMu.Unlock()
	out := make([]RequestLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// instrument applies latency and failure injection around a handler and
// retains a log entry for the request.
func (s *Server) instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		n := s.requests.Add(1)

		if s.opts.Latency > 0 {
			time.Sleep(s.opts.Latency)
		}

		status := http.StatusOK
		if s.opts.FailEvery > 0 && n%int64(s.opts.FailEvery) == 0 {
			status = http.StatusServiceUnavailable
			http.Error(w, "injected failure", status)
		} else {
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next(recorder, r)
			status = recorder.status
		}

		s.logsMu.Lock()
		s.logs = append(s.logs, RequestLog{
			Timestamp: start,
			Method:    r.Method,
			Path:      r.URL.Path,
			Status:    status,
			Duration:  time.Since(start),
		})
		if len(s.logs) > maxRetainedLogs {
			s.logs = s.logs[len(s.logs)-maxRetainedLogs:]
		}
		s.logsMu.Unlock()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if userID := r.URL.Query().Get("userId"); userID != "" {
			id, err := strconv.Atoi(userID)
			if err != nil {
				writeError(w, http.StatusBadRequest)
				return
			}
			filtered := make([]map[string]any, 0)
			for _, post := range s.posts {
				if post["userId"] == id {
					filtered = append(filtered, post)
				}
			}
			writeJSON(w, http.StatusOK, filtered)
			return
		}
		writeJSON(w, http.StatusOK, s.posts)
	case http.MethodPost:
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest)
			return
		}
		created := map[string]any{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &created); err != nil {
				writeError(w, http.StatusBadRequest)
				return
			}
		}
		created["id"] = s.nextID.Add(1)
		writeJSON(w, http.StatusCreated, created)
	default:
		writeError(w, http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePostByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/posts/")

	// Nested comments route: /posts/{id}/comments
	if id, ok := strings.CutSuffix(rest, "/comments"); ok {
		postID, err := strconv.Atoi(id)
		if err != nil || postID < 1 {
			writeError(w, http.StatusNotFound)
			return
		}
		filtered := make([]map[string]any, 0)
		for _, comment := range s.comments {
			if comment["postId"] == postID {
				filtered = append(filtered, comment)
			}
		}
		writeJSON(w, http.StatusOK, filtered)
		return
	}

	id, err := strconv.Atoi(rest)
	if err != nil || id < 1 || id > len(s.posts) {
		writeError(w, http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.posts[id-1])
	case http.MethodPut:
		raw, _ := io.ReadAll(r.Body)
		updated := map[string]any{}
		if len(raw) > 0 {
			json.Unmarshal(raw, &updated)
		}
		updated["id"] = id
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		writeJSON(w, http.StatusOK, map[string]any{})
	default:
		writeError(w, http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.users)
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/users/"))
	if err != nil || id < 1 || id > len(s.users) {
		writeError(w, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.users[id-1])
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.comments)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]any{"error": fmt.Sprintf("%d %s", status, http.StatusText(status))})
}
