// Package apitest provides an in-process fake of the user backend for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Reply is a canned response. Raw takes precedence over Body.
type Reply struct {
	Status int
	Body   any
	Raw    string
	Delay  time.Duration
}

// Call is one request the fake received.
type Call struct {
	Path          string
	Authorization string
	RequestID     string
	APIKey        string
	SecretKey     string
	Body          map[string]any
}

type Server struct {
	*httptest.Server

	mu      sync.Mutex
	replies map[string][]Reply
	calls   []Call
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{replies: make(map[string][]Reply)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/api/users/*", s.serve)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Handle queues replies for path. The last reply is repeated once the queue
// is drained.
func (s *Server) Handle(path string, replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[path] = append(s.replies[path], replies...)
}

// Envelope wraps data in the responseCode/responseMessage/responseData form.
func Envelope(code, message string, data any) map[string]any {
	return map[string]any{
		"responseCode":    code,
		"responseMessage": message,
		"responseData":    data,
	}
}

func (s *Server) Calls(path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) CallCount(path string) int {
	return len(s.Calls(path))
}

func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	reply, ok := s.record(Call{
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
		APIKey:        r.Header.Get("X-API-Key"),
		SecretKey:     r.Header.Get("X-Secret-Key"),
		Body:          body,
	})
	if !ok {
		writeJSON(w, http.StatusNotFound, Envelope("404", "not found", nil))
		return
	}

	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		}
	}

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	if reply.Raw != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply.Raw)
		return
	}
	writeJSON(w, status, reply.Body)
}

func (s *Server) record(c Call) (Reply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)

	queue := s.replies[c.Path]
	if len(queue) == 0 {
		return Reply{}, false
	}
	reply := queue[0]
	if len(queue) > 1 {
		s.replies[c.Path] = queue[1:]
	}
	return reply, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
