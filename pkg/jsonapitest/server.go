// Package jsonapitest provides an in-memory JSON:API server for tests. It
// serves canned documents on chi routes and records every request it sees.
package jsonapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/linkage/pkg/orm/document"
)

// Request is a recorded request
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

// Response is one canned reply
type Response struct {
	Status int
	Body   string
}

// Server is a recording JSON:API fixture server
type Server struct {
	*httptest.Server

	router   chi.Router
	mu       sync.Mutex
	requests []Request
}

// NewServer starts a server that is closed when the test ends. Unknown
// paths answer 404 with a JSON:API error document.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{router: chi.NewRouter()}
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusNotFound, `{"errors":[{"status":"404","title":"Not Found","detail":"no fixture for `+r.URL.Path+`"}]}`)
	})

	s.Server = httptest.NewServer(s.record(s.router))
	t.Cleanup(s.Close)
	return s
}

// Handle serves body with status on GET pattern. Patterns use chi syntax.
func (s *Server) Handle(pattern string, status int, body string) {
	s.router.Get(pattern, func(w http.ResponseWriter, _ *http.Request) {
		write(w, status, body)
	})
}

// HandleJSON serves v encoded as JSON with status 200
func (s *Server) HandleJSON(pattern string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	s.Handle(pattern, http.StatusOK, string(body))
}

// HandleSequence answers successive requests with successive responses. The
// last response repeats once the sequence is exhausted.
func (s *Server) HandleSequence(pattern string, responses ...Response) {
	var (
		mu   sync.Mutex
		next int
	)
	s.router.Get(pattern, func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		resp := responses[next]
		if next < len(responses)-1 {
			next++
		}
		mu.Unlock()
		write(w, resp.Status, resp.Body)
	})
}

// HandleFunc registers a custom GET handler
func (s *Server) HandleFunc(pattern string, fn http.HandlerFunc) {
	s.router.Get(pattern, fn)
}

// Requests returns the recorded requests in arrival order
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount returns how many requests hit path
func (s *Server) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent request
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Reset forgets the recorded requests
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func write(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", document.MediaType)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
