// Package fakeapi is an in-process stand-in for the UP42 REST API used by
// tests. Routes are stubbed per method and path; every request is recorded.
package fakeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// DefaultToken is the access token issued by the token endpoint
const DefaultToken = "token_1011"

// Request is a recorded request
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body into out
func (r Request) JSON(out interface{}) error {
	return json.Unmarshal(r.Body, out)
}

// Server is a fake API server
type Server struct {
	server *httptest.Server
	router *mux.Router

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []Request
}

// New starts a fake API server with the token endpoint already stubbed
func New() *Server {
	s := &Server{
		router:   mux.NewRouter(),
		handlers: make(map[string]http.HandlerFunc),
	}
	s.router.NotFoundHandler = http.HandlerFunc(s.unmatched)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.unmatched)
	s.HandleFunc(http.MethodPost, "/oauth/token", s.token)

	s.server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// URL is the base URL to configure as the API endpoint
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down
func (s *Server) Close() {
	s.server.Close()
}

// HandleFunc installs h for method and path, replacing any earlier stub
func (s *Server) HandleFunc(method, path string, h http.HandlerFunc) {
	key := routeKey(method, path)

	s.mu.Lock()
	_, exists := s.handlers[key]
	s.handlers[key] = h
	s.mu.Unlock()

	if !exists {
		s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			current := s.handlers[key]
			s.mu.Unlock()
			current(w, r)
		}).Methods(method)
	}
}

// Stub answers method and path with a fixed status and body. Strings and
// byte slices are sent verbatim, anything else is JSON encoded.
func (s *Server) Stub(method, path string, status int, body interface{}) {
	payload, err := encode(body)
	if err != nil {
		panic(fmt.Sprintf("fakeapi: cannot encode stub for %s %s: %v", method, path, err))
	}
	s.HandleFunc(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(payload)
	})
}

// StubData answers with a successful envelope around data
func (s *Server) StubData(method, path string, data interface{}) {
	s.Stub(method, path, http.StatusOK, map[string]interface{}{
		"data":  data,
		"error": map[string]interface{}{},
	})
}

// StubError answers with an envelope carrying a remote error
func (s *Server) StubError(method, path string, status int, code, message string) {
	s.Stub(method, path, status, map[string]interface{}{
		"data":  nil,
		"error": map[string]interface{}{"code": code, "message": message},
	})
}

// Requests returns a copy of everything received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls counts requests received for method and path
func (s *Server) Calls(method, path string) int {
	return len(s.RequestsFor(method, path))
}

// RequestsFor returns the recorded requests for method and path
func (s *Server) RequestsFor(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Reset forgets recorded requests
func (s *Server) Reset() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	s.mu.Unlock()

	s.router.ServeHTTP(w, r)
}

func (s *Server) unmatched(w http.ResponseWriter, r *http.Request) {
	http.Error(w, fmt.Sprintf("no stub for %s %s", r.Method, r.URL.Path), http.StatusNotFound)
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := r.BasicAuth(); !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid_client"}`))
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "unsupported_grant_type"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"access_token": "` + DefaultToken + `", "token_type": "bearer", "expires_in": 3600}`))
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

func encode(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(b)
	}
}
