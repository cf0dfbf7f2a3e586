// Package testutil provides test helpers for aci (e.g. Server, a scripted fake of the ACI API).
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// Response is one scripted reply.
type Response struct {
	Status int
	// Body is encoded as JSON unless it is a string or []byte, which are written as is.
	Body any
	// Drop closes the connection without writing a response.
	Drop bool
}

// JSON returns a Response with the given status and JSON body.
func JSON(status int, body any) Response {
	return Response{Status: status, Body: body}
}

// Dropped returns a Response that closes the connection before any reply.
func Dropped() Response {
	return Response{Drop: true}
}

// Request is a request received by Server.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Decode unmarshals the request body into v.
func (r Request) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Server is an httptest server answering routes with scripted responses.
// Responses of a route are served in order; the last one repeats.
// Unknown routes get 404 {"message": "no route"}.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string][]Response
	served   map[string]int
	requests []Request
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{routes: map[string][]Response{}, served: map[string]int{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// On scripts the responses of method and path (path without query).
func (s *Server) On(method, path string, responses ...Response) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[routeKey(method, path)] = responses
	return s
}

// Requests returns a copy of all received requests in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request; ok is false when none was received.
func (s *Server) Last() (Request, bool) {
	reqs := s.Requests()
	if len(reqs) == 0 {
		return Request{}, false
	}
	return reqs[len(reqs)-1], true
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := routeKey(r.Method, r.URL.Path)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	responses, ok := s.routes[key]
	var resp Response
	if ok && len(responses) > 0 {
		i := min(s.served[key], len(responses)-1)
		resp = responses[i]
		s.served[key]++
	}
	s.mu.Unlock()

	if !ok || len(responses) == 0 {
		resp = JSON(http.StatusNotFound, map[string]string{"message": "no route"})
	}
	if resp.Drop {
		drop(w)
		return
	}
	write(w, resp)
}

func drop(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic("testutil: response writer does not support hijacking")
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	_ = conn.Close()
}

func write(w http.ResponseWriter, resp Response) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	var data []byte
	switch b := resp.Body.(type) {
	case nil:
	case string:
		data = []byte(b)
	case []byte:
		data = b
	default:
		var err error
		if data, err = json.Marshal(b); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " /" + strings.Trim(path, "/")
}
