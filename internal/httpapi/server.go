// Package httpapi is a thin, unauthenticated HTTP surface over the
// broker core. It exists to make the core's behavior observable over
// HTTP and to exercise every operation the core exposes; the real
// façade (auth, rate limiting, UI) is a separate deployment concern
// this package does not attempt to replace.
package httpapi

import "net/http"

// Server wraps a *http.ServeMux with one Register* method per resource
// group, one handler file per group.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates an empty Server. Call the Register* methods to
// attach resource groups before using Handler().
func NewServer() *Server {
	return &Server{mux: http.NewServeMux()}
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
