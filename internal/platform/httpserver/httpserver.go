// Package httpserver builds the HTTP server with project defaults.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server. WriteTimeout stays unset because the event
// stream endpoint holds its response open indefinitely.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
