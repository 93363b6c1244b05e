package router

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// responseWriter is a minimal wrapper around http.ResponseWriter
// that tracks whether a final response has been written.
type responseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
	}
}

// WriteHeader forwards informational (1xx) headers such as 103 Early Hints
// without committing the response. Only the first final status is written.
func (w *responseWriter) WriteHeader(status int) {
	if status >= 100 && status < 200 && status != http.StatusSwitchingProtocols {
		w.ResponseWriter.WriteHeader(status)
		return
	}
	if !w.written {
		w.status = status
		w.written = true
		w.ResponseWriter.WriteHeader(status)
	}
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Written returns true if a final status has been written.
func (w *responseWriter) Written() bool {
	return w.written
}

// Status returns the HTTP status code.
func (w *responseWriter) Status() int {
	return w.status
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker so websocket upgrades can pass through.
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("router: underlying ResponseWriter does not implement http.Hijacker")
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		w.written = true
	}
	return conn, rw, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
