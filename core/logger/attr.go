package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety.

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Latency is an alias for Duration, commonly used in web contexts.
func Latency(d time.Duration) slog.Attr {
	return slog.Duration("latency", d)
}

// RequestID creates an attribute for HTTP request IDs.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Method creates an attribute for HTTP methods.
func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// Path creates an attribute for URL paths.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// URL creates an attribute for a full request URL or URI.
func URL(u string) slog.Attr {
	if u == "" {
		return slog.Attr{}
	}
	return slog.String("url", u)
}

// Query creates an attribute for raw query strings.
func Query(q string) slog.Attr {
	if q == "" {
		return slog.Attr{}
	}
	return slog.String("query", q)
}

// StatusCode creates an attribute for HTTP status codes.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// RemoteAddr creates an attribute for the peer address.
func RemoteAddr(addr string) slog.Attr {
	return slog.String("remote_addr", addr)
}

// Component creates an attribute for component names.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event creates an attribute for event names.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Mode creates an attribute for the runtime mode (development, production).
func Mode(mode string) slog.Attr {
	return slog.String("mode", mode)
}

// Dir creates an attribute for a filesystem directory.
func Dir(dir string) slog.Attr {
	if dir == "" {
		return slog.Attr{}
	}
	return slog.String("dir", dir)
}

// Addr creates an attribute for a listen address.
func Addr(addr string) slog.Attr {
	return slog.String("addr", addr)
}

// BytesOut creates an attribute for the response size.
func BytesOut(n int64) slog.Attr {
	return slog.Int64("bytes_out", n)
}
