package response

import (
	"net/http"

	"github.com/dmitrymomot/ssrbridge/core/handler"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

// Render executes the given response with the provided context.
// A failing response falls back to a plain 500.
func Render(ctx handler.Context, resp handler.Response) {
	if err := resp(ctx.ResponseWriter(), ctx.Request()); err != nil {
		http.Error(ctx.ResponseWriter(), err.Error(), http.StatusInternalServerError)
	}
}

// body writes content with the given type and status (0 means 200).
func body(content, contentType string, status int) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", contentType)
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if content == "" {
			return nil
		}
		_, err := w.Write([]byte(content))
		return err
	}
}

// String creates a text/plain response with 200 OK status.
func String(content string) handler.Response {
	return body(content, contentTypeText, http.StatusOK)
}

// StringWithStatus creates a text/plain response with custom status code.
func StringWithStatus(content string, status int) handler.Response {
	return body(content, contentTypeText, status)
}

// HTML creates a text/html response with 200 OK status.
func HTML(content string) handler.Response {
	return body(content, contentTypeHTML, http.StatusOK)
}

// HTMLWithStatus creates a text/html response with custom status code.
func HTMLWithStatus(content string, status int) handler.Response {
	return body(content, contentTypeHTML, status)
}

// NoContent creates a 204 No Content response.
func NoContent() handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}
