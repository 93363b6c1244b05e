package middleware

import (
	"maps"
	"net/http"

	"github.com/dmitrymomot/ssrbridge/core/handler"
)

// SecurityHeadersConfig configures the security headers middleware.
// Empty fields are not sent.
type SecurityHeadersConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	ContentTypeOptions      string
	FrameOptions            string
	StrictTransportSecurity string
	ContentSecurityPolicy   string
	ReferrerPolicy          string
	PermissionsPolicy       string
	CrossOriginOpenerPolicy string

	// CustomHeaders allows adding additional custom security headers
	CustomHeaders map[string]string

	// IsDevelopment drops HSTS.
	IsDevelopment bool
}

var (
	// ProductionSecurity suits server-rendered pages that inline their
	// hydration state.
	ProductionSecurity = SecurityHeadersConfig{
		ContentTypeOptions:      "nosniff",
		FrameOptions:            "SAMEORIGIN",
		StrictTransportSecurity: "max-age=31536000; includeSubDomains",
		ContentSecurityPolicy:   "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' data:",
		ReferrerPolicy:          "strict-origin-when-cross-origin",
		PermissionsPolicy:       "geolocation=(), microphone=(), camera=()",
		CrossOriginOpenerPolicy: "same-origin-allow-popups",
	}

	// DevelopmentSecurity leaves the page open to the dev server's injected
	// client and its websocket.
	DevelopmentSecurity = SecurityHeadersConfig{
		ContentTypeOptions: "nosniff",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      true,
	}
)

// SecurityHeaders picks ProductionSecurity or DevelopmentSecurity.
//
//	r.Use(middleware.SecurityHeaders[*router.Context](mode.IsProduction()))
func SecurityHeaders[C handler.Context](production bool) handler.Middleware[C] {
	if production {
		return SecurityHeadersWithConfig[C](ProductionSecurity)
	}
	return SecurityHeadersWithConfig[C](DevelopmentSecurity)
}

// SecurityHeadersWithConfig adds the configured headers to every response.
// Headers the handler sets itself, such as a page-specific policy returned
// by the renderer, are left untouched.
func SecurityHeadersWithConfig[C handler.Context](cfg SecurityHeadersConfig) handler.Middleware[C] {
	if cfg.IsDevelopment {
		cfg.StrictTransportSecurity = ""
	}

	headers := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			headers[key] = value
		}
	}
	set("X-Content-Type-Options", cfg.ContentTypeOptions)
	set("X-Frame-Options", cfg.FrameOptions)
	set("Strict-Transport-Security", cfg.StrictTransportSecurity)
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)
	set("Cross-Origin-Opener-Policy", cfg.CrossOriginOpenerPolicy)
	maps.Copy(headers, cfg.CustomHeaders)

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			response := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				hw := &headerWriter{ResponseWriter: w, headers: headers}
				err := response(hw, r)
				if err != nil && !hw.done {
					// The error handler writes to w directly.
					hw.apply()
				}
				return err
			}
		}
	}
}

// headerWriter fills in missing headers when the final status is written.
type headerWriter struct {
	http.ResponseWriter
	headers map[string]string
	done    bool
}

func (hw *headerWriter) WriteHeader(code int) {
	if code >= 200 && !hw.done {
		hw.done = true
		hw.apply()
	}
	hw.ResponseWriter.WriteHeader(code)
}

func (hw *headerWriter) apply() {
	h := hw.Header()
	for key, value := range hw.headers {
		if h.Get(key) == "" {
			h.Set(key, value)
		}
	}
}

func (hw *headerWriter) Write(b []byte) (int, error) {
	if !hw.done {
		hw.WriteHeader(http.StatusOK)
	}
	return hw.ResponseWriter.Write(b)
}

func (hw *headerWriter) Unwrap() http.ResponseWriter {
	return hw.ResponseWriter
}
