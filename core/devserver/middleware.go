package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"

	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/logger"
	"github.com/dmitrymomot/ssrbridge/core/response"
)

// errPassThrough marks upstream 404s that should reach the next handler.
var errPassThrough = errors.New("devserver: pass through")

type proxyStateKey struct{}

type proxyState struct {
	err error
}

func (p *Proxy) newReverseProxy() *httputil.ReverseProxy {
	rp := httputil.NewSingleHostReverseProxy(p.target)
	rp.ModifyResponse = func(res *http.Response) error {
		if res.StatusCode == http.StatusNotFound {
			return errPassThrough
		}
		return nil
	}
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if s, ok := r.Context().Value(proxyStateKey{}).(*proxyState); ok {
			s.err = err
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}
	return rp
}

// Forward proxies r and reports whether the dev server produced a response.
// It returns false with a nil error when the dev server answered 404.
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request) (bool, error) {
	if err := p.checkFS(r.URL.Path); err != nil {
		return false, err
	}

	state := &proxyState{}
	p.proxy.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), proxyStateKey{}, state)))

	switch {
	case state.err == nil:
		return true, nil
	case errors.Is(state.err, errPassThrough):
		return false, nil
	case errors.Is(state.err, context.Canceled):
		return true, nil
	default:
		p.logger.ErrorContext(r.Context(), "dev server request failed",
			logger.Path(r.URL.Path),
			logger.Error(state.err),
		)
		return false, response.ErrBadGateway.WithError(fmt.Errorf("devserver: proxy %s: %w", r.URL.Path, state.err))
	}
}

// Middleware mounts the proxy in front of next. Only dev server traffic
// (see Proxy.Forwards) is proxied; page requests and anything the dev server
// answers with 404 are handed to next unchanged.
func Middleware[C handler.Context](p *Proxy) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			return func(w http.ResponseWriter, r *http.Request) error {
				if !p.Forwards(r) {
					return next(ctx)(w, r)
				}
				served, err := p.Forward(w, r)
				if err != nil || served {
					return err
				}
				return next(ctx)(w, r)
			}
		}
	}
}
