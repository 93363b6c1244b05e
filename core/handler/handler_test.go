package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/router"
)

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) handler.Middleware[*router.Context] {
		return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				order = append(order, name)
				return next(ctx)
			}
		}
	}

	endpoint := func(ctx *router.Context) handler.Response {
		order = append(order, "endpoint")
		return func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}
	}

	h := handler.Chain([]handler.Middleware[*router.Context]{mw("first"), mw("second")}, endpoint)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	ctx := router.NewContext(w, req, nil)

	resp := h(ctx)
	require.NotNil(t, resp)
	require.NoError(t, resp(w, req))

	assert.Equal(t, []string{"first", "second", "endpoint"}, order)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestChainWithoutMiddlewares(t *testing.T) {
	t.Parallel()

	called := false
	endpoint := func(ctx *router.Context) handler.Response {
		called = true
		return nil
	}

	h := handler.Chain(nil, endpoint)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h(router.NewContext(httptest.NewRecorder(), req, nil))

	assert.True(t, called)
}
