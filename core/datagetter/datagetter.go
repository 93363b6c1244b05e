package datagetter

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/ssrbridge/core/response"
	"github.com/dmitrymomot/ssrbridge/core/ssr"
)

// ErrorField is the JSON key holding the normalized error of a failed getter.
const ErrorField = "dataGetterError"

// DataField holds data that does not encode as a JSON object.
const DataField = "data"

// Getter loads data for a page.
type Getter[T any] func(ctx context.Context, pc ssr.PageContext) (T, error)

// Normalizer converts an error into the value handed to pages.
type Normalizer func(error) response.HTTPError

// Extender computes fields added to every result of a getter.
type Extender func(pc ssr.PageContext) map[string]any

// Wrapper holds the settings shared by wrapped getters.
type Wrapper struct {
	normalize Normalizer
	extend    Extender
}

// Option configures a Wrapper.
type Option func(*Wrapper)

// WithNormalizer replaces response.NormalizeError.
func WithNormalizer(fn Normalizer) Option {
	return func(w *Wrapper) {
		if fn != nil {
			w.normalize = fn
		}
	}
}

// WithExtender merges the returned fields into successful and failed results.
func WithExtender(fn Extender) Option {
	return func(w *Wrapper) {
		w.extend = fn
	}
}

// New creates a Wrapper.
func New(opts ...Option) *Wrapper {
	w := &Wrapper{normalize: response.NormalizeError}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wrap returns a getter that always produces a Result. A nil w uses the
// defaults.
func Wrap[T any](w *Wrapper, g Getter[T]) func(ctx context.Context, pc ssr.PageContext) Result[T] {
	if w == nil {
		w = New()
	}
	return func(ctx context.Context, pc ssr.PageContext) Result[T] {
		data, err := call(ctx, pc, g)

		res := Result[T]{Extra: w.extra(pc)}
		if err != nil {
			herr := w.normalizeError(err)
			res.Err = &herr
			return res
		}
		res.Data = data
		return res
	}
}

func call[T any](ctx context.Context, pc ssr.PageContext, g Getter[T]) (data T, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero T
			data = zero
			if e, ok := p.(error); ok {
				err = fmt.Errorf("datagetter: panic: %w", e)
				return
			}
			err = fmt.Errorf("datagetter: panic: %v", p)
		}
	}()

	if g == nil {
		return data, fmt.Errorf("datagetter: nil getter")
	}
	return g(ctx, pc)
}

// normalizeError runs the normalizer, falling back to
// response.NormalizeError when it panics.
func (w *Wrapper) normalizeError(err error) (herr response.HTTPError) {
	defer func() {
		if recover() != nil {
			herr = response.NormalizeError(err)
		}
	}()
	return w.normalize(err)
}

// extra runs the extender. A panicking extender yields no extra fields.
func (w *Wrapper) extra(pc ssr.PageContext) (fields map[string]any) {
	if w.extend == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			fields = nil
		}
	}()
	return w.extend(pc)
}
