package fetch

import (
	"context"
	"errors"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

type fetchContext struct {
	duration prometheus.Observer
	options  []Option
}

type contextKey struct{}

// WithContext returns a context which all fetches of the job must be made with. The options are applied to every
// request before the per-request ones.
func WithContext(ctx context.Context, duration prometheus.Observer, opts ...Option) context.Context {
	return context.WithValue(ctx, contextKey{}, &fetchContext{
		duration: duration,
		options:  slices.Clone(opts),
	})
}

func getContext(ctx context.Context) (*fetchContext, error) {
	fetchCtx, ok := ctx.Value(contextKey{}).(*fetchContext)
	if !ok {
		return nil, errors.New("fetch context is missing")
	}
	return fetchCtx, nil
}

func (c *fetchContext) getOptions(opts []Option) options {
	return getOptions(append(slices.Clone(c.options), opts...))
}
