package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/mo"
)

const (
	defaultTimeout   = time.Minute
	defaultUserAgent = "github.com/KonishchevDmitry/feedfix"
)

type Option func(o *options)

type options struct {
	client    *http.Client
	userAgent string
	accept    mo.Option[string]
	timeout   time.Duration
	attempts  int
	sleep     func(ctx context.Context, duration time.Duration) error
}

func getOptions(opts []Option) options {
	options := options{
		client:    http.DefaultClient,
		userAgent: defaultUserAgent,
		timeout:   defaultTimeout,
		attempts:  1,
		sleep:     sleep,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func UserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

func Accept(accept string) Option {
	return func(o *options) {
		o.accept = mo.Some(accept)
	}
}

// Timeout limits a single attempt, not the whole retry sequence.
func Timeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// Attempts enables retrying of throttled responses and network errors.
func Attempts(attempts int) Option {
	return func(o *options) {
		o.attempts = max(attempts, 1)
	}
}

func WithSleep(sleep func(ctx context.Context, duration time.Duration) error) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

func sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
