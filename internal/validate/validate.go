package validate

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/mmcdole/gofeed"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KonishchevDmitry/feedfix/internal/metrics"
	"github.com/KonishchevDmitry/feedfix/pkg/cache"
	"github.com/KonishchevDmitry/feedfix/pkg/fetch"
	"github.com/KonishchevDmitry/feedfix/pkg/rss"
)

const (
	userAgent    = "NewsReaderFeedValidator/1.0"
	fetchTimeout = 15 * time.Second
)

type Result struct {
	OK     bool
	Reason string

	// Set for valid feeds. FeedType is empty if the feed is well-formed, but gofeed is unable to parse it.
	FeedType string
	Title    string
	Items    int
}

func valid(structure *rss.Structure, feed *gofeed.Feed) Result {
	result := Result{OK: true, Reason: "OK", Items: structure.Entries}
	if feed != nil {
		result.FeedType = feed.FeedType
		result.Title = feed.Title
		result.Items = len(feed.Items)
	}
	return result
}

func invalid(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

type Validator struct {
	fetchDuration prometheus.Histogram
	results       *prometheus.CounterVec

	cache        *cache.Cache[Result]
	fetchOptions []fetch.Option
}

type Option func(v *Validator)

// WithFetchOptions appends options to every fetch request.
func WithFetchOptions(options ...fetch.Option) Option {
	return func(v *Validator) {
		v.fetchOptions = append(v.fetchOptions, options...)
	}
}

func New(registry *metrics.Registry, opts ...Option) *Validator {
	labels := registry.ConstLabels()

	v := &Validator{
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "feedfix_fetch_duration",
			Help:        "Document fetch duration",
			ConstLabels: labels,
			Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "feedfix_validation_results",
			Help:        "Feed validation results by detected feed type",
			ConstLabels: labels,
		}, []string{"result", "type"}),

		cache: cache.New[Result](),
		fetchOptions: []fetch.Option{
			fetch.UserAgent(userAgent),
			fetch.Timeout(fetchTimeout),
		},
	}
	for _, opt := range opts {
		opt(v)
	}

	registry.MustRegister(v.fetchDuration, v.results)
	return v
}

// Check validates the feed at the URL. Results are memoized, so each URL is fetched only once per validator.
func (v *Validator) Check(ctx context.Context, url string) Result {
	if url == "" {
		return v.count(invalid("missing url"))
	}

	// The check itself never fails: any problem is a result which is worth caching too
	result, _ := v.cache.Cached(ctx, url, func(ctx context.Context, url string) (Result, error) {
		return v.check(fetch.WithContext(ctx, v.fetchDuration, v.fetchOptions...), url), nil
	})

	return v.count(result)
}

func (v *Validator) check(ctx context.Context, url string) Result {
	response, err := fetch.Get(ctx, url)
	if err != nil {
		return invalid("fetch error: %s", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		return invalid("HTTP error %d", response.StatusCode)
	} else if response.StatusCode != http.StatusOK {
		return invalid("HTTP %d", response.StatusCode)
	}

	if !rss.IsXMLContentType(response.ContentType) {
		logging.L(ctx).Debugf("%s has a non-XML content type: %q.", url, response.ContentType)
	}

	structure, err := rss.Inspect(response.Body)
	if err != nil {
		return invalid("%s", err)
	}
	logging.L(ctx).Debugf("%s: <%s> with %d entries.", url, structure.Root, structure.Entries)

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(response.Body))
	if err != nil {
		logging.L(ctx).Warnf("%s is well-formed, but can't be parsed as a feed: %s.", url, err)
		feed = nil
	}

	return valid(structure, feed)
}

func (v *Validator) count(result Result) Result {
	label := "valid"
	if !result.OK {
		label = "invalid"
	}
	v.results.WithLabelValues(label, result.FeedType).Inc()
	return result
}
