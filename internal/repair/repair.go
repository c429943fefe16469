package repair

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"

	"github.com/KonishchevDmitry/feedfix/internal/metrics"
	"github.com/KonishchevDmitry/feedfix/internal/util"
	"github.com/KonishchevDmitry/feedfix/pkg/discover"
	"github.com/KonishchevDmitry/feedfix/pkg/feeds"
	"github.com/KonishchevDmitry/feedfix/pkg/fetch"
	"github.com/KonishchevDmitry/feedfix/pkg/rss"
)

const (
	workers          = 5
	fetchAttempts    = 3
	fetchTimeout     = 30 * time.Second
	discoveryTimeout = 15 * time.Second
)

// Some sites respond with 403 to anything that doesn't look like a browser
const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	browserAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
)

type Outcome string

const (
	OutcomeKept       Outcome = "kept"
	OutcomeRedirected Outcome = "redirected"
	OutcomeDiscovered Outcome = "discovered"
	OutcomeDead       Outcome = "dead"
	OutcomeNotFeed    Outcome = "not-a-feed"
	OutcomeFailed     Outcome = "failed"
	OutcomeSkipped    Outcome = "skipped"
)

var Outcomes = []Outcome{
	OutcomeKept, OutcomeRedirected, OutcomeDiscovered, OutcomeDead, OutcomeNotFeed, OutcomeFailed, OutcomeSkipped,
}

func (o Outcome) Retained() bool {
	return o == OutcomeKept || o == OutcomeRedirected || o == OutcomeDiscovered
}

type Repairer struct {
	repairMetrics
	workers      int
	fetchOptions []fetch.Option
}

type Option func(r *Repairer)

// WithFetchOptions appends options to every fetch request.
func WithFetchOptions(options ...fetch.Option) Option {
	return func(r *Repairer) {
		r.fetchOptions = append(r.fetchOptions, options...)
	}
}

func New(registry *metrics.Registry, opts ...Option) *Repairer {
	r := &Repairer{
		repairMetrics: makeMetrics(registry.ConstLabels()),
		workers:       workers,
		fetchOptions: []fetch.Option{
			fetch.UserAgent(browserUserAgent),
			fetch.Accept(browserAccept),
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	registry.MustRegister(&r.repairMetrics)
	return r
}

type Summary struct {
	Total    int
	Retained int
	Outcomes map[Outcome]int
}

// Repair checks all entries concurrently and returns the ones which point to valid feeds, with their URLs fixed if
// needed. Entries are modified in place. The result is in completion order, not in the input order.
func (r *Repairer) Repair(ctx context.Context, entries []*feeds.Entry) ([]*feeds.Entry, Summary) {
	ctx = fetch.WithContext(ctx, r.fetchDuration, r.fetchOptions...)

	type result struct {
		entry   *feeds.Entry
		outcome Outcome
	}
	results := make(chan result)

	go func() {
		var group errgroup.Group
		group.SetLimit(r.workers)

		for _, entry := range entries {
			group.Go(func() error {
				results <- result{entry: entry, outcome: r.process(ctx, entry)}
				return nil
			})
		}

		_ = group.Wait()
		close(results)
	}()

	summary := Summary{
		Total:    len(entries),
		Outcomes: make(map[Outcome]int),
	}
	var retained []*feeds.Entry

	for result := range results {
		summary.Outcomes[result.outcome]++
		r.outcomes.WithLabelValues(string(result.outcome)).Inc()

		if result.outcome.Retained() {
			retained = append(retained, result.entry)
		}
	}

	summary.Retained = len(retained)
	return retained, summary
}

func (r *Repairer) process(ctx context.Context, entry *feeds.Entry) (outcome Outcome) {
	if entry == nil {
		logging.L(ctx).Warn("Skipping an empty feed entry.")
		return OutcomeSkipped
	}
	entryURL := entry.URL

	startTime := time.Now()
	defer func() {
		r.repairDuration.Observe(time.Since(startTime).Seconds())
	}()

	defer func() {
		if err := recover(); err != nil {
			stack := bytes.TrimRight(debug.Stack(), "\n")
			logging.L(ctx).Errorf("Processing of %q has panicked: %v\n%s", entryURL, err, stack)
			outcome = OutcomeFailed
		}
	}()

	return r.repairEntry(ctx, entry)
}

func (r *Repairer) repairEntry(ctx context.Context, entry *feeds.Entry) Outcome {
	originalURL := entry.URL
	if originalURL == "" {
		logging.L(ctx).Debugf("Skipping %q: it has no URL.", entry.DisplayTitle())
		return OutcomeSkipped
	}

	response, err := fetch.Get(ctx, originalURL, fetch.Timeout(fetchTimeout), fetch.Attempts(fetchAttempts))
	if err != nil {
		if util.IsTemporaryError(err) {
			logging.L(ctx).Warnf("Error: %s.", err)
		} else {
			logging.L(ctx).Errorf("Error: %s.", err)
		}
		return OutcomeFailed
	}

	if response.StatusCode >= http.StatusBadRequest {
		logging.L(ctx).Warnf("Dead (%d): %s.", response.StatusCode, originalURL)
		return OutcomeDead
	}

	if rss.LooksLikeFeed(response.Body) {
		if response.URL == originalURL {
			logging.L(ctx).Debugf("Valid: %s.", originalURL)
			return OutcomeKept
		}

		logging.L(ctx).Infof("Fixed redirect: %s -> %s.", originalURL, response.URL)
		entry.URL = response.URL
		return OutcomeRedirected
	}

	if feedURL, ok := r.discover(ctx, response).Get(); ok {
		logging.L(ctx).Infof("Discovered feed: %s -> %s.", originalURL, feedURL)
		entry.URL = feedURL
		return OutcomeDiscovered
	}

	logging.L(ctx).Warnf("Not a feed and no discovery: %s (final: %s).", originalURL, response.URL)
	return OutcomeNotFeed
}

func (r *Repairer) discover(ctx context.Context, response *fetch.Response) mo.Option[string] {
	pageURL, err := url.Parse(response.URL)
	if err != nil {
		logging.L(ctx).Debugf("Unable to discover a feed on %s: %s.", response.URL, err)
		return mo.None[string]()
	}

	link, ok := discover.FeedLink(ctx, response.Body, pageURL).Get()
	if !ok {
		logging.L(ctx).Debugf("%s has no feed links.", response.URL)
		return mo.None[string]()
	}
	feedURL := link.String()

	if err := r.checkFeed(ctx, feedURL); err != nil {
		logging.L(ctx).Debugf("%s has an unusable feed link: %s.", response.URL, err)
		return mo.None[string]()
	}

	return mo.Some(feedURL)
}

func (r *Repairer) checkFeed(ctx context.Context, url string) error {
	response, err := fetch.Get(ctx, url, fetch.Timeout(discoveryTimeout))
	if err != nil {
		return err
	}

	if err := response.Err(); err != nil {
		return fmt.Errorf("%s: %w", url, err)
	}

	if !rss.LooksLikeFeed(response.Body) {
		return fmt.Errorf("%s is not a feed", url)
	}

	return nil
}
