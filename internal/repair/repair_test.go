package repair

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/KonishchevDmitry/feedfix/internal/metrics"
	"github.com/KonishchevDmitry/feedfix/pkg/feeds"
	"github.com/KonishchevDmitry/feedfix/pkg/fetch"
	"github.com/KonishchevDmitry/feedfix/pkg/test/testutil"
)

var feedDocument = heredoc.Doc(`
	<?xml version="1.0" encoding="UTF-8"?>
	<rss version="2.0">
		<channel>
			<title>Feed title</title>
			<item><title>Item</title></item>
		</channel>
	</rss>
`)

type sleepRecorder struct {
	lock   sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, duration time.Duration) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.delays = append(r.delays, duration)
	return nil
}

func newTestRepairer(recorder *sleepRecorder) *Repairer {
	return New(metrics.New("test"), WithFetchOptions(fetch.WithSleep(recorder.sleep)))
}

func newTestServer(t *testing.T) (*httptest.Server, *http.ServeMux) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, mux
}

func writeFeed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/rss+xml")
	_, _ = io.WriteString(w, feedDocument)
}

func repairOne(t *testing.T, repairer *Repairer, url string) (*feeds.Entry, Outcome) {
	entry := feeds.NewEntry("Test", url)
	return entry, repairer.repairEntry(fetch.WithContext(testutil.Context(t), repairer.fetchDuration, repairer.fetchOptions...), entry)
}

func TestRepairValidFeed(t *testing.T) {
	t.Parallel()

	server, mux := newTestServer(t)
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, browserUserAgent, r.Header.Get("User-Agent"))
		require.Equal(t, browserAccept, r.Header.Get("Accept"))
		writeFeed(w)
	})

	var recorder sleepRecorder
	entry, outcome := repairOne(t, newTestRepairer(&recorder), server.URL+"/feed")
	require.Equal(t, OutcomeKept, outcome)
	require.Equal(t, server.URL+"/feed", entry.URL)
}

func TestRepairRedirect(t *testing.T) {
	t.Parallel()

	server, mux := newTestServer(t)
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		writeFeed(w)
	})

	var recorder sleepRecorder
	entry, outcome := repairOne(t, newTestRepairer(&recorder), server.URL+"/old")
	require.Equal(t, OutcomeRedirected, outcome)
	require.Equal(t, server.URL+"/new", entry.URL)
}

func TestRepairDiscovery(t *testing.T) {
	t.Parallel()

	server, mux := newTestServer(t)
	mux.HandleFunc("/blog/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, heredoc.Doc(`
			<!DOCTYPE html>
			<html>
				<head><link rel="alternate" type="application/rss+xml" href="/feed.xml"></head>
				<body>Blog</body>
			</html>
		`))
	})
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		writeFeed(w)
	})

	var recorder sleepRecorder
	entry, outcome := repairOne(t, newTestRepairer(&recorder), server.URL+"/blog/")
	require.Equal(t, OutcomeDiscovered, outcome)
	require.Equal(t, server.URL+"/feed.xml", entry.URL)
}

func TestRepairDiscoveryAfterRedirect(t *testing.T) {
	t.Parallel()

	server, mux := newTestServer(t)
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/site/news/", http.StatusFound)
	})
	mux.HandleFunc("/site/news/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><head><link rel="alternate" type="application/atom+xml" href="atom"></head></html>`)
	})
	mux.HandleFunc("/site/news/atom", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<feed xmlns="http://www.w3.org/2005/Atom"><entry/></feed>`)
	})

	var recorder sleepRecorder
	entry, outcome := repairOne(t, newTestRepairer(&recorder), server.URL+"/old")
	require.Equal(t, OutcomeDiscovered, outcome)
	require.Equal(t, server.URL+"/site/news/atom", entry.URL)
}

func TestRepairDiscoveredLinkIsInvalid(t *testing.T) {
	t.Parallel()

	testCases := map[string]http.HandlerFunc{
		"not-found": func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
		"html": func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html><body>Not a feed either</body></html>")
		},
		"throttled": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
	}

	for name, handler := range testCases {
		t.Run(name, func(t *testing.T) {
			server, mux := newTestServer(t)

			var feedRequests atomic.Int32
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `<link rel="alternate" type="application/rss+xml" href="/rss">`)
			})
			mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
				feedRequests.Add(1)
				handler(w, r)
			})

			var recorder sleepRecorder
			entry, outcome := repairOne(t, newTestRepairer(&recorder), server.URL+"/")
			require.Equal(t, OutcomeNotFeed, outcome)
			require.Equal(t, server.URL+"/", entry.URL)
			require.Equal(t, int32(1), feedRequests.Load())
			require.Empty(t, recorder.delays)
		})
	}
}

func TestRepairNotAFeed(t *testing.T) {
	t.Parallel()

	server, mux := newTestServer(t)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html><head><title>No feeds here</title></head></html>")
	})

	var recorder sleepRecorder
	_, outcome := repairOne(t, newTestRepairer(&recorder), server.URL+"/")
	require.Equal(t, OutcomeNotFeed, outcome)
}

func TestRepairDead(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server, mux := newTestServer(t)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		writeFeed(w)
	})

	var recorder sleepRecorder
	entry, outcome := repairOne(t, newTestRepairer(&recorder), server.URL+"/")
	require.Equal(t, OutcomeDead, outcome)
	require.Equal(t, server.URL+"/", entry.URL)
	require.Equal(t, int32(1), requests.Load())
}

func TestRepairThrottled(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server, mux := newTestServer(t)
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeFeed(w)
	})

	var recorder sleepRecorder
	entry, outcome := repairOne(t, newTestRepairer(&recorder), server.URL+"/feed")
	require.Equal(t, OutcomeKept, outcome)
	require.Equal(t, server.URL+"/feed", entry.URL)
	require.Equal(t, []time.Duration{2 * time.Second}, recorder.delays)
}

func TestRepairThrottledExhausted(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server, mux := newTestServer(t)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	var recorder sleepRecorder
	_, outcome := repairOne(t, newTestRepairer(&recorder), server.URL+"/")
	require.Equal(t, OutcomeDead, outcome)
	require.Equal(t, int32(3), requests.Load())
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, recorder.delays)
}

func TestRepairConnectionRefused(t *testing.T) {
	t.Parallel()

	socket, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := "http://" + socket.Addr().String() + "/"
	require.NoError(t, socket.Close())

	var recorder sleepRecorder
	entry, outcome := repairOne(t, newTestRepairer(&recorder), url)
	require.Equal(t, OutcomeFailed, outcome)
	require.Equal(t, url, entry.URL)
	require.Equal(t, []time.Duration{time.Second, time.Second}, recorder.delays)
}

func TestRepairNoURL(t *testing.T) {
	t.Parallel()

	entries, err := feeds.Decode(strings.NewReader(`[{"title": "No URL"}, {"title": "Null URL", "url": null}]`))
	require.NoError(t, err)

	var recorder sleepRecorder
	retained, summary := newTestRepairer(&recorder).Repair(testutil.Context(t), entries)
	require.Empty(t, retained)
	require.Equal(t, Summary{Total: 2, Outcomes: map[Outcome]int{OutcomeSkipped: 2}}, summary)
}

func TestRepairNilEntry(t *testing.T) {
	t.Parallel()

	server, mux := newTestServer(t)
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		writeFeed(w)
	})

	var recorder sleepRecorder
	retained, summary := newTestRepairer(&recorder).Repair(testutil.Context(t), []*feeds.Entry{
		nil, feeds.NewEntry("Valid", server.URL+"/feed"),
	})
	require.Len(t, retained, 1)
	require.Equal(t, server.URL+"/feed", retained[0].URL)
	require.Equal(t, Summary{
		Total:    2,
		Retained: 1,
		Outcomes: map[Outcome]int{OutcomeKept: 1, OutcomeSkipped: 1},
	}, summary)
}

func TestRepair(t *testing.T) {
	t.Parallel()

	var (
		inFlight    atomic.Int32
		maxInFlight atomic.Int32
	)

	server, mux := newTestServer(t)
	track := func(handler http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			current := inFlight.Add(1)
			defer inFlight.Add(-1)

			for {
				prev := maxInFlight.Load()
				if current <= prev || maxInFlight.CompareAndSwap(prev, current) {
					break
				}
			}

			time.Sleep(10 * time.Millisecond)
			handler(w, r)
		}
	}

	mux.HandleFunc("/valid/", track(func(w http.ResponseWriter, r *http.Request) {
		writeFeed(w)
	}))
	mux.HandleFunc("/moved/", track(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, strings.Replace(r.URL.Path, "/moved/", "/valid/", 1), http.StatusMovedPermanently)
	}))
	mux.HandleFunc("/dead/", track(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))

	var input []string
	for i := range 12 {
		kind := []string{"valid", "moved", "dead"}[i%3]
		input = append(input, heredoc.Docf(`
			{"title": "Feed %d", "url": "%s/%s/%d", "category": "C%d", "tags": ["t%d"]}
		`, i, server.URL, kind, i, i, i))
	}

	entries, err := feeds.Decode(strings.NewReader("[" + strings.Join(input, ",") + "]"))
	require.NoError(t, err)

	var recorder sleepRecorder
	retained, summary := newTestRepairer(&recorder).Repair(testutil.Context(t), entries)

	require.Equal(t, Summary{
		Total:    12,
		Retained: 8,
		Outcomes: map[Outcome]int{OutcomeKept: 4, OutcomeRedirected: 4, OutcomeDead: 4},
	}, summary)
	require.LessOrEqual(t, maxInFlight.Load(), int32(workers))

	require.ElementsMatch(t, []string{
		server.URL + "/valid/0", server.URL + "/valid/1",
		server.URL + "/valid/3", server.URL + "/valid/4",
		server.URL + "/valid/6", server.URL + "/valid/7",
		server.URL + "/valid/9", server.URL + "/valid/10",
	}, lo.Map(retained, func(entry *feeds.Entry, _ int) string {
		return entry.URL
	}))

	for _, entry := range retained {
		title, ok := entry.Title.Get()
		require.True(t, ok)
		index := strings.TrimPrefix(title, "Feed ")

		category, ok := entry.Extra("category")
		require.True(t, ok)
		require.Equal(t, `"C`+index+`"`, string(category))
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	server, mux := newTestServer(t)
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		writeFeed(w)
	})
	mux.HandleFunc("/dead", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	input := heredoc.Docf(`
		[
		  {
		    "title": "Moved",
		    "url": "%[1]s/old",
		    "category": "News"
		  },
		  {
		    "title": "Dead",
		    "url": "%[1]s/dead"
		  }
		]
	`, server.URL)
	inputPath := testutil.WriteFile(t, "suggested_feeds.json", input)
	outputPath := filepath.Join(filepath.Dir(inputPath), "suggested_feeds_fixed.json")

	var recorder sleepRecorder
	registry := metrics.New("test")
	require.NoError(t, Run(testutil.Context(t), inputPath, outputPath, registry,
		WithFetchOptions(fetch.WithSleep(recorder.sleep))))

	require.Equal(t, input, testutil.ReadFile(t, inputPath))
	require.Equal(t, heredoc.Docf(`
		[
		  {
		    "title": "Moved",
		    "url": "%s/new",
		    "category": "News"
		  }
		]
	`, server.URL), testutil.ReadFile(t, outputPath))

	families, err := registry.Gather()
	require.NoError(t, err)

	outcomes := make(map[string]float64)
	for _, family := range families {
		if family.GetName() != "feedfix_repair_outcomes" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" {
					outcomes[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	require.Equal(t, map[string]float64{"redirected": 1, "dead": 1}, outcomes)
}

func TestRunMissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.json")

	require.NoError(t, Run(testutil.Context(t), filepath.Join(dir, "missing.json"), outputPath, metrics.New("test")))
	require.NoFileExists(t, outputPath)
}

func TestSummaryString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "no feeds", Summary{}.String())
	require.Equal(t, "kept: 2, dead: 1", Summary{
		Total:    3,
		Retained: 2,
		Outcomes: map[Outcome]int{OutcomeDead: 1, OutcomeKept: 2},
	}.String())
}
