package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
)

type Response struct {
	// URL is the final URL after all redirects.
	URL         string
	StatusCode  int
	Status      string
	ContentType string
	Body        []byte
}

func (r *Response) Err() error {
	if r.StatusCode == http.StatusOK {
		return nil
	}
	return &HTTPError{StatusCode: r.StatusCode, Status: r.Status}
}

// Get fetches the URL following redirects. Any HTTP status is a successful fetch: the caller decides what
// to do with it. With Attempts option throttled responses and network errors are retried, and the last
// throttled response is returned when attempts are exhausted.
func Get(ctx context.Context, url string, opts ...Option) (_ *Response, retErr error) {
	defer func() {
		if retErr != nil {
			retErr = fmt.Errorf("failed to fetch %s: %w", url, retErr)
		}
	}()

	fetchCtx, err := getContext(ctx)
	if err != nil {
		return nil, err
	}
	options := fetchCtx.getOptions(opts)

	retry := newRetryState(options.attempts)

	for {
		logging.L(ctx).Debugf("Fetching %s (attempt %d/%d)...", url, retry.attempt, retry.attempts)

		startTime := time.Now()
		response, err := httpClientFetch(ctx, url, options)
		fetchCtx.duration.Observe(time.Since(startTime).Seconds())

		delay, ok := retry.next(classifyAttempt(response, err))
		if !ok {
			return response, err
		}

		if err != nil {
			logging.L(ctx).Debugf("Failed to fetch %s: %s. Retrying in %s...", url, err, delay)
		} else {
			logging.L(ctx).Debugf("%s is throttled (%s). Retrying in %s...", url, response.Status, delay)
		}

		if err := options.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func httpClientFetch(ctx context.Context, url string, options options) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, options.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Add("User-Agent", options.userAgent)
	if accept, ok := options.accept.Get(); ok {
		request.Header.Add("Accept", accept)
	}

	response, err := options.client.Do(request)
	if err != nil {
		return nil, makeTemporaryError(err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.L(ctx).Errorf("Failed to close HTTP client body: %s.", err)
		}
	}()

	body, err := io.ReadAll(bodyReader{body: response.Body})
	if err != nil {
		return nil, err
	}

	return &Response{
		URL:         response.Request.URL.String(),
		StatusCode:  response.StatusCode,
		Status:      response.Status,
		ContentType: response.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

type bodyReader struct {
	body io.Reader
}

var _ io.Reader = bodyReader{}

func (r bodyReader) Read(buf []byte) (int, error) {
	n, err := r.body.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		err = makeTemporaryError(err)
	}
	return n, err
}
