package validate

import (
	"context"
	"fmt"
	"io"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/samber/lo"

	"github.com/KonishchevDmitry/feedfix/internal/metrics"
	"github.com/KonishchevDmitry/feedfix/pkg/feeds"
)

// ReadError means that the feed list can't be loaded and nothing has been validated.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %s", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Run validates all feeds from the file one by one and writes the report. The file is never modified.
func Run(
	ctx context.Context, path string, registry *metrics.Registry, writer io.Writer, opts ...Option,
) (*Report, error) {
	entries, err := feeds.Load(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	validator := New(registry, opts...)
	logging.L(ctx).Infof("Validating %d feeds...", len(entries))

	var report Report
	for index, entry := range entries {
		title := entry.DisplayTitle()
		logging.L(ctx).Infof("[%d/%d] %s -> %s", index+1, len(entries), title, entry.URL)

		result := validator.Check(ctx, entry.URL)
		if !result.OK {
			logging.L(ctx).Warnf("%s: %s.", entry.URL, result.Reason)
		} else if result.FeedType != "" {
			logging.L(ctx).Infof("OK: %s feed %q with %d items.", result.FeedType, result.Title, result.Items)
		} else {
			logging.L(ctx).Infof("OK: %d items.", result.Items)
		}
		report.Add(title, entry.URL, result)
	}

	unique := len(lo.Uniq(lo.FilterMap(entries, func(entry *feeds.Entry, _ int) (string, bool) {
		return entry.URL, entry.URL != ""
	})))
	logging.L(ctx).Debugf("Checked %d unique URLs.", unique)

	if err := report.Write(writer); err != nil {
		return nil, err
	}

	return &report, nil
}
