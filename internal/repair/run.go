package repair

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/samber/lo"

	"github.com/KonishchevDmitry/feedfix/internal/metrics"
	"github.com/KonishchevDmitry/feedfix/pkg/feeds"
)

// Run repairs the feed list and writes the result to a separate file leaving the input intact. A missing input file
// is not an error.
func Run(ctx context.Context, inputPath string, outputPath string, registry *metrics.Registry, opts ...Option) error {
	entries, err := feeds.Load(inputPath)
	if errors.Is(err, fs.ErrNotExist) {
		logging.L(ctx).Errorf("Input file not found: %s.", inputPath)
		return nil
	} else if err != nil {
		return err
	}

	logging.L(ctx).Infof("Processing %d feeds...", len(entries))
	fixed, summary := New(registry, opts...).Repair(ctx, entries)
	logging.L(ctx).Infof("Finished. Retained %d valid feeds (%s).", summary.Retained, summary)

	if err := feeds.Save(outputPath, fixed); err != nil {
		return err
	}
	logging.L(ctx).Infof("The result is written to %s.", outputPath)

	return nil
}

func (s Summary) String() string {
	if s.Total == 0 {
		return "no feeds"
	}
	return strings.Join(lo.FilterMap(Outcomes, func(outcome Outcome, _ int) (string, bool) {
		count := s.Outcomes[outcome]
		return fmt.Sprintf("%s: %d", outcome, count), count != 0
	}), ", ")
}
