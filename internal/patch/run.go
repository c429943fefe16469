package patch

import (
	"context"
	"errors"
	"io/fs"

	logging "github.com/KonishchevDmitry/go-easy-logging"

	"github.com/KonishchevDmitry/feedfix/pkg/feeds"
)

// Run applies the rules to the feed list and overwrites it if any URL has been changed.
func Run(ctx context.Context, path string, rules []Rule) ([]Change, error) {
	entries, err := feeds.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.L(ctx).Errorf("File not found: %s.", path)
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	changes := Apply(ctx, entries, rules)
	if len(changes) == 0 {
		logging.L(ctx).Info("No changes")
		return nil, nil
	}

	if err := feeds.Save(path, entries); err != nil {
		return nil, err
	}
	logging.L(ctx).Infof("Updated %s (%d feeds fixed)", path, len(changes))

	return changes, nil
}
