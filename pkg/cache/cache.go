package cache

import (
	"context"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	cache "github.com/go-pkgz/expirable-cache/v3"
)

// Cache memoizes successful results by URL for the lifetime of a job run.
type Cache[T any] struct {
	cache cache.Cache[string, T]
}

func New[T any]() *Cache[T] {
	return &Cache[T]{
		cache: cache.NewCache[string, T](),
	}
}

func (c *Cache[T]) Cached(
	ctx context.Context, url string,
	fetch func(ctx context.Context, url string) (T, error),
) (T, error) {
	if value, ok := c.cache.Get(url); ok {
		logging.L(ctx).Debugf("Got %s from cache.", url)
		return value, nil
	}

	value, err := fetch(ctx, url)
	if err == nil {
		logging.L(ctx).Debugf("Add %s to cache.", url)
		c.cache.Add(url, value)
	}

	return value, err
}

func (c *Cache[T]) Len() int {
	return c.cache.Len()
}
