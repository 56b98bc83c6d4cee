package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	CategoryListKey   = "categories:all"
	CategoryKeyPrefix = "category:%s"
)

const (
	CategoryTTL = 10 * time.Minute
)

func CategoryKey(id string) string {
	return fmt.Sprintf(CategoryKeyPrefix, id)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateCategory drops the cached category and the cached list.
func InvalidateCategory(ctx context.Context, id string) {
	Invalidate(ctx, CategoryKey(id), CategoryListKey)
}
