package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ibitsola/Tekhnologia/internal/domain/model"
)

const catalogPrefix = "catalog:list:"

// CatalogCacheRepo caches resource listings per filter key. A nil client or
// an unreachable redis degrades to cache misses; listing reads then fall
// through to postgres.
type CatalogCacheRepo struct {
	client *goredis.Client
}

func NewCatalogCacheRepo(client *goredis.Client) *CatalogCacheRepo {
	return &CatalogCacheRepo{client: client}
}

func (r *CatalogCacheRepo) Get(ctx context.Context, filterKey string) ([]model.Resource, bool, error) {
	if r.client == nil {
		return nil, false, nil
	}
	filterKey = strings.TrimSpace(filterKey)
	if filterKey == "" {
		return nil, false, fmt.Errorf("invalid catalog cache key")
	}

	raw, err := r.client.Get(ctx, catalogPrefix+filterKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get catalog cache: %w", err)
	}

	var resources []model.Resource
	if err := json.Unmarshal(raw, &resources); err != nil {
		// A stale or corrupt entry must not break listings.
		return nil, false, nil
	}

	return resources, true, nil
}

func (r *CatalogCacheRepo) Set(ctx context.Context, filterKey string, resources []model.Resource, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	filterKey = strings.TrimSpace(filterKey)
	if filterKey == "" {
		return fmt.Errorf("invalid catalog cache key")
	}
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(resources)
	if err != nil {
		return fmt.Errorf("marshal catalog cache entry: %w", err)
	}

	if err := r.client.Set(ctx, catalogPrefix+filterKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set catalog cache: %w", err)
	}

	return nil
}

// Invalidate drops every cached listing. Catalog writes are rare enough that
// a full flush is simpler than tracking which filters a change affects.
func (r *CatalogCacheRepo) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, catalogPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan catalog cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete catalog cache keys: %w", err)
	}

	return nil
}
