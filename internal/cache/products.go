package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
	"cafeorders/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const listKey = "catalog:products"

// Client is the subset of redis.Cmdable the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store is the catalog persistence being cached.
type Store interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

// Products caches the full product list and drops it on every write.
// Redis failures are logged and served from next.
type Products struct {
	next Store
	rdb  Client
	ttl  time.Duration
}

func NewProducts(next Store, rdb Client, ttl time.Duration) *Products {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Products{next: next, rdb: rdb, ttl: ttl}
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (p *Products) List(ctx context.Context) ([]domain.Product, error) {
	raw, err := p.rdb.Get(ctx, listKey).Bytes()
	switch {
	case err == nil:
		var out []domain.Product
		jerr := json.Unmarshal(raw, &out)
		if jerr == nil {
			metrics.CatalogCache.WithLabelValues("hit").Inc()
			return out, nil
		}
		applog.L().Warn("catalog.cache.decode", zap.Error(jerr))
		metrics.CatalogCache.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.CatalogCache.WithLabelValues("miss").Inc()
	default:
		applog.L().Warn("catalog.cache.get", zap.Error(err))
		metrics.CatalogCache.WithLabelValues("error").Inc()
	}

	out, err := p.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if data, jerr := json.Marshal(out); jerr == nil {
		if serr := p.rdb.Set(ctx, listKey, data, p.ttl).Err(); serr != nil {
			applog.L().Warn("catalog.cache.set", zap.Error(serr))
		}
	}
	return out, nil
}

func (p *Products) Get(ctx context.Context, id int64) (domain.Product, error) {
	return p.next.Get(ctx, id)
}

func (p *Products) Create(ctx context.Context, prod domain.Product) (domain.Product, error) {
	out, err := p.next.Create(ctx, prod)
	if err == nil {
		p.invalidate(ctx)
	}
	return out, err
}

func (p *Products) Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	out, err := p.next.Update(ctx, id, patch)
	if err == nil {
		p.invalidate(ctx)
	}
	return out, err
}

func (p *Products) Delete(ctx context.Context, id int64) error {
	err := p.next.Delete(ctx, id)
	if err == nil {
		p.invalidate(ctx)
	}
	return err
}

func (p *Products) invalidate(ctx context.Context) {
	if err := p.rdb.Del(ctx, listKey).Err(); err != nil {
		applog.L().Warn("catalog.cache.invalidate", zap.Error(err))
	}
}
