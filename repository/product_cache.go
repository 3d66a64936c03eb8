package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lindawangwe/mama-uncle-stores/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ProductCachePrefix = "product:detail:"
	FeaturedCacheKey   = "products:featured"
)

// ErrCacheMiss is returned when a key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// ProductCache is a read-through cache for product detail and the featured list.
type ProductCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewProductCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	if logger == nil {
		logger = zap.L()
	}
	return &ProductCache{
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

func (pc *ProductCache) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	if err := pc.get(ctx, ProductCachePrefix+productID, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (pc *ProductCache) SetProduct(ctx context.Context, product *models.Product) {
	pc.set(ctx, ProductCachePrefix+product.ID.Hex(), product)
}

func (pc *ProductCache) GetFeatured(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := pc.get(ctx, FeaturedCacheKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (pc *ProductCache) SetFeatured(ctx context.Context, products []models.Product) {
	pc.set(ctx, FeaturedCacheKey, products)
}

// InvalidateProduct drops the detail entry for productID and the featured list.
func (pc *ProductCache) InvalidateProduct(ctx context.Context, productID string) {
	if err := pc.redis.Del(ctx, ProductCachePrefix+productID, FeaturedCacheKey).Err(); err != nil {
		pc.logger.Warn("Failed to invalidate product cache", zap.String("product_id", productID), zap.Error(err))
	}
}

func (pc *ProductCache) get(ctx context.Context, key string, dst any) error {
	data, err := pc.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		pc.logger.Warn("Failed to unmarshal cached value", zap.String("key", key), zap.Error(err))
		return ErrCacheMiss
	}
	return nil
}

func (pc *ProductCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		pc.logger.Warn("Failed to marshal value for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := pc.redis.Set(ctx, key, data, pc.ttl).Err(); err != nil {
		pc.logger.Warn("Failed to write cache", zap.String("key", key), zap.Error(err))
	}
}
