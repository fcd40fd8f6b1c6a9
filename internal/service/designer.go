package service

import (
	"context"
	"strings"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/cache"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/observability"
	"github.com/mhaikal/finfit-advisor-go/internal/port"

	"go.uber.org/zap"
)

// Designer is the catalog-configuration demo surface: it turns a
// free-text description into a draft product via the AI generator.
// Results are memoized; the same description should not cost a second
// AI call. Drafts never reach the scoring path.
type Designer struct {
	generator port.ProductGenerator
	cache     *cache.InMemory[*domain.Product]
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewDesigner creates the product designer service.
func NewDesigner(generator port.ProductGenerator, c *cache.InMemory[*domain.Product], metrics *observability.Metrics, logger *zap.Logger) *Designer {
	return &Designer{
		generator: generator,
		cache:     c,
		metrics:   metrics,
		logger:    logger,
	}
}

// GenerateProduct drafts a product from a description.
func (d *Designer) GenerateProduct(ctx context.Context, description string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Designer.GenerateProduct")
	defer span.End()

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, &domain.ErrInvalidInput{Field: "description", Message: "description is required"}
	}

	key := strings.ToLower(description)
	if cached, ok := d.cache.Get(key); ok {
		d.metrics.IncrCacheHit("product_gen")
		return cached, nil
	}
	d.metrics.IncrCacheMiss("product_gen")

	product, err := d.generator.Generate(ctx, description)
	if err != nil {
		d.metrics.IncrExternalError("product-generator")
		return nil, err
	}

	d.cache.Set(key, product)
	d.logger.Info("product draft generated", zap.String("product_id", product.ID))
	return product, nil
}
