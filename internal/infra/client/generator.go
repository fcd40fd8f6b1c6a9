package client

import (
	"context"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

type generateRequest struct {
	Description string `json:"description"`
}

// Generate asks the document-AI service to draft a product definition
// from a free-text description. Best effort; the result never feeds the
// scoring path.
func (c *DocAI) Generate(ctx context.Context, description string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "DocAI.Generate")
	defer span.End()
	span.SetAttributes(attribute.Int("description.length", len(description)))

	var product domain.Product
	if err := c.post(ctx, "/v1/products/generate", generateRequest{Description: description}, &product); err != nil {
		return nil, &domain.ErrExternalService{Service: "product-generator", Err: err}
	}
	return &product, nil
}
