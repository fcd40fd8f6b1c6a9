package client

import (
	"context"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

type explainRequest struct {
	Profile          *domain.CustomerProfile  `json:"profile"`
	Product          *domain.Product          `json:"product"`
	Result           *domain.EvaluationResult `json:"result"`
	CustomerTemplate string                   `json:"customer_template,omitempty"`
	AdvisorTemplate  string                   `json:"advisor_template,omitempty"`
}

// Explain asks the document-AI service for customer- and advisor-facing
// explanation text for one scored product.
func (c *DocAI) Explain(ctx context.Context, profile *domain.CustomerProfile, product *domain.Product, result *domain.EvaluationResult) (*domain.Explanation, error) {
	ctx, span := tracer.Start(ctx, "DocAI.Explain")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", product.ID),
		attribute.String("decision", string(result.Decision)),
	)

	req := explainRequest{
		Profile:          profile,
		Product:          product,
		Result:           result,
		CustomerTemplate: product.CustomerTemplate,
		AdvisorTemplate:  product.AdvisorTemplate,
	}

	var explanation domain.Explanation
	if err := c.post(ctx, "/v1/explanations", req, &explanation); err != nil {
		return nil, &domain.ErrExternalService{Service: "explainer", Err: err}
	}
	return &explanation, nil
}
