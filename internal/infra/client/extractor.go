package client

import (
	"context"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

type extractRequest struct {
	Documents    []documentPayload    `json:"documents"`
	ManualFields *domain.ManualFields `json:"manual_fields,omitempty"`
}

// Extract asks the document-AI service to build a structured customer
// profile from the uploads plus manually entered fields. Merge
// precedence is the orchestrator's job, not the wire call's.
func (c *DocAI) Extract(ctx context.Context, docs []domain.Document, fields *domain.ManualFields) (*domain.CustomerProfile, error) {
	ctx, span := tracer.Start(ctx, "DocAI.Extract")
	defer span.End()
	span.SetAttributes(attribute.Int("documents.count", len(docs)))

	req := extractRequest{
		Documents:    toPayload(docs),
		ManualFields: fields,
	}

	var profile domain.CustomerProfile
	if err := c.post(ctx, "/v1/documents/extract", req, &profile); err != nil {
		return nil, &domain.ErrExternalService{Service: "extractor", Err: err}
	}
	return &profile, nil
}
