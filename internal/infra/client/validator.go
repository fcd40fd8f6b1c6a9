package client

import (
	"context"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

type validateRequest struct {
	Documents    []documentPayload   `json:"documents"`
	CustomerKind domain.CustomerKind `json:"customer_kind"`
	DeclaredName string              `json:"declared_name"`
}

type validateResponse struct {
	Findings []domain.ValidationFinding `json:"findings"`
}

// documentPayload is the wire form of an uploaded document. Content is
// base64 via encoding/json's []byte handling.
type documentPayload struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Content  []byte `json:"content"`
	Slot     string `json:"slot"`
}

func toPayload(docs []domain.Document) []documentPayload {
	out := make([]documentPayload, len(docs))
	for i, d := range docs {
		out[i] = documentPayload{Name: d.Name, MIMEType: d.MIMEType, Content: d.Content, Slot: d.Slot}
	}
	return out
}

// Validate asks the document-AI service to check every upload against
// the declared identity and its slot's expected document type.
func (c *DocAI) Validate(ctx context.Context, docs []domain.Document, kind domain.CustomerKind, declaredName string) ([]domain.ValidationFinding, error) {
	ctx, span := tracer.Start(ctx, "DocAI.Validate")
	defer span.End()
	span.SetAttributes(attribute.Int("documents.count", len(docs)))

	req := validateRequest{
		Documents:    toPayload(docs),
		CustomerKind: kind,
		DeclaredName: declaredName,
	}

	var resp validateResponse
	if err := c.post(ctx, "/v1/documents/validate", req, &resp); err != nil {
		return nil, &domain.ErrExternalService{Service: "validator", Err: err}
	}
	return resp.Findings, nil
}
