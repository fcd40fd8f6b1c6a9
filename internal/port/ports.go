// Package port defines the interfaces between the pipeline core and its
// external collaborators. Services depend on these interfaces; the infra
// layer provides the HTTP implementations.
package port

import (
	"context"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"
)

// DocumentValidator checks every uploaded document against the declared
// identity: does the detected name match, and does the detected document
// type match the slot it was uploaded to.
type DocumentValidator interface {
	Validate(ctx context.Context, docs []domain.Document, kind domain.CustomerKind, declaredName string) ([]domain.ValidationFinding, error)
}

// ProfileExtractor builds a structured customer profile from the
// validated documents plus the manually entered fields.
type ProfileExtractor interface {
	Extract(ctx context.Context, docs []domain.Document, fields *domain.ManualFields) (*domain.CustomerProfile, error)
}

// ExplanationGenerator produces the customer- and advisor-facing
// explanation text for one scored product.
type ExplanationGenerator interface {
	Explain(ctx context.Context, profile *domain.CustomerProfile, product *domain.Product, result *domain.EvaluationResult) (*domain.Explanation, error)
}

// ProductGenerator turns a free-text description into a best-effort
// product definition. Demo surface only; never feeds the scoring path.
type ProductGenerator interface {
	Generate(ctx context.Context, description string) (*domain.Product, error)
}

// SnapshotStore persists the session snapshot between restarts of the
// presentation layer. Best effort: Save errors are logged and swallowed
// by the caller, Load of a missing snapshot returns (nil, nil).
type SnapshotStore interface {
	Save(snapshot *domain.SessionSnapshot) error
	Load() (*domain.SessionSnapshot, error)
}
