package catalog

import (
	"testing"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"
)

func TestNew_DefaultCatalogIsValid(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("default catalog failed load-time validation: %v", r)
		}
	}()
	c := New()
	if len(c.Products()) == 0 {
		t.Fatal("expected a non-empty catalog")
	}
}

func TestNew_DuplicateIDPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate product id")
		}
	}()
	newFrom([]domain.Product{
		{ID: "dup", Target: domain.TargetBoth},
		{ID: "dup", Target: domain.TargetBoth},
	})
}

func TestNew_InvertedThresholdsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on approve < review")
		}
	}()
	newFrom([]domain.Product{
		{ID: "bad", Target: domain.TargetBoth, ApproveThreshold: 0.3, ReviewThreshold: 0.6},
	})
}

func TestProductsFor_IncludesBothTargets(t *testing.T) {
	c := newFrom([]domain.Product{
		{ID: "retail", Target: domain.TargetIndividual},
		{ID: "business", Target: domain.TargetSME},
		{ID: "shared", Target: domain.TargetBoth},
	})

	individual := c.ProductsFor(domain.KindIndividual)
	if len(individual) != 2 {
		t.Fatalf("expected 2 products for INDIVIDUAL, got %d", len(individual))
	}
	sme := c.ProductsFor(domain.KindSME)
	if len(sme) != 2 {
		t.Fatalf("expected 2 products for SME, got %d", len(sme))
	}

	for _, kind := range []domain.CustomerKind{domain.KindIndividual, domain.KindSME} {
		found := false
		for _, p := range c.ProductsFor(kind) {
			if p.ID == "shared" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected BOTH-targeted product for kind %s", kind)
		}
	}
}

func TestByID(t *testing.T) {
	c := New()

	p := c.ByID("everyday-cashback-platinum")
	if p == nil {
		t.Fatal("expected to find the cashback card")
	}
	if p.Name != "Everyday Cashback Platinum" {
		t.Errorf("unexpected product name %q", p.Name)
	}

	if c.ByID("no-such-product") != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestProducts_ReturnsCopy(t *testing.T) {
	c := New()

	list := c.Products()
	original := list[0].Name
	list[0].Name = "mutated"

	if c.Products()[0].Name != original {
		t.Error("mutating the returned slice must not touch the catalog")
	}
}
