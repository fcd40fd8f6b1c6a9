// Package catalog holds the fixed product catalog. Products are defined
// in code, validated once at load, and never mutated afterwards.
package catalog

import (
	"fmt"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"
)

// Catalog is the immutable set of products the advisor evaluates.
type Catalog struct {
	products []domain.Product
	byID     map[string]int
}

// New builds the default catalog. It panics on a broken definition
// (duplicate IDs, inverted thresholds, negative weights): that is a
// build-time mistake, not a runtime condition.
func New() *Catalog {
	return newFrom(defaultProducts())
}

func newFrom(products []domain.Product) *Catalog {
	c := &Catalog{
		products: products,
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		if _, dup := c.byID[p.ID]; dup {
			panic(fmt.Sprintf("catalog: duplicate product id %q", p.ID))
		}
		if p.ApproveThreshold < p.ReviewThreshold || p.ReviewThreshold < 0 {
			panic(fmt.Sprintf("catalog: product %q has invalid thresholds approve=%.2f review=%.2f", p.ID, p.ApproveThreshold, p.ReviewThreshold))
		}
		for metric, w := range p.Weights {
			if w < 0 {
				panic(fmt.Sprintf("catalog: product %q has negative weight for %s", p.ID, metric))
			}
		}
		c.byID[p.ID] = i
	}
	return c
}

// Products returns a copy of the full catalog.
func (c *Catalog) Products() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// ProductsFor returns the products sold to the given customer kind.
// BOTH-targeted products are included for either kind.
func (c *Catalog) ProductsFor(kind domain.CustomerKind) []domain.Product {
	var out []domain.Product
	for _, p := range c.products {
		if p.Target.Matches(kind) {
			out = append(out, p)
		}
	}
	return out
}

// ByID returns the product with the given identifier, or nil.
func (c *Catalog) ByID(id string) *domain.Product {
	i, ok := c.byID[id]
	if !ok {
		return nil
	}
	p := c.products[i]
	return &p
}

func defaultProducts() []domain.Product {
	return []domain.Product{
		{
			ID:       "everyday-cashback-platinum",
			Name:     "Everyday Cashback Platinum",
			Category: "credit_card",
			Target:   domain.TargetIndividual,
			Constraints: domain.Constraints{
				MinAge:           domain.Float64Ptr(21),
				MinMonthlyIncome: domain.Float64Ptr(3000),
				MaxDebtToIncome:  domain.Float64Ptr(0.5),
			},
			Weights: map[domain.Metric]float64{
				domain.MetricDTI:               2,
				domain.MetricCreditUtilization: 2,
				domain.MetricLatePayments:      1,
				domain.MetricIncomeStability:   1,
			},
			ApproveThreshold: 0.75,
			ReviewThreshold:  0.5,
			CustomerTemplate: "Explain in plain language why this cashback card does or does not fit the customer's spending profile.",
			AdvisorTemplate:  "Summarize utilization, DTI and payment history drivers behind the card decision.",
		},
		{
			ID:       "flexi-personal-loan",
			Name:     "Flexi Personal Loan",
			Category: "personal_loan",
			Target:   domain.TargetIndividual,
			Constraints: domain.Constraints{
				MinAge:            domain.Float64Ptr(21),
				MaxAge:            domain.Float64Ptr(65),
				MinMonthlyIncome:  domain.Float64Ptr(5000),
				MaxDebtToIncome:   domain.Float64Ptr(0.45),
				MaxBouncedCheques: domain.Float64Ptr(0),
			},
			Weights: map[domain.Metric]float64{
				domain.MetricDTI:             3,
				domain.MetricLatePayments:    2,
				domain.MetricBouncedCheques:  2,
				domain.MetricIncomeStability: 2,
			},
			ApproveThreshold: 0.7,
			ReviewThreshold:  0.45,
			CustomerTemplate: "Explain affordability of the loan given income and existing obligations.",
			AdvisorTemplate:  "Highlight repayment-capacity drivers and any adverse history.",
		},
		{
			ID:       "savings-builder",
			Name:     "Savings Builder Account",
			Category: "savings",
			Target:   domain.TargetIndividual,
			Constraints: domain.Constraints{
				MinAge: domain.Float64Ptr(18),
			},
			Weights: map[domain.Metric]float64{
				domain.MetricIncomeStability: 1,
			},
			ApproveThreshold: 0,
			ReviewThreshold:  0,
			CustomerTemplate: "Explain how a recurring-deposit savings account supports the customer's goal.",
			AdvisorTemplate:  "Note income regularity and savings headroom.",
		},
		{
			ID:       "sme-working-capital",
			Name:     "SME Working Capital Line",
			Category: "business_credit",
			Target:   domain.TargetSME,
			Constraints: domain.Constraints{
				MinMonthlyRevenue:    domain.Float64Ptr(40000),
				MinBusinessAgeMonths: domain.Float64Ptr(24),
				MinDSCR:              domain.Float64Ptr(1.25),
				MaxBouncedCheques:    domain.Float64Ptr(2),
			},
			Weights: map[domain.Metric]float64{
				domain.MetricDSCR:             3,
				domain.MetricRevenueStability: 2,
				domain.MetricBouncedCheques:   2,
				domain.MetricLatePayments:     1,
			},
			ApproveThreshold: 0.7,
			ReviewThreshold:  0.5,
			CustomerTemplate: "Explain how the credit line matches the business's cash-flow cycle.",
			AdvisorTemplate:  "Summarize DSCR, revenue trend and cheque history behind the line decision.",
		},
		{
			ID:       "sme-equipment-loan",
			Name:     "SME Equipment Loan",
			Category: "business_loan",
			Target:   domain.TargetSME,
			Constraints: domain.Constraints{
				MinMonthlyRevenue:    domain.Float64Ptr(25000),
				MinBusinessAgeMonths: domain.Float64Ptr(12),
				MinDSCR:              domain.Float64Ptr(1.1),
				MaxLatePayments:      domain.Float64Ptr(3),
			},
			Weights: map[domain.Metric]float64{
				domain.MetricDSCR:             3,
				domain.MetricRevenueStability: 2,
				domain.MetricLatePayments:     2,
			},
			ApproveThreshold: 0.65,
			ReviewThreshold:  0.4,
			CustomerTemplate: "Explain the equipment-financing fit against business age and revenue.",
			AdvisorTemplate:  "Highlight serviceability and tenure considerations for the asset loan.",
		},
		{
			ID:       "business-current-account",
			Name:     "Business Current Account",
			Category: "account",
			Target:   domain.TargetBoth,
			Constraints: domain.Constraints{
				MaxBouncedCheques: domain.Float64Ptr(3),
			},
			Weights:          map[domain.Metric]float64{},
			ApproveThreshold: 0,
			ReviewThreshold:  0,
			CustomerTemplate: "Explain the everyday banking features relevant to the customer.",
			AdvisorTemplate:  "Note any cheque-conduct concerns for account opening.",
		},
	}
}
