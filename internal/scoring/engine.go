// Package scoring implements the deterministic eligibility and
// suitability evaluation of one customer profile against one product.
// Evaluate is pure: no I/O, no clock, no error path.
package scoring

import (
	"fmt"
	"math"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"
)

// ramp is a two-anchor linear normalization: Good maps to 1, Bad maps
// to 0, linear in between. Direction follows from the anchor ordering.
type ramp struct {
	Good float64
	Bad  float64
}

// normalize maps a raw value into [0,1] along the ramp.
func (r ramp) normalize(raw float64) float64 {
	if r.Good == r.Bad {
		return 0
	}
	score := (raw - r.Bad) / (r.Good - r.Bad)
	return math.Max(0, math.Min(1, score))
}

// Metric anchors. Fixed by the scoring rules; products choose weights,
// never anchors.
var ramps = map[domain.Metric]ramp{
	domain.MetricDTI:               {Good: 0.30, Bad: 0.60},
	domain.MetricDSCR:              {Good: 1.5, Bad: 1.0},
	domain.MetricCreditUtilization: {Good: 0.30, Bad: 0.90},
	domain.MetricBouncedCheques:    {Good: 0, Bad: 3},
	domain.MetricLatePayments:      {Good: 0, Bad: 3},
	domain.MetricIncomeStability:   {Good: 10000, Bad: 2000},
	domain.MetricRevenueStability:  {Good: 50000, Bad: 5000},
}

// metricSource returns the profile field feeding the given metric.
func metricSource(p *domain.CustomerProfile, m domain.Metric) *float64 {
	switch m {
	case domain.MetricDTI:
		return p.DebtToIncomeRatio
	case domain.MetricDSCR:
		return p.DebtServiceCoverage
	case domain.MetricCreditUtilization:
		return p.CreditUtilization
	case domain.MetricBouncedCheques:
		return p.BouncedCheques12M
	case domain.MetricLatePayments:
		return p.LatePayments12M
	case domain.MetricIncomeStability:
		return p.MonthlyIncome
	case domain.MetricRevenueStability:
		return p.AvgMonthlyRevenue
	default:
		return nil
	}
}

// Evaluate scores one profile against one product. It never fails:
// missing inputs degrade per the missing-value policy (constraints see
// 0, weighted metrics see the bad anchor).
func Evaluate(profile *domain.CustomerProfile, product *domain.Product) domain.EvaluationResult {
	result := domain.EvaluationResult{
		ProductID:           product.ID,
		Eligible:            true,
		Reasons:             []string{},
		CustomerExplanation: domain.ExplanationPending,
		AdvisorExplanation:  domain.ExplanationPending,
	}

	checkConstraints(profile, &product.Constraints, &result)
	result.Score = round2(weightedScore(profile, product.Weights))
	decide(product, &result)

	return result
}

// checkConstraints runs the hard-constraint pass. Every violated
// constraint appends its own reason; the check never short-circuits.
func checkConstraints(p *domain.CustomerProfile, c *domain.Constraints, result *domain.EvaluationResult) {
	type check struct {
		limit   *float64
		value   *float64
		max     bool
		message string
	}

	checks := []check{
		{c.MinAge, p.Age, false, "Under minimum age (%v)"},
		{c.MaxAge, p.Age, true, "Over maximum age (%v)"},
		{c.MinMonthlyIncome, p.MonthlyIncome, false, "Monthly income below minimum (%v)"},
		{c.MinMonthlyRevenue, p.AvgMonthlyRevenue, false, "Monthly revenue below minimum (%v)"},
		{c.MinBusinessAgeMonths, p.BusinessAgeMonths, false, "Business age below minimum months (%v)"},
		{c.MaxDebtToIncome, p.DebtToIncomeRatio, true, "Debt-to-income ratio above maximum (%v)"},
		{c.MinDSCR, p.DebtServiceCoverage, false, "Debt-service coverage below minimum (%v)"},
		{c.MaxBouncedCheques, p.BouncedCheques12M, true, "Bounced cheques above maximum (%v)"},
		{c.MaxLatePayments, p.LatePayments12M, true, "Late payments above maximum (%v)"},
	}

	for _, ch := range checks {
		if ch.limit == nil {
			continue
		}
		value := domain.ConstraintValue(ch.value)
		violated := value < *ch.limit
		if ch.max {
			violated = value > *ch.limit
		}
		if violated {
			result.Eligible = false
			result.Reasons = append(result.Reasons, fmt.Sprintf(ch.message, *ch.limit))
		}
	}
}

// weightedScore runs the score pass, independent of eligibility. A
// missing raw value contributes the bad anchor, not an exclusion.
// Returns 0 when no positive weights are configured.
func weightedScore(p *domain.CustomerProfile, weights map[domain.Metric]float64) float64 {
	var sum, weightSum float64
	for metric, weight := range weights {
		if weight <= 0 {
			continue
		}
		r, ok := ramps[metric]
		if !ok {
			continue
		}
		raw := domain.MetricValue(metricSource(p, metric), r.Bad)
		sum += weight * r.normalize(raw)
		weightSum += weight
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// decide applies the decision thresholds.
func decide(product *domain.Product, result *domain.EvaluationResult) {
	if !result.Eligible {
		result.Decision = domain.DecisionDecline
		result.Summary = fmt.Sprintf("Not eligible for %s: %s", product.Name, result.Reasons[0])
		return
	}

	switch {
	case result.Score >= product.ApproveThreshold:
		result.Decision = domain.DecisionApprove
		result.Summary = fmt.Sprintf("Approved for %s with score %.2f", product.Name, result.Score)
	case result.Score >= product.ReviewThreshold:
		result.Decision = domain.DecisionReview
		result.Reasons = append(result.Reasons, "Borderline Score")
		result.Summary = fmt.Sprintf("%s referred for review with score %.2f", product.Name, result.Score)
	default:
		result.Decision = domain.DecisionDecline
		result.Reasons = append(result.Reasons, "Low Score")
		result.Summary = fmt.Sprintf("Declined for %s with score %.2f", product.Name, result.Score)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
