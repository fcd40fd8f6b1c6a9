package domain

// ============================================================
// Product catalog entries
// ============================================================

// TargetKind says which customer kinds a product is sold to.
type TargetKind string

const (
	TargetIndividual TargetKind = "INDIVIDUAL"
	TargetSME        TargetKind = "SME"
	TargetBoth       TargetKind = "BOTH"
)

// Matches reports whether a product targeted at t applies to kind k.
func (t TargetKind) Matches(k CustomerKind) bool {
	return t == TargetBoth || string(t) == string(k)
}

// Metric names a profile measurement that can carry a scoring weight.
type Metric string

const (
	MetricDTI               Metric = "debt_to_income"
	MetricDSCR              Metric = "dscr"
	MetricCreditUtilization Metric = "credit_utilization"
	MetricBouncedCheques    Metric = "bounced_cheques"
	MetricLatePayments      Metric = "late_payments"
	MetricIncomeStability   Metric = "income_stability"
	MetricRevenueStability  Metric = "revenue_stability"
)

// Constraints are the hard pass/fail thresholds of a product. A nil
// threshold means the product does not constrain that field.
type Constraints struct {
	MinAge               *float64 `json:"min_age,omitempty"`
	MaxAge               *float64 `json:"max_age,omitempty"`
	MinMonthlyIncome     *float64 `json:"min_monthly_income,omitempty"`
	MinMonthlyRevenue    *float64 `json:"min_monthly_revenue,omitempty"`
	MinBusinessAgeMonths *float64 `json:"min_business_age_months,omitempty"`
	MaxDebtToIncome      *float64 `json:"max_debt_to_income,omitempty"`
	MinDSCR              *float64 `json:"min_dscr,omitempty"`
	MaxBouncedCheques    *float64 `json:"max_bounced_cheques,omitempty"`
	MaxLatePayments      *float64 `json:"max_late_payments,omitempty"`
}

// Product is one immutable catalog entry. Loaded once at process start,
// never mutated afterwards.
type Product struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Target   TargetKind `json:"target"`

	Constraints Constraints        `json:"constraints"`
	Weights     map[Metric]float64 `json:"weights,omitempty"`

	// Decision thresholds: ApproveThreshold >= ReviewThreshold >= 0.
	ApproveThreshold float64 `json:"approve_threshold"`
	ReviewThreshold  float64 `json:"review_threshold"`

	// Prompt hints passed to the explanation generator.
	CustomerTemplate string `json:"customer_template,omitempty"`
	AdvisorTemplate  string `json:"advisor_template,omitempty"`
}
