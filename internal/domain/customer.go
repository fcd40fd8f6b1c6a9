package domain

// ============================================================
// Customer / Profile
// ============================================================

// CustomerKind distinguishes retail customers from small businesses.
type CustomerKind string

const (
	KindIndividual CustomerKind = "INDIVIDUAL"
	KindSME        CustomerKind = "SME"
)

// Valid reports whether the kind is one of the two supported values.
func (k CustomerKind) Valid() bool {
	return k == KindIndividual || k == KindSME
}

// CustomerProfile holds the financial facts known about one customer,
// either extracted from documents or entered manually. Numeric fields are
// pointers: nil means "unknown", which is never the same as zero.
type CustomerProfile struct {
	Kind             CustomerKind `json:"kind"`
	Name             string       `json:"name,omitempty"`
	Citizenship      string       `json:"citizenship,omitempty"`
	ResidenceCountry string       `json:"residence_country,omitempty"`

	Age                 *float64 `json:"age,omitempty"`
	MonthlyIncome       *float64 `json:"monthly_income,omitempty"`
	MonthlyExpenses     *float64 `json:"monthly_expenses,omitempty"`
	ExistingLoanPayment *float64 `json:"existing_loan_payment,omitempty"`
	CreditLimit         *float64 `json:"credit_limit,omitempty"`
	CreditUtilization   *float64 `json:"credit_utilization,omitempty"`
	BusinessAgeMonths   *float64 `json:"business_age_months,omitempty"`
	AvgMonthlyRevenue   *float64 `json:"avg_monthly_revenue,omitempty"`
	AvgMonthlyNetProfit *float64 `json:"avg_monthly_net_profit,omitempty"`
	BouncedCheques12M   *float64 `json:"bounced_cheques_12m,omitempty"`
	LatePayments12M     *float64 `json:"late_payments_12m,omitempty"`
	SavingsBalance      *float64 `json:"savings_balance,omitempty"`
	DebtToIncomeRatio   *float64 `json:"debt_to_income_ratio,omitempty"`
	DebtServiceCoverage *float64 `json:"debt_service_coverage,omitempty"`

	RiskFlags     []string `json:"risk_flags,omitempty"`
	Goal          string   `json:"goal,omitempty"`
	RiskTolerance string   `json:"risk_tolerance,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// ManualFields are the values the customer typed in themselves. Declared
// identity always wins over extracted values on merge; numeric fields are
// only used when the extractor left them unknown.
type ManualFields struct {
	Kind             CustomerKind `json:"kind"`
	Name             string       `json:"name,omitempty"`
	Citizenship      string       `json:"citizenship,omitempty"`
	ResidenceCountry string       `json:"residence_country,omitempty"`
	Goal             string       `json:"goal,omitempty"`
	RiskTolerance    string       `json:"risk_tolerance,omitempty"`

	Age               *float64 `json:"age,omitempty"`
	MonthlyIncome     *float64 `json:"monthly_income,omitempty"`
	MonthlyExpenses   *float64 `json:"monthly_expenses,omitempty"`
	AvgMonthlyRevenue *float64 `json:"avg_monthly_revenue,omitempty"`
	SavingsBalance    *float64 `json:"savings_balance,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// ============================================================
// Missing-value policy
// ============================================================
//
// The two passes of the scoring engine treat unknown values differently
// on purpose: hard constraints compare against 0, weighted metrics fall
// back to the metric's worst anchor. Both passes must go through these
// two helpers so the asymmetry stays in one place.

// ConstraintValue returns the value used in hard-constraint checks: the
// raw value, or 0 when unknown.
func ConstraintValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// MetricValue returns the value used in score normalization: the raw
// value, or the pessimistic "bad" anchor when unknown.
func MetricValue(v *float64, bad float64) float64 {
	if v == nil {
		return bad
	}
	return *v
}

// Float64Ptr is a small helper for building profiles in code and tests.
func Float64Ptr(v float64) *float64 { return &v }
