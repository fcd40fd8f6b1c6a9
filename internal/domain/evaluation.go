package domain

// ============================================================
// Evaluation results
// ============================================================

// Decision is the tri-state outcome of evaluating one product.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReview  Decision = "REVIEW"
	DecisionDecline Decision = "DECLINE"
)

// Explanation text placeholders. Results are published after scoring but
// before the generator has run; ExplanationPending marks that window.
// A failed generator call leaves ExplanationFallback, never the sentinel.
const (
	ExplanationPending  = "pending"
	ExplanationFallback = "An explanation could not be generated for this product. " +
		"Please review the listed reasons and score with your advisor."
)

// EvaluationResult is the outcome of scoring one (profile, product) pair
// within a single run. The scoring engine fills everything except the
// explanation texts, which the generator step replaces exactly once.
type EvaluationResult struct {
	ProductID string   `json:"product_id"`
	Eligible  bool     `json:"eligible"`
	Decision  Decision `json:"decision"`
	Score     float64  `json:"score"`
	Reasons   []string `json:"reasons"`
	Summary   string   `json:"summary"`

	CustomerExplanation string `json:"customer_explanation"`
	AdvisorExplanation  string `json:"advisor_explanation"`
}

// Explanation is the generator's output for one product.
type Explanation struct {
	CustomerText string `json:"customer_text"`
	AdvisorText  string `json:"advisor_text"`
}
