package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"
	"github.com/mhaikal/finfit-advisor-go/internal/scoring"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stage boundaries of the progress contract. Progress is monotonically
// non-decreasing within a run and reaches 100 only on success.
const (
	progressValidated = 30
	progressExtracted = 60
	progressScored    = 70
)

// Start mints a new run and launches the pipeline in the background.
// Any in-flight run is superseded: its writes will fail the generation
// check and be discarded.
func (a *Analyzer) Start(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fields == nil || !a.fields.Kind.Valid() {
		return "", &domain.ErrInvalidInput{Field: "kind", Message: "set the customer kind before starting an analysis"}
	}

	a.invalidateLocked("superseded")

	runID := uuid.New().String()
	a.generation++
	generation := a.generation

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancelRun = cancel

	a.run = domain.RunState{
		RunID:        runID,
		Stage:        domain.StageValidate,
		Status:       domain.StatusRunning,
		Progress:     0,
		LastActivity: time.Now(),
	}
	a.results = nil
	a.profile = nil

	docs := append([]domain.Document(nil), a.documents...)
	fields := *a.fields
	a.saveLocked()

	a.logger.Info("analysis run started",
		zap.String("run_id", runID),
		zap.String("kind", string(fields.Kind)),
		zap.Int("documents", len(docs)),
	)

	go a.execute(runCtx, generation, runID, docs, &fields)
	return runID, nil
}

// Cancel invalidates the current run, if any. Cancellation is silent:
// the session returns to idle, never to failed.
func (a *Analyzer) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.invalidateLocked("cancelled") {
		return
	}
	a.run = domain.RunState{Status: domain.StatusIdle, LastActivity: time.Now()}
	a.saveLocked()
}

// invalidateLocked cancels the in-flight run's context and bumps the
// generation so stale writes are discarded. Returns true if a running
// run was actually invalidated.
func (a *Analyzer) invalidateLocked(reason string) bool {
	if a.cancelRun != nil {
		a.cancelRun()
		a.cancelRun = nil
	}
	if a.run.Status != domain.StatusRunning {
		return false
	}
	a.generation++
	a.metrics.IncrRun("cancelled")
	a.logger.Info("analysis run invalidated",
		zap.String("run_id", a.run.RunID),
		zap.String("reason", reason),
	)
	return true
}

// commit applies fn to session state only while generation is still
// current, then write-through saves. A stale run's commit is a no-op.
func (a *Analyzer) commit(generation uint64, fn func()) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if generation != a.generation {
		return false
	}
	fn()
	a.touchLocked()
	a.saveLocked()
	return true
}

// execute runs the four pipeline stages for one run. It only ever
// touches session state through commit, so a superseded or cancelled
// run can never corrupt the state of its successor.
func (a *Analyzer) execute(ctx context.Context, generation uint64, runID string, docs []domain.Document, fields *domain.ManualFields) {
	ctx, span := tracer.Start(ctx, "Analyzer.execute")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", runID))

	// --- Stage 1: validate documents (0 -> 30) ---
	if err := a.validateStage(ctx, generation, docs, fields); err != nil {
		a.fail(generation, runID, err)
		return
	}
	if !a.commit(generation, func() {
		a.run.Stage = domain.StageExtract
		a.run.Progress = progressValidated
	}) {
		return
	}

	// --- Stage 2: extract profile (30 -> 60) ---
	profile, err := a.extractStage(ctx, docs, fields)
	if err != nil {
		a.fail(generation, runID, err)
		return
	}
	if !a.commit(generation, func() {
		a.profile = profile
		a.run.Stage = domain.StageScore
		a.run.Progress = progressExtracted
	}) {
		return
	}

	// --- Stage 3: score products (60 -> 70) ---
	// Pure computation; published immediately so decisions are visible
	// before any explanation exists.
	products, results := a.scoreStage(profile)
	if !a.commit(generation, func() {
		a.results = results
		a.run.Stage = domain.StageExplain
		a.run.Progress = progressScored
	}) {
		return
	}

	// --- Stage 4: generate explanations (70 -> 100) ---
	a.explainStage(ctx, generation, profile, products, results)

	if !a.commit(generation, func() {
		a.run.Stage = domain.StageNone
		a.run.Status = domain.StatusSuccess
		a.run.Progress = 100
	}) {
		return
	}
	a.metrics.IncrRun("success")
	a.logger.Info("analysis run completed", zap.String("run_id", runID), zap.Int("products", len(results)))
}

// validateStage calls the validator and aggregates every issue found.
// With no documents uploaded there is nothing to validate and the run
// proceeds on manual fields alone.
func (a *Analyzer) validateStage(ctx context.Context, generation uint64, docs []domain.Document, fields *domain.ManualFields) error {
	if len(docs) == 0 {
		return nil
	}

	start := time.Now()
	findings, err := a.validator.Validate(ctx, docs, fields.Kind, fields.Name)
	a.metrics.RecordStageDuration(domain.StageValidate, time.Since(start))
	if err != nil {
		a.metrics.IncrExternalError("validator")
		return fmt.Errorf("validate documents: %w", err)
	}

	var issues []string
	for _, f := range findings {
		if f.NameMatches && f.TypeMatches {
			continue
		}
		if len(f.Issues) > 0 {
			issues = append(issues, f.Issues...)
			continue
		}
		issues = append(issues, fmt.Sprintf("Slot %s: expected %s, detected %s", f.Slot, f.ExpectedDocType, f.DetectedDocType))
	}
	if len(issues) > 0 {
		return &domain.ErrValidationRejected{Issues: issues}
	}
	return nil
}

// extractStage calls the extractor and merges the manual fields over
// the result. User-entered identity claims take precedence over
// inferred ones; everything else comes from the extractor.
func (a *Analyzer) extractStage(ctx context.Context, docs []domain.Document, fields *domain.ManualFields) (*domain.CustomerProfile, error) {
	start := time.Now()
	profile, err := a.extractor.Extract(ctx, docs, fields)
	a.metrics.RecordStageDuration(domain.StageExtract, time.Since(start))
	if err != nil {
		a.metrics.IncrExternalError("extractor")
		return nil, fmt.Errorf("extract profile: %w", err)
	}
	if profile == nil {
		profile = &domain.CustomerProfile{}
	}

	mergeManualFields(profile, fields)
	return profile, nil
}

// mergeManualFields overwrites declared-identity fields with the manual
// values whenever present, and fills numeric gaps the extractor left.
func mergeManualFields(profile *domain.CustomerProfile, fields *domain.ManualFields) {
	profile.Kind = fields.Kind
	if fields.Name != "" {
		profile.Name = fields.Name
	}
	if fields.Citizenship != "" {
		profile.Citizenship = fields.Citizenship
	}
	if fields.ResidenceCountry != "" {
		profile.ResidenceCountry = fields.ResidenceCountry
	}
	if fields.Goal != "" {
		profile.Goal = fields.Goal
	}
	if fields.RiskTolerance != "" {
		profile.RiskTolerance = fields.RiskTolerance
	}
	if fields.Notes != "" {
		profile.Notes = fields.Notes
	}

	if profile.Age == nil {
		profile.Age = fields.Age
	}
	if profile.MonthlyIncome == nil {
		profile.MonthlyIncome = fields.MonthlyIncome
	}
	if profile.MonthlyExpenses == nil {
		profile.MonthlyExpenses = fields.MonthlyExpenses
	}
	if profile.AvgMonthlyRevenue == nil {
		profile.AvgMonthlyRevenue = fields.AvgMonthlyRevenue
	}
	if profile.SavingsBalance == nil {
		profile.SavingsBalance = fields.SavingsBalance
	}
}

// scoreStage evaluates every catalog product for the profile's kind.
// Cannot fail: the scoring engine has no error path.
func (a *Analyzer) scoreStage(profile *domain.CustomerProfile) ([]domain.Product, []domain.EvaluationResult) {
	start := time.Now()
	products := a.catalog.ProductsFor(profile.Kind)
	results := make([]domain.EvaluationResult, len(products))
	for i := range products {
		results[i] = scoring.Evaluate(profile, &products[i])
	}
	a.metrics.RecordStageDuration(domain.StageScore, time.Since(start))
	return products, results
}

// explainStage fans out one explanation call per scored product and
// joins on all of them. A single failure degrades only its own slot to
// the fallback text; siblings and the run itself carry on.
func (a *Analyzer) explainStage(ctx context.Context, generation uint64, profile *domain.CustomerProfile, products []domain.Product, results []domain.EvaluationResult) {
	total := len(products)
	if total == 0 {
		return
	}

	start := time.Now()
	var done int

	g, gctx := errgroup.WithContext(ctx)
	for i := range products {
		i := i
		g.Go(func() error {
			if err := a.bulkhead.Acquire(gctx); err != nil {
				// Cancelled mid-fan-out: the final commit will be
				// discarded anyway, but fill the slot deterministically.
				a.commitExplanation(generation, i, nil, &done, total, start)
				return nil
			}
			defer a.bulkhead.Release()

			explanation, err := a.explainer.Explain(gctx, profile, &products[i], &results[i])
			if err != nil {
				a.metrics.IncrExternalError("explainer")
				a.metrics.IncrExplanation("fallback")
				a.logger.Warn("explanation generation failed, using fallback",
					zap.String("product_id", products[i].ID),
					zap.Error(err),
				)
				explanation = nil
			} else {
				a.metrics.IncrExplanation("generated")
			}
			a.commitExplanation(generation, i, explanation, &done, total, start)
			return nil
		})
	}
	// Closures never return errors; the join is what matters.
	_ = g.Wait()
	a.metrics.RecordStageDuration(domain.StageExplain, time.Since(start))
}

// commitExplanation writes one product's explanation slot and advances
// progress by an equal share of the remaining band, capped below 100
// until the whole stage has joined.
func (a *Analyzer) commitExplanation(generation uint64, index int, explanation *domain.Explanation, done *int, total int, start time.Time) {
	a.commit(generation, func() {
		if explanation != nil {
			a.results[index].CustomerExplanation = explanation.CustomerText
			a.results[index].AdvisorExplanation = explanation.AdvisorText
		} else {
			a.results[index].CustomerExplanation = domain.ExplanationFallback
			a.results[index].AdvisorExplanation = domain.ExplanationFallback
		}

		*done++
		progress := progressScored + (100-progressScored)*(*done)/total
		if progress > 99 {
			progress = 99
		}
		if progress > a.run.Progress {
			a.run.Progress = progress
		}
	})
}

// fail records a terminal failure for the run, unless the run has
// already been superseded or cancelled. Validation rejections are
// surfaced verbatim; everything else goes through the display
// classification.
func (a *Analyzer) fail(generation uint64, runID string, err error) {
	var rejected *domain.ErrValidationRejected
	message := ""
	if errors.As(err, &rejected) {
		message = rejected.Error()
	} else {
		_, message = domain.ClassifyError(err)
	}

	committed := a.commit(generation, func() {
		a.run.Stage = domain.StageNone
		a.run.Status = domain.StatusFailed
		a.run.LastError = message
	})
	if !committed {
		return
	}
	a.metrics.IncrRun("failed")
	a.logger.Error("analysis run failed",
		zap.String("run_id", runID),
		zap.Error(err),
	)
}
