package service_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mhaikal/finfit-advisor-go/internal/catalog"
	"github.com/mhaikal/finfit-advisor-go/internal/domain"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/observability"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/resilience"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/state"
	"github.com/mhaikal/finfit-advisor-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockValidator struct {
	findings []domain.ValidationFinding
	err      error
	calls    int32
}

func (m *mockValidator) Validate(_ context.Context, _ []domain.Document, _ domain.CustomerKind, _ string) ([]domain.ValidationFinding, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.findings, m.err
}

type mockExtractor struct {
	profile *domain.CustomerProfile
	err     error
	calls   int32
	gate    chan struct{} // when non-nil, Extract blocks until closed or ctx done
}

func (m *mockExtractor) Extract(ctx context.Context, _ []domain.Document, _ *domain.ManualFields) (*domain.CustomerProfile, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.profile == nil {
		return &domain.CustomerProfile{}, nil
	}
	profile := *m.profile
	return &profile, nil
}

type mockExplainer struct {
	failFor string // product ID whose explanation call fails
	gate    chan struct{}
	calls   int32
}

func (m *mockExplainer) Explain(ctx context.Context, _ *domain.CustomerProfile, product *domain.Product, _ *domain.EvaluationResult) (*domain.Explanation, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if product.ID == m.failFor {
		return nil, errors.New("explanation model unavailable")
	}
	return &domain.Explanation{
		CustomerText: "customer text for " + product.ID,
		AdvisorText:  "advisor text for " + product.ID,
	}, nil
}

func newAnalyzer(v *mockValidator, e *mockExtractor, x *mockExplainer, store *state.Memory) *service.Analyzer {
	if store == nil {
		store = state.NewMemory()
	}
	return service.NewAnalyzer(
		v, e, x,
		catalog.New(),
		store,
		resilience.NewBulkhead(4),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func individualFields() domain.ManualFields {
	return domain.ManualFields{
		Kind: domain.KindIndividual,
		Name: "Sara Rahman",
	}
}

func waitFor(t *testing.T, a *service.Analyzer, what string, cond func(*domain.SessionSnapshot) bool) *domain.SessionSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := a.Snapshot()
		if cond(s) {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
	return nil
}

func terminal(s *domain.SessionSnapshot) bool {
	return s.Run.Status == domain.StatusSuccess || s.Run.Status == domain.StatusFailed
}

// --- Tests ---

func TestPipeline_HappyPath(t *testing.T) {
	extractor := &mockExtractor{profile: &domain.CustomerProfile{
		Name:              "S RAHMAN",
		MonthlyIncome:     domain.Float64Ptr(9000),
		DebtToIncomeRatio: domain.Float64Ptr(0.2),
	}}
	a := newAnalyzer(&mockValidator{}, extractor, &mockExplainer{}, nil)

	if err := a.SetManualFields(individualFields()); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	if err := a.AddDocument(domain.Document{Name: "payslip.pdf", Slot: domain.SlotPayslip}); err != nil {
		t.Fatalf("add document: %v", err)
	}

	runID, err := a.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	s := waitFor(t, a, "terminal state", terminal)

	if s.Run.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", s.Run.Status, s.Run.LastError)
	}
	if s.Run.RunID != runID {
		t.Errorf("expected run id %s, got %s", runID, s.Run.RunID)
	}
	if s.Run.Progress != 100 {
		t.Errorf("expected progress 100, got %d", s.Run.Progress)
	}

	wanted := len(catalog.New().ProductsFor(domain.KindIndividual))
	if len(s.Results) != wanted {
		t.Fatalf("expected %d results, got %d", wanted, len(s.Results))
	}
	for _, r := range s.Results {
		if r.CustomerExplanation == domain.ExplanationPending || r.AdvisorExplanation == domain.ExplanationPending {
			t.Errorf("product %s still has pending explanation", r.ProductID)
		}
	}

	// Declared identity wins over the extractor's detected name.
	if s.Profile == nil || s.Profile.Name != "Sara Rahman" {
		t.Errorf("expected manual name to win, got %+v", s.Profile)
	}
}

func TestPipeline_NoDocumentsSkipsValidation(t *testing.T) {
	validator := &mockValidator{}
	a := newAnalyzer(validator, &mockExtractor{}, &mockExplainer{}, nil)

	if err := a.SetManualFields(individualFields()); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	if _, err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	s := waitFor(t, a, "terminal state", terminal)
	if s.Run.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s", s.Run.Status)
	}
	if atomic.LoadInt32(&validator.calls) != 0 {
		t.Error("expected validator to be skipped with no documents")
	}
}

func TestPipeline_ValidationRejectionStopsBeforeExtraction(t *testing.T) {
	validator := &mockValidator{findings: []domain.ValidationFinding{
		{Slot: domain.SlotPayslip, NameMatches: true, TypeMatches: true},
		{
			Slot:        domain.SlotBankStatement,
			NameMatches: false,
			TypeMatches: true,
			Issues:      []string{"Name on statement does not match declared name"},
		},
	}}
	extractor := &mockExtractor{}
	a := newAnalyzer(validator, extractor, &mockExplainer{}, nil)

	a.SetManualFields(individualFields())
	a.AddDocument(domain.Document{Name: "statement.pdf", Slot: domain.SlotBankStatement})
	a.Start(context.Background())

	s := waitFor(t, a, "terminal state", terminal)

	if s.Run.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", s.Run.Status)
	}
	if !strings.Contains(s.Run.LastError, "Name on statement does not match declared name") {
		t.Errorf("expected the collaborator issue text verbatim, got %q", s.Run.LastError)
	}
	if atomic.LoadInt32(&extractor.calls) != 0 {
		t.Error("extraction must never run on unvalidated documents")
	}
	if s.Profile != nil {
		t.Error("no profile may be committed after a validation rejection")
	}
	if s.Run.Progress >= 30 {
		t.Errorf("progress should not reach the extract band, got %d", s.Run.Progress)
	}
}

func TestPipeline_ValidationFallbackMessage(t *testing.T) {
	// No collaborator-supplied issue text: the templated message names
	// the slot and both document types.
	validator := &mockValidator{findings: []domain.ValidationFinding{
		{
			Slot:            domain.SlotPayslip,
			ExpectedDocType: "payslip",
			DetectedDocType: "bank_statement",
			NameMatches:     true,
			TypeMatches:     false,
		},
	}}
	a := newAnalyzer(validator, &mockExtractor{}, &mockExplainer{}, nil)

	a.SetManualFields(individualFields())
	a.AddDocument(domain.Document{Name: "upload.pdf", Slot: domain.SlotPayslip})
	a.Start(context.Background())

	s := waitFor(t, a, "terminal state", terminal)
	if !strings.Contains(s.Run.LastError, "Slot PAYSLIP: expected payslip, detected bank_statement") {
		t.Errorf("expected templated fallback message, got %q", s.Run.LastError)
	}
}

func TestPipeline_ExtractorFaultIsClassified(t *testing.T) {
	extractor := &mockExtractor{err: &domain.ErrExternalService{
		Service: "extractor",
		Err:     errors.New("doc-ai /v1/documents/extract returned status 401: bad api key"),
	}}
	a := newAnalyzer(&mockValidator{}, extractor, &mockExplainer{}, nil)

	a.SetManualFields(individualFields())
	a.Start(context.Background())

	s := waitFor(t, a, "terminal state", terminal)
	if s.Run.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", s.Run.Status)
	}
	if !strings.Contains(s.Run.LastError, "credentials") {
		t.Errorf("expected friendly credential message, got %q", s.Run.LastError)
	}
	if strings.Contains(s.Run.LastError, "401") {
		t.Errorf("raw error text must not leak to the user: %q", s.Run.LastError)
	}
}

func TestPipeline_ExplanationFailureIsIsolated(t *testing.T) {
	explainer := &mockExplainer{failFor: "flexi-personal-loan"}
	a := newAnalyzer(&mockValidator{}, &mockExtractor{}, explainer, nil)

	a.SetManualFields(individualFields())
	a.Start(context.Background())

	s := waitFor(t, a, "terminal state", terminal)

	if s.Run.Status != domain.StatusSuccess {
		t.Fatalf("one failed explanation must not fail the run, got %s", s.Run.Status)
	}

	fallbacks, generated := 0, 0
	for _, r := range s.Results {
		switch {
		case r.ProductID == "flexi-personal-loan":
			if r.CustomerExplanation != domain.ExplanationFallback {
				t.Errorf("expected fallback text for the failed product, got %q", r.CustomerExplanation)
			}
			fallbacks++
		case r.CustomerExplanation == domain.ExplanationFallback:
			fallbacks++
		default:
			generated++
		}
	}
	if fallbacks != 1 {
		t.Errorf("expected exactly 1 fallback, got %d", fallbacks)
	}
	if generated != len(s.Results)-1 {
		t.Errorf("expected %d generated explanations, got %d", len(s.Results)-1, generated)
	}
}

func TestPipeline_ResultsPublishedBeforeExplanations(t *testing.T) {
	gate := make(chan struct{})
	explainer := &mockExplainer{gate: gate}
	a := newAnalyzer(&mockValidator{}, &mockExtractor{}, explainer, nil)

	a.SetManualFields(individualFields())
	a.Start(context.Background())

	// Stage 3 publishes decisions while stage 4 is still blocked.
	s := waitFor(t, a, "early results", func(s *domain.SessionSnapshot) bool {
		return len(s.Results) > 0
	})
	if s.Run.Status != domain.StatusRunning {
		t.Fatalf("expected run still in flight, got %s", s.Run.Status)
	}
	for _, r := range s.Results {
		if r.Decision == "" {
			t.Errorf("expected a decision for %s before explanations", r.ProductID)
		}
		if r.CustomerExplanation != domain.ExplanationPending {
			t.Errorf("expected pending explanation for %s, got %q", r.ProductID, r.CustomerExplanation)
		}
	}

	close(gate)
	s = waitFor(t, a, "terminal state", terminal)
	if s.Run.Status != domain.StatusSuccess {
		t.Fatalf("expected success after gate release, got %s", s.Run.Status)
	}
}

func TestPipeline_CancelReturnsToIdleWithoutCommits(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	extractor := &mockExtractor{gate: gate, profile: &domain.CustomerProfile{
		MonthlyIncome: domain.Float64Ptr(12000),
	}}
	a := newAnalyzer(&mockValidator{}, extractor, &mockExplainer{}, nil)

	a.SetManualFields(individualFields())
	a.Start(context.Background())

	waitFor(t, a, "extractor call", func(*domain.SessionSnapshot) bool {
		return atomic.LoadInt32(&extractor.calls) == 1
	})
	a.Cancel()

	s := a.Snapshot()
	if s.Run.Status != domain.StatusIdle {
		t.Fatalf("cancelled run must return to idle, got %s", s.Run.Status)
	}
	if s.Run.LastError != "" {
		t.Errorf("cancellation is not an error, got %q", s.Run.LastError)
	}

	// Give any stale goroutine a moment, then confirm nothing leaked in.
	time.Sleep(20 * time.Millisecond)
	s = a.Snapshot()
	if s.Profile != nil || len(s.Results) != 0 {
		t.Error("stale run committed state after cancellation")
	}
	if s.Run.Status != domain.StatusIdle {
		t.Errorf("stale run altered status after cancellation: %s", s.Run.Status)
	}
}

func TestPipeline_NewRunSupersedesInFlightRun(t *testing.T) {
	gate := make(chan struct{})
	extractor := &mockExtractor{gate: gate, profile: &domain.CustomerProfile{
		Name: "FIRST RUN",
	}}
	a := newAnalyzer(&mockValidator{}, extractor, &mockExplainer{}, nil)

	a.SetManualFields(individualFields())
	if _, err := a.Start(context.Background()); err != nil {
		t.Fatalf("start A: %v", err)
	}
	waitFor(t, a, "first extractor call", func(*domain.SessionSnapshot) bool {
		return atomic.LoadInt32(&extractor.calls) >= 1
	})

	runB, err := a.Start(context.Background())
	if err != nil {
		t.Fatalf("start B: %v", err)
	}
	close(gate) // release both extractor calls

	s := waitFor(t, a, "terminal state", terminal)
	if s.Run.RunID != runB {
		t.Fatalf("terminal state must belong to run B, got %s", s.Run.RunID)
	}
	if s.Run.Status != domain.StatusSuccess {
		t.Fatalf("expected run B to succeed, got %s (%s)", s.Run.Status, s.Run.LastError)
	}
}

func TestPipeline_ProgressIsMonotonic(t *testing.T) {
	a := newAnalyzer(&mockValidator{}, &mockExtractor{}, &mockExplainer{}, nil)
	a.SetManualFields(individualFields())
	a.AddDocument(domain.Document{Name: "payslip.pdf", Slot: domain.SlotPayslip})
	a.Start(context.Background())

	last := -1
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := a.Snapshot()
		if s.Run.Progress < last {
			t.Fatalf("progress went backwards: %d -> %d", last, s.Run.Progress)
		}
		last = s.Run.Progress
		if terminal(s) {
			if s.Run.Status == domain.StatusSuccess && s.Run.Progress != 100 {
				t.Fatalf("success must end at 100, got %d", s.Run.Progress)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("run did not finish")
}

func TestPipeline_StartWithoutKindFails(t *testing.T) {
	a := newAnalyzer(&mockValidator{}, &mockExtractor{}, &mockExplainer{}, nil)

	_, err := a.Start(context.Background())
	var invalid *domain.ErrInvalidInput
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPipeline_KindImmutableWhileRunning(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	a := newAnalyzer(&mockValidator{}, &mockExtractor{gate: gate}, &mockExplainer{}, nil)

	a.SetManualFields(individualFields())
	a.Start(context.Background())

	err := a.SetManualFields(domain.ManualFields{Kind: domain.KindSME})
	var active *domain.ErrRunActive
	if !errors.As(err, &active) {
		t.Fatalf("expected ErrRunActive when changing kind mid-run, got %v", err)
	}
	a.Cancel()
}

func TestSession_RemoveDocumentMatchesNameAndSlot(t *testing.T) {
	a := newAnalyzer(&mockValidator{}, &mockExtractor{}, &mockExplainer{}, nil)

	a.AddDocument(domain.Document{Name: "doc.pdf", Slot: domain.SlotPayslip})
	a.AddDocument(domain.Document{Name: "doc.pdf", Slot: domain.SlotBankStatement})

	if err := a.RemoveDocument("doc.pdf", domain.SlotPayslip); err != nil {
		t.Fatalf("remove: %v", err)
	}

	s := a.Snapshot()
	if len(s.Documents) != 1 || s.Documents[0].Slot != domain.SlotBankStatement {
		t.Errorf("expected only the bank statement to remain, got %+v", s.Documents)
	}

	if err := a.RemoveDocument("doc.pdf", domain.SlotPayslip); err == nil {
		t.Error("expected error removing a document twice")
	}
}

func TestSession_HydratesFromSnapshotAndResetsRunningState(t *testing.T) {
	store := state.NewMemory()
	store.Save(&domain.SessionSnapshot{
		Documents: []domain.Document{{Name: "doc.pdf", Slot: domain.SlotPayslip}},
		Results: []domain.EvaluationResult{
			{ProductID: "savings-builder", Decision: domain.DecisionApprove},
		},
		Run: domain.RunState{
			RunID:    "stale-run",
			Status:   domain.StatusRunning,
			Stage:    domain.StageExplain,
			Progress: 80,
		},
	})

	a := newAnalyzer(&mockValidator{}, &mockExtractor{}, &mockExplainer{}, store)

	s := a.Snapshot()
	if len(s.Documents) != 1 || len(s.Results) != 1 {
		t.Errorf("expected inputs and results restored, got %d docs %d results", len(s.Documents), len(s.Results))
	}
	if s.Run.Status != domain.StatusIdle {
		t.Errorf("a snapshot taken mid-run must hydrate to idle, got %s", s.Run.Status)
	}
}
