package service

import (
	"sync"
	"time"

	"github.com/mhaikal/finfit-advisor-go/internal/catalog"
	"github.com/mhaikal/finfit-advisor-go/internal/domain"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/observability"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/resilience"
	"github.com/mhaikal/finfit-advisor-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/analyzer")

// Analyzer owns the one analysis session: the uploaded documents and
// manual fields, the extracted profile, the evaluation results, and the
// run state machine. All mutable state lives behind its mutex; the
// handlers and the snapshot store only ever see copies.
type Analyzer struct {
	validator port.DocumentValidator
	extractor port.ProfileExtractor
	explainer port.ExplanationGenerator
	catalog   *catalog.Catalog
	store     port.SnapshotStore
	bulkhead  *resilience.Bulkhead
	metrics   *observability.Metrics
	logger    *zap.Logger

	mu sync.Mutex
	// generation increments every time the current run changes; a stage
	// result is committed only while its generation is still current.
	generation uint64
	cancelRun  func()

	documents []domain.Document
	fields    *domain.ManualFields
	profile   *domain.CustomerProfile
	results   []domain.EvaluationResult
	run       domain.RunState
}

// NewAnalyzer creates the analyzer and hydrates the last session
// snapshot. A snapshot taken mid-run hydrates back to idle: a pipeline
// does not survive a process restart.
func NewAnalyzer(
	validator port.DocumentValidator,
	extractor port.ProfileExtractor,
	explainer port.ExplanationGenerator,
	cat *catalog.Catalog,
	store port.SnapshotStore,
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Analyzer {
	a := &Analyzer{
		validator: validator,
		extractor: extractor,
		explainer: explainer,
		catalog:   cat,
		store:     store,
		bulkhead:  bulkhead,
		metrics:   metrics,
		logger:    logger,
		run:       domain.RunState{Status: domain.StatusIdle},
	}
	a.hydrate()
	return a
}

func (a *Analyzer) hydrate() {
	snapshot, err := a.store.Load()
	if err != nil {
		a.logger.Warn("session hydration failed, starting fresh", zap.Error(err))
		return
	}
	if snapshot == nil {
		return
	}

	a.documents = snapshot.Documents
	a.fields = snapshot.ManualFields
	a.profile = snapshot.Profile
	a.results = snapshot.Results
	a.run = snapshot.Run
	if a.run.Status == domain.StatusRunning {
		a.run = domain.RunState{Status: domain.StatusIdle, LastActivity: snapshot.Run.LastActivity}
	}
	a.logger.Info("session hydrated",
		zap.Int("documents", len(a.documents)),
		zap.Int("results", len(a.results)),
		zap.String("run_status", string(a.run.Status)),
	)
}

// saveLocked writes the snapshot through to the store. Best effort: a
// failed write is logged and counted, never surfaced.
func (a *Analyzer) saveLocked() {
	snapshot := a.snapshotLocked()
	if err := a.store.Save(snapshot); err != nil {
		a.metrics.IncrSnapshotWriteFailure()
		a.logger.Warn("session snapshot write dropped", zap.Error(err))
	}
}

func (a *Analyzer) snapshotLocked() *domain.SessionSnapshot {
	snapshot := &domain.SessionSnapshot{
		Documents: append([]domain.Document(nil), a.documents...),
		Results:   append([]domain.EvaluationResult(nil), a.results...),
		Run:       a.run,
	}
	if a.fields != nil {
		fields := *a.fields
		snapshot.ManualFields = &fields
	}
	if a.profile != nil {
		profile := *a.profile
		snapshot.Profile = &profile
	}
	return snapshot
}

// Snapshot returns a copy of the full session state.
func (a *Analyzer) Snapshot() *domain.SessionSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// AddDocument appends one uploaded document to the session.
func (a *Analyzer) AddDocument(doc domain.Document) error {
	if doc.Name == "" {
		return &domain.ErrInvalidInput{Field: "name", Message: "document name is required"}
	}
	if doc.Slot == "" {
		return &domain.ErrInvalidInput{Field: "slot", Message: "upload slot is required"}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.documents = append(a.documents, doc)
	a.touchLocked()
	a.saveLocked()
	return nil
}

// RemoveDocument removes the first document matching (name, slot).
func (a *Analyzer) RemoveDocument(name, slot string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, d := range a.documents {
		if d.Name == name && d.Slot == slot {
			a.documents = append(a.documents[:i], a.documents[i+1:]...)
			a.touchLocked()
			a.saveLocked()
			return nil
		}
	}
	return &domain.ErrInvalidInput{Field: "document", Message: "no document matches the given name and slot"}
}

// SetManualFields replaces the manually entered fields. The customer
// kind is immutable while a run is in flight.
func (a *Analyzer) SetManualFields(fields domain.ManualFields) error {
	if !fields.Kind.Valid() {
		return &domain.ErrInvalidInput{Field: "kind", Message: "customer kind must be INDIVIDUAL or SME"}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.run.Status == domain.StatusRunning && a.fields != nil && a.fields.Kind != fields.Kind {
		return &domain.ErrRunActive{Operation: "change customer kind"}
	}
	a.fields = &fields
	a.touchLocked()
	a.saveLocked()
	return nil
}

// Clear wipes the session back to its initial state. An in-flight run
// is cancelled first.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invalidateLocked("cancelled")
	a.documents = nil
	a.fields = nil
	a.profile = nil
	a.results = nil
	a.run = domain.RunState{Status: domain.StatusIdle, LastActivity: time.Now()}
	a.saveLocked()
}

func (a *Analyzer) touchLocked() {
	a.run.LastActivity = time.Now()
}
