package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mhaikal/finfit-advisor-go/internal/catalog"
	"github.com/mhaikal/finfit-advisor-go/internal/domain"
	"github.com/mhaikal/finfit-advisor-go/internal/handler"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/cache"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/observability"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/resilience"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/state"
	"github.com/mhaikal/finfit-advisor-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type stubValidator struct{}

func (stubValidator) Validate(context.Context, []domain.Document, domain.CustomerKind, string) ([]domain.ValidationFinding, error) {
	return nil, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, []domain.Document, *domain.ManualFields) (*domain.CustomerProfile, error) {
	return &domain.CustomerProfile{}, nil
}

type stubExplainer struct{}

func (stubExplainer) Explain(_ context.Context, _ *domain.CustomerProfile, product *domain.Product, _ *domain.EvaluationResult) (*domain.Explanation, error) {
	return &domain.Explanation{CustomerText: "c:" + product.ID, AdvisorText: "a:" + product.ID}, nil
}

type stubGenerator struct {
	product *domain.Product
	err     error
}

func (s stubGenerator) Generate(context.Context, string) (*domain.Product, error) {
	return s.product, s.err
}

func newTestRouter(t *testing.T, gen stubGenerator) http.Handler {
	t.Helper()
	cat := catalog.New()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	analyzer := service.NewAnalyzer(
		stubValidator{}, stubExtractor{}, stubExplainer{},
		cat,
		state.NewMemory(),
		resilience.NewBulkhead(4),
		metrics,
		logger,
	)
	designer := service.NewDesigner(gen, cache.New[*domain.Product](time.Minute), metrics, logger)

	return handler.NewRouter(analyzer, designer, cat, metrics, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, stubGenerator{})

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, stubGenerator{})

	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestListProducts_FiltersByKind(t *testing.T) {
	router := newTestRouter(t, stubGenerator{})

	rec := doJSON(t, router, http.MethodGet, "/v1/products?kind=SME", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var products []domain.Product
	if err := json.NewDecoder(rec.Body).Decode(&products); err != nil {
		t.Fatal(err)
	}
	for _, p := range products {
		if p.Target != domain.TargetSME && p.Target != domain.TargetBoth {
			t.Errorf("product %s should not be offered to SME", p.ID)
		}
	}
}

func TestListProducts_RejectsUnknownKind(t *testing.T) {
	router := newTestRouter(t, stubGenerator{})

	rec := doJSON(t, router, http.MethodGet, "/v1/products?kind=LLC", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSessionFlow_FieldsDocumentsAnalysis(t *testing.T) {
	router := newTestRouter(t, stubGenerator{})

	rec := doJSON(t, router, http.MethodPut, "/v1/session/fields", domain.ManualFields{
		Kind: domain.KindIndividual,
		Name: "Sara Rahman",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set fields: expected 200, got %d (%s)", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/session/documents", map[string]any{
		"name":      "payslip.pdf",
		"mime_type": "application/pdf",
		"slot":      domain.SlotPayslip,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add document: expected 201, got %d (%s)", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/analysis/start", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start: expected 202, got %d (%s)", rec.Code, rec.Body)
	}
	var started struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&started); err != nil {
		t.Fatal(err)
	}
	if started.RunID == "" {
		t.Fatal("expected a run id")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = doJSON(t, router, http.MethodGet, "/v1/analysis/state", nil)
		var snapshot domain.SessionSnapshot
		if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
			t.Fatal(err)
		}
		if snapshot.Run.Status == domain.StatusSuccess {
			if len(snapshot.Results) == 0 {
				t.Fatal("expected evaluation results")
			}
			break
		}
		if snapshot.Run.Status == domain.StatusFailed {
			t.Fatalf("run failed: %s", snapshot.Run.LastError)
		}
		if time.Now().After(deadline) {
			t.Fatal("run did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartAnalysis_WithoutFieldsIsBadRequest(t *testing.T) {
	router := newTestRouter(t, stubGenerator{})

	rec := doJSON(t, router, http.MethodPost, "/v1/analysis/start", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without customer kind, got %d", rec.Code)
	}
}

func TestAddDocument_MissingSlotIsBadRequest(t *testing.T) {
	router := newTestRouter(t, stubGenerator{})

	rec := doJSON(t, router, http.MethodPost, "/v1/session/documents", map[string]any{
		"name": "orphan.pdf",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateProduct_Success(t *testing.T) {
	router := newTestRouter(t, stubGenerator{product: &domain.Product{
		ID:   "draft-travel-card",
		Name: "Travel Rewards Card",
	}})

	rec := doJSON(t, router, http.MethodPost, "/v1/products/generate", map[string]string{
		"description": "a travel card for frequent flyers",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body)
	}

	var product domain.Product
	if err := json.NewDecoder(rec.Body).Decode(&product); err != nil {
		t.Fatal(err)
	}
	if product.ID != "draft-travel-card" {
		t.Errorf("unexpected product %+v", product)
	}
}

func TestGenerateProduct_UpstreamFaultIsFriendly(t *testing.T) {
	router := newTestRouter(t, stubGenerator{err: &domain.ErrExternalService{
		Service: "product-generator",
		Err:     errors.New("doc-ai returned status 503"),
	}})

	rec := doJSON(t, router, http.MethodPost, "/v1/products/generate", map[string]string{
		"description": "anything",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" || bytes.Contains([]byte(resp.Error), []byte("503")) {
		t.Errorf("expected a friendly message without raw status, got %q", resp.Error)
	}
}

func TestPipelineMetricsSnapshot(t *testing.T) {
	router := newTestRouter(t, stubGenerator{})

	rec := doJSON(t, router, http.MethodGet, "/v1/metrics/pipeline", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot domain.PipelineMetrics
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatal(err)
	}
}
