package handler

import (
	"net/http"

	"github.com/mhaikal/finfit-advisor-go/internal/catalog"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/observability"
	"github.com/mhaikal/finfit-advisor-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.Analyzer, designer *service.Designer, cat *catalog.Catalog, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Session inputs
		r.Route("/session", func(r chi.Router) {
			r.Get("/", getSessionHandler(svc))
			r.Delete("/", clearSessionHandler(svc))
			r.Post("/documents", addDocumentHandler(svc, logger))
			r.Delete("/documents", removeDocumentHandler(svc, logger))
			r.Put("/fields", setFieldsHandler(svc, logger))
		})

		// Analysis pipeline
		r.Route("/analysis", func(r chi.Router) {
			r.Post("/start", startAnalysisHandler(svc, logger))
			r.Post("/cancel", cancelAnalysisHandler(svc))
			r.Get("/state", getAnalysisStateHandler(svc))
		})

		// Product catalog + generation demo
		r.Get("/products", listProductsHandler(cat))
		r.Post("/products/generate", generateProductHandler(designer, logger))

		// Metrics snapshot for the advisor dashboard
		r.Get("/metrics/pipeline", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, metrics.GetPipelineSnapshot())
		})
	})

	return r
}
