package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mhaikal/finfit-advisor-go/internal/catalog"
	"github.com/mhaikal/finfit-advisor-go/internal/domain"
	"github.com/mhaikal/finfit-advisor-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Product catalog + product-from-text demo
// ============================================================

func listProductsHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := domain.CustomerKind(r.URL.Query().Get("kind"))
		if kind == "" {
			writeJSON(w, http.StatusOK, cat.Products())
			return
		}
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "kind must be INDIVIDUAL or SME")
			return
		}
		writeJSON(w, http.StatusOK, cat.ProductsFor(kind))
	}
}

type generateProductRequest struct {
	Description string `json:"description"`
}

func generateProductHandler(svc *service.Designer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/products/generate")
		defer span.End()

		var req generateProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		product, err := svc.GenerateProduct(ctx, req.Description)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, product)
	}
}
