package handler

import (
	"net/http"

	"github.com/mhaikal/finfit-advisor-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Analysis pipeline — start / cancel / observe
// ============================================================

type startAnalysisResponse struct {
	RunID string `json:"run_id"`
}

func startAnalysisHandler(svc *service.Analyzer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analysis/start")
		defer span.End()

		runID, err := svc.Start(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusAccepted, startAnalysisResponse{RunID: runID})
	}
}

func cancelAnalysisHandler(svc *service.Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/analysis/cancel")
		defer span.End()

		svc.Cancel()
		writeJSON(w, http.StatusOK, svc.Snapshot())
	}
}

// getAnalysisStateHandler returns the run state and whatever results
// exist so far. Stage-3 decisions are visible here before stage 4 has
// filled in explanations.
func getAnalysisStateHandler(svc *service.Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Snapshot())
	}
}
