package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var invalidInput *domain.ErrInvalidInput
	var runActive *domain.ErrRunActive
	var external *domain.ErrExternalService
	var rejected *domain.ErrValidationRejected

	switch {
	case errors.As(err, &invalidInput):
		logger.Debug("invalid input", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &runActive):
		logger.Debug("run active", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &rejected):
		logger.Debug("validation rejected", zap.String("error", err.Error()))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.Error(err))
		_, friendly := domain.ClassifyError(err)
		writeError(w, http.StatusBadGateway, friendly)
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
