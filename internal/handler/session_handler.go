package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mhaikal/finfit-advisor-go/internal/domain"
	"github.com/mhaikal/finfit-advisor-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Session inputs — documents and manual fields
// ============================================================

type addDocumentRequest struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Content  []byte `json:"content"` // base64 over the wire
	Slot     string `json:"slot"`
}

func addDocumentHandler(svc *service.Analyzer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/session/documents")
		defer span.End()

		var req addDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := svc.AddDocument(domain.Document{
			Name:     req.Name,
			MIMEType: req.MIMEType,
			Content:  req.Content,
			Slot:     req.Slot,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, svc.Snapshot())
	}
}

type removeDocumentRequest struct {
	Name string `json:"name"`
	Slot string `json:"slot"`
}

func removeDocumentHandler(svc *service.Analyzer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "DELETE /v1/session/documents")
		defer span.End()

		var req removeDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.RemoveDocument(req.Name, req.Slot); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, svc.Snapshot())
	}
}

func setFieldsHandler(svc *service.Analyzer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "PUT /v1/session/fields")
		defer span.End()

		var fields domain.ManualFields
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.SetManualFields(fields); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, svc.Snapshot())
	}
}

func getSessionHandler(svc *service.Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Snapshot())
	}
}

func clearSessionHandler(svc *service.Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.Clear()
		writeJSON(w, http.StatusOK, svc.Snapshot())
	}
}
