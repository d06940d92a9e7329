package handler

import (
	"encoding/json"
	"net/http"

	"github.com/seqlabs/genoportal/internal/analysis"
	"github.com/seqlabs/genoportal/internal/api/middleware"
	"github.com/seqlabs/genoportal/internal/api/response"
)

// NewStartAnalysisHandler returns an http.HandlerFunc for POST /api/v1/analyses.
func NewStartAnalysisHandler(svc Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "NO_SESSION", "No active session", nil)
			return
		}

		var req struct {
			Tool            string `json:"tool"`
			HistoryID       string `json:"history_id"`
			DatasetR1       string `json:"datasetID_R1"`
			DatasetR2       string `json:"datasetID_R2"`
			ReferenceGenome string `json:"reference_genome"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		// Validation happens before any remote call; a rejected request
		// leaves no ledger entry.
		if req.Tool == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "tool is required", nil)
			return
		}
		if req.HistoryID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "history_id is required", nil)
			return
		}
		if req.DatasetR1 == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "datasetID_R1 is required", nil)
			return
		}

		outcome, err := svc.StartAnalysis(r.Context(), analysis.StartAnalysisParams{
			UserID:          sess.UserID,
			Tool:            req.Tool,
			HistoryID:       req.HistoryID,
			DatasetR1:       req.DatasetR1,
			DatasetR2:       req.DatasetR2,
			ReferenceGenome: req.ReferenceGenome,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		body := map[string]any{
			"mensaje":       outcome.Describe(req.Tool),
			"estado":        outcome.Status,
			"job_ids":       outcome.JobIDs,
			"resultado_ids": outcome.ResultIDs,
		}
		if len(outcome.Warnings) > 0 {
			body["advertencias"] = outcome.Warnings
		}
		response.JSON(w, body)
	}
}

// NewRecordAnalysisHandler returns an http.HandlerFunc for POST /api/v1/analyses/record.
func NewRecordAnalysisHandler(svc Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "NO_SESSION", "No active session", nil)
			return
		}

		var req struct {
			Herramienta string `json:"herramienta"`
			Archivo     string `json:"archivo"`
			Estado      string `json:"estado"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Herramienta == "" || req.Archivo == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "herramienta and archivo are required", nil)
			return
		}

		a, err := svc.RecordAnalysis(r.Context(), sess.UserID, req.Herramienta, req.Archivo, req.Estado)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response.Created(w, map[string]any{
			"mensaje": "Análisis guardado en historial",
			"id":      a.ID,
		})
	}
}

// NewHistoryHandler returns an http.HandlerFunc for GET /api/v1/analyses:
// every attempt, including resultless ones, newest first.
func NewHistoryHandler(svc Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "NO_SESSION", "No active session", nil)
			return
		}

		analyses, err := svc.History(r.Context(), sess.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, analyses)
	}
}

// NewHistoryWithResultsHandler returns an http.HandlerFunc for
// GET /api/v1/analyses/results: only analyses that produced results.
func NewHistoryWithResultsHandler(svc Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "NO_SESSION", "No active session", nil)
			return
		}

		analyses, err := svc.HistoryWithResults(r.Context(), sess.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, analyses)
	}
}
