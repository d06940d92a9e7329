package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/seqlabs/genoportal/internal/api/response"
)

// NewViewResultHandler returns an http.HandlerFunc for
// GET /api/v1/results/{resultID}/view. The remote dataset content is served
// as-is; for FastQC that is the HTML report.
func NewViewResultHandler(svc Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resultID, err := uuid.Parse(chi.URLParam(r, "resultID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "result id must be a UUID", nil)
			return
		}

		body, err := svc.ViewResult(r.Context(), resultID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.HTML(w, body)
	}
}
