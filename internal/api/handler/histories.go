package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/seqlabs/genoportal/internal/api/middleware"
	"github.com/seqlabs/genoportal/internal/api/response"
	"github.com/seqlabs/genoportal/internal/session"
)

// NewListHistoriesHandler returns an http.HandlerFunc for GET /api/v1/histories.
func NewListHistoriesHandler(svc Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		histories, err := svc.ListHistories(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.JSON(w, histories)
	}
}

// NewCreateHistoryHandler returns an http.HandlerFunc for POST /api/v1/histories.
// The new history becomes the session's active one.
func NewCreateHistoryHandler(svc Coordinator, sessions session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Nombre string `json:"nombre"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Nombre == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Debe ingresar un nombre para la historia", nil)
			return
		}

		history, err := svc.CreateHistory(r.Context(), req.Nombre)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		if sess, ok := middleware.GetSession(r); ok {
			sess.HistoryID = history.ID
			if err := sessions.Save(r.Context(), sess); err != nil {
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update session", nil)
				return
			}
		}

		response.Created(w, history)
	}
}

// NewListDatasetsHandler returns an http.HandlerFunc for
// GET /api/v1/histories/{historyID}/datasets. Only available datasets are
// returned; ?fastq=true narrows to FASTQ inputs.
func NewListDatasetsHandler(svc Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		historyID := chi.URLParam(r, "historyID")
		if historyID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "history id is required", nil)
			return
		}
		fastqOnly := r.URL.Query().Get("fastq") == "true"

		datasets, err := svc.ListDatasets(r.Context(), historyID, fastqOnly)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]map[string]string, 0, len(datasets))
		for _, d := range datasets {
			out = append(out, map[string]string{
				"id":       d.ID,
				"name":     d.Name,
				"file_ext": d.FileExt,
			})
		}
		response.JSON(w, out)
	}
}
