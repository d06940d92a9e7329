package handler

import (
	"net/http"

	"github.com/seqlabs/genoportal/internal/analysis"
	"github.com/seqlabs/genoportal/internal/api/middleware"
	"github.com/seqlabs/genoportal/internal/api/response"
	"github.com/seqlabs/genoportal/internal/session"
)

// 512 MiB of multipart form held in memory before spilling to disk.
const maxUploadMemory = 512 << 20

// NewUploadHandler returns an http.HandlerFunc for POST /api/v1/upload.
// The file streams straight into the remote service; on success the session
// remembers the history and dataset for follow-up tool runs.
func NewUploadHandler(svc Coordinator, sessions session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "NO_SESSION", "No active session", nil)
			return
		}

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid multipart body", nil)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "No se seleccionó ningún archivo", nil)
			return
		}
		defer file.Close()

		historyID := r.FormValue("history_id")
		if historyID == "" {
			historyID = sess.HistoryID
		}

		outcome, err := svc.UploadAndAnalyze(r.Context(), analysis.UploadParams{
			UserID:    sess.UserID,
			Username:  sess.Username,
			HistoryID: historyID,
			Filename:  header.Filename,
			File:      file,
			FileType:  r.FormValue("file_type"),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		sess.HistoryID = outcome.HistoryID
		sess.DatasetID = outcome.DatasetID
		sess.LastUploadedFile = header.Filename
		if err := sessions.Save(r.Context(), sess); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update session", nil)
			return
		}

		body := map[string]any{
			"mensaje":    "Archivo '" + header.Filename + "' subido y analizado",
			"history_id": outcome.HistoryID,
			"dataset_id": outcome.DatasetID,
		}
		if len(outcome.Messages) > 0 {
			body["advertencias"] = outcome.Messages
		}
		if outcome.FastQC != nil {
			body["fastqc"] = outcome.FastQC.Describe(analysis.ToolFastQC)
		}
		if outcome.Bowtie2 != nil {
			body["bowtie2"] = outcome.Bowtie2.Describe(analysis.ToolBowtie2)
		}
		response.JSON(w, body)
	}
}
