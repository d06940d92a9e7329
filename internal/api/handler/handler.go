// Package handler wires HTTP requests to the analysis coordinator.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/seqlabs/genoportal/internal/analysis"
	"github.com/seqlabs/genoportal/internal/api/response"
	"github.com/seqlabs/genoportal/internal/galaxy"
	"github.com/seqlabs/genoportal/internal/store"
	"github.com/seqlabs/genoportal/pkg/models"
)

// Coordinator is the surface the handlers need from the analysis service.
type Coordinator interface {
	ListHistories(ctx context.Context) ([]models.History, error)
	CreateHistory(ctx context.Context, name string) (models.History, error)
	ListDatasets(ctx context.Context, historyID string, fastqOnly bool) ([]models.Dataset, error)
	UploadAndAnalyze(ctx context.Context, p analysis.UploadParams) (*analysis.UploadOutcome, error)
	StartAnalysis(ctx context.Context, p analysis.StartAnalysisParams) (*analysis.StartAnalysisOutcome, error)
	RecordAnalysis(ctx context.Context, userID uuid.UUID, tool, inputFile, status string) (*models.Analysis, error)
	History(ctx context.Context, userID uuid.UUID) ([]*models.Analysis, error)
	HistoryWithResults(ctx context.Context, userID uuid.UUID) ([]*models.AnalysisWithResults, error)
	ViewResult(ctx context.Context, resultID uuid.UUID) ([]byte, error)
}

// Compile-time check that the analysis service satisfies Coordinator.
var _ Coordinator = (*analysis.Service)(nil)

// writeServiceError maps coordinator failures onto the response envelope.
// Remote faults surface as readable messages, never as raw stack traces.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrToolNotImplemented):
		response.Error(w, http.StatusNotImplemented, "TOOL_NOT_IMPLEMENTED", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	// All remote faults land on 500; the code field tells the classes apart.
	case errors.Is(err, galaxy.ErrWaitTimeout):
		response.Error(w, http.StatusInternalServerError, "JOB_WAIT_TIMEOUT", err.Error(), nil)
	case errors.Is(err, galaxy.ErrGalaxyTimeout):
		response.Error(w, http.StatusInternalServerError, "UPSTREAM_TIMEOUT", err.Error(), nil)
	case errors.Is(err, galaxy.ErrGalaxyUnreachable), errors.Is(err, galaxy.ErrGalaxyAPI):
		response.Error(w, http.StatusInternalServerError, "UPSTREAM_ERROR", err.Error(), nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}
