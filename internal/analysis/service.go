package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/seqlabs/genoportal/internal/galaxy"
	"github.com/seqlabs/genoportal/internal/observability"
	"github.com/seqlabs/genoportal/internal/store"
	"github.com/seqlabs/genoportal/pkg/models"
)

// Tool names accepted by StartAnalysis.
const (
	ToolFastQC  = "fastqc"
	ToolBowtie2 = "bowtie2"
	ToolUpload  = "upload"
)

// ErrToolNotImplemented is returned when StartAnalysis is asked for a tool
// this portal does not wire.
var ErrToolNotImplemented = errors.New("tool not implemented")

// Service is the coordinator tying one user action to remote calls and
// ledger writes. Remote failures never escape it unhandled: they end up as
// error-status analyses and readable messages.
type Service struct {
	client galaxy.Client
	store  store.Store
	orch   *Orchestrator
}

func NewService(client galaxy.Client, st store.Store, wait galaxy.WaitOptions) *Service {
	return &Service{
		client: client,
		store:  st,
		orch:   NewOrchestrator(client, wait),
	}
}

// --- history and dataset views ---

func (s *Service) ListHistories(ctx context.Context) ([]models.History, error) {
	return s.client.ListHistories(ctx)
}

func (s *Service) CreateHistory(ctx context.Context, name string) (models.History, error) {
	return s.client.CreateHistory(ctx, name)
}

// ListDatasets returns the history's datasets that are ready for analysis:
// state ok, visible, not deleted. With fastqOnly it keeps FASTQ-looking
// entries only, which is what the FastQC picker needs.
func (s *Service) ListDatasets(ctx context.Context, historyID string, fastqOnly bool) ([]models.Dataset, error) {
	contents, err := s.client.ShowHistoryContents(ctx, historyID)
	if err != nil {
		return nil, err
	}

	datasets := make([]models.Dataset, 0, len(contents))
	for _, d := range contents {
		if !d.Available() {
			continue
		}
		if fastqOnly && !d.IsFastq() {
			continue
		}
		datasets = append(datasets, d)
	}
	return datasets, nil
}

// --- start-analysis ---

// StartAnalysisParams is one validated start-analysis request.
type StartAnalysisParams struct {
	UserID          uuid.UUID
	Tool            string
	HistoryID       string
	DatasetR1       string
	DatasetR2       string
	ReferenceGenome string
}

// StartAnalysisOutcome reports what one orchestration attempt left behind.
type StartAnalysisOutcome struct {
	AnalysisID uuid.UUID
	Status     string
	JobIDs     []string
	ResultIDs  []uuid.UUID
	Warnings   []string
}

// StartAnalysis dispatches to the named tool, waits out its jobs, classifies
// outputs, and persists one Analysis plus zero or more Results. Zero results
// across all jobs downgrades the status to advertencia; a whole-run remote
// failure records an error-status Analysis and returns the failure.
func (s *Service) StartAnalysis(ctx context.Context, p StartAnalysisParams) (*StartAnalysisOutcome, error) {
	var (
		results []JobResult
		err     error
	)

	inputDescriptor := p.DatasetR1
	if p.DatasetR2 != "" {
		inputDescriptor = p.DatasetR1 + "," + p.DatasetR2
	}

	switch p.Tool {
	case ToolFastQC:
		results, err = s.orch.RunFastQC(ctx, p.HistoryID, p.DatasetR1, p.DatasetR2)
	case ToolBowtie2:
		results, err = s.orch.RunBowtie2(ctx, p.HistoryID, p.DatasetR1, p.ReferenceGenome)
	default:
		return nil, fmt.Errorf("%w: %q", ErrToolNotImplemented, p.Tool)
	}
	if err != nil {
		s.recordFailure(ctx, p.UserID, p.Tool, inputDescriptor, err)
		return nil, err
	}
	if cause := wholeRunFailure(results); cause != nil {
		s.recordFailure(ctx, p.UserID, p.Tool, inputDescriptor, cause)
		return nil, cause
	}

	return s.persistOutcome(ctx, p.UserID, p.Tool, inputDescriptor, results)
}

// wholeRunFailure reports the combined cause when not a single invocation got
// a job onto the remote service. One surviving job means the run proceeds and
// the failures become warnings instead.
func wholeRunFailure(results []JobResult) error {
	if len(results) == 0 {
		return nil
	}
	causes := make([]error, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			return nil
		}
		causes = append(causes, r.Err)
	}
	return errors.Join(causes...)
}

// persistOutcome classifies each job's outputs, derives the analysis status,
// and writes the Analysis row followed by its Result rows. The two writes are
// not one transaction; a crash in between leaves a resultless Analysis, which
// surfaces in the plain history view rather than as corruption.
func (s *Service) persistOutcome(ctx context.Context, userID uuid.UUID, tool, inputDescriptor string, results []JobResult) (*StartAnalysisOutcome, error) {
	outcome := &StartAnalysisOutcome{}

	var selected []Classified
	for _, r := range results {
		if r.Err != nil {
			outcome.Warnings = append(outcome.Warnings, r.Err.Error())
			continue
		}
		outcome.JobIDs = append(outcome.JobIDs, r.JobID)
		if r.State == models.JobStateError {
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("job %s finished in error state", r.JobID))
		}
		if c, ok := ClassifyOutputs(r.Outputs); ok {
			selected = append(selected, c)
		}
	}

	// Partial success still counts as completado; only a run with nothing
	// classifiable at all is downgraded.
	outcome.Status = models.StatusCompleted
	if len(selected) == 0 {
		outcome.Status = models.StatusWarning
	}

	analysis := &models.Analysis{
		ID:        uuid.New(),
		UserID:    userID,
		ToolName:  tool,
		InputFile: inputDescriptor,
		Status:    outcome.Status,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("recording analysis: %w", err)
	}
	outcome.AnalysisID = analysis.ID
	observability.AnalysesRecorded.WithLabelValues(tool, outcome.Status).Inc()

	for _, c := range selected {
		result := &models.Result{
			ID:             uuid.New(),
			AnalysisID:     analysis.ID,
			GalaxyOutputID: c.GalaxyOutputID,
			OutputType:     c.OutputType,
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.store.CreateResult(ctx, result); err != nil {
			return nil, fmt.Errorf("recording result: %w", err)
		}
		outcome.ResultIDs = append(outcome.ResultIDs, result.ID)
	}

	return outcome, nil
}

// recordFailure writes the error-status Analysis for an attempt that died on
// a remote call. Ledger errors here are logged, not propagated; the remote
// failure is what the caller needs to see.
func (s *Service) recordFailure(ctx context.Context, userID uuid.UUID, tool, inputDescriptor string, cause error) {
	analysis := &models.Analysis{
		ID:        uuid.New(),
		UserID:    userID,
		ToolName:  tool,
		InputFile: inputDescriptor,
		Status:    models.StatusError,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAnalysis(ctx, analysis); err != nil {
		slog.Error("recording failed analysis", "tool", tool, "cause", cause, "error", err)
		return
	}
	observability.AnalysesRecorded.WithLabelValues(tool, models.StatusError).Inc()
}

// --- upload + analyze ---

// UploadParams carries one multipart upload.
type UploadParams struct {
	UserID    uuid.UUID
	Username  string
	HistoryID string
	Filename  string
	File      io.Reader
	FileType  string
}

// UploadOutcome is the consolidated report of the upload-and-analyze flow.
type UploadOutcome struct {
	HistoryID string
	DatasetID string
	Messages  []string
	FastQC    *StartAnalysisOutcome
	Bowtie2   *StartAnalysisOutcome
}

// UploadAndAnalyze uploads the file into the target history (resolving or
// creating one when none is given), records the upload in the ledger, then
// runs FastQC and Bowtie2 against the new dataset. Each tool attempt settles
// its own Analysis; one tool failing does not stop the other.
func (s *Service) UploadAndAnalyze(ctx context.Context, p UploadParams) (*UploadOutcome, error) {
	historyID, err := s.resolveHistory(ctx, p.HistoryID, p.Username)
	if err != nil {
		return nil, err
	}

	fileType := p.FileType
	if fileType == "" {
		fileType = "fastqsanger"
	}

	dataset, err := s.client.UploadFile(ctx, p.File, p.Filename, historyID, fileType)
	if err != nil {
		s.recordFailure(ctx, p.UserID, ToolUpload, p.Filename, err)
		return nil, err
	}

	upload := &models.Analysis{
		ID:        uuid.New(),
		UserID:    p.UserID,
		ToolName:  ToolUpload,
		InputFile: p.Filename,
		Status:    models.StatusUploaded,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAnalysis(ctx, upload); err != nil {
		return nil, fmt.Errorf("recording upload: %w", err)
	}
	observability.AnalysesRecorded.WithLabelValues(ToolUpload, models.StatusUploaded).Inc()

	outcome := &UploadOutcome{HistoryID: historyID, DatasetID: dataset.ID}

	fastqc, err := s.StartAnalysis(ctx, StartAnalysisParams{
		UserID:    p.UserID,
		Tool:      ToolFastQC,
		HistoryID: historyID,
		DatasetR1: dataset.ID,
	})
	if err != nil {
		outcome.Messages = append(outcome.Messages, fmt.Sprintf("fastqc failed: %v", err))
	} else {
		outcome.FastQC = fastqc
	}

	bowtie, err := s.StartAnalysis(ctx, StartAnalysisParams{
		UserID:    p.UserID,
		Tool:      ToolBowtie2,
		HistoryID: historyID,
		DatasetR1: dataset.ID,
	})
	if err != nil {
		outcome.Messages = append(outcome.Messages, fmt.Sprintf("bowtie2 failed: %v", err))
	} else {
		outcome.Bowtie2 = bowtie
	}

	return outcome, nil
}

// resolveHistory picks the target history: the explicit id when given, else
// the user's most recent history, else a fresh one named after the user.
func (s *Service) resolveHistory(ctx context.Context, historyID, username string) (string, error) {
	if historyID != "" {
		return historyID, nil
	}

	histories, err := s.client.ListHistories(ctx)
	if err != nil {
		return "", err
	}
	if len(histories) > 0 {
		return histories[0].ID, nil
	}

	history, err := s.client.CreateHistory(ctx, "Historia de "+username)
	if err != nil {
		return "", err
	}
	return history.ID, nil
}

// --- ledger reads ---

// RecordAnalysis persists an analysis row directly, for callers that ran a
// tool outside the pipeline. Status defaults to completado.
func (s *Service) RecordAnalysis(ctx context.Context, userID uuid.UUID, tool, inputFile, status string) (*models.Analysis, error) {
	if status == "" {
		status = models.StatusCompleted
	}
	analysis := &models.Analysis{
		ID:        uuid.New(),
		UserID:    userID,
		ToolName:  tool,
		InputFile: inputFile,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAnalysis(ctx, analysis); err != nil {
		return nil, err
	}
	observability.AnalysesRecorded.WithLabelValues(tool, status).Inc()
	return analysis, nil
}

func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]*models.Analysis, error) {
	return s.store.ListAnalyses(ctx, userID)
}

func (s *Service) HistoryWithResults(ctx context.Context, userID uuid.UUID) ([]*models.AnalysisWithResults, error) {
	return s.store.ListAnalysesWithResults(ctx, userID)
}

// ViewResult resolves a local result id and fetches the raw content of its
// remote output dataset. Read-only on both sides, safe to repeat.
func (s *Service) ViewResult(ctx context.Context, resultID uuid.UUID) ([]byte, error) {
	result, err := s.store.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	return s.client.DownloadDataset(ctx, result.GalaxyOutputID)
}

// Describe summarizes an outcome for the user-facing mensaje field.
func (o *StartAnalysisOutcome) Describe(tool string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d job(s), %d resultado(s)", tool, len(o.JobIDs), len(o.ResultIDs))
	if o.Status == models.StatusWarning {
		b.WriteString(" (sin resultados clasificables)")
	}
	return b.String()
}
