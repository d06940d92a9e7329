package mock

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/seqlabs/genoportal/internal/galaxy"
	"github.com/seqlabs/genoportal/pkg/models"
)

// Compile-time check that Client implements galaxy.Client.
var _ galaxy.Client = (*Client)(nil)

// Client satisfies galaxy.Client for testing. Behavior is overridden per
// function field; unset fields return zero values. It records tool
// invocations and counts ShowJob polls per job so tests can assert on the
// orchestration sequence.
type Client struct {
	mu sync.Mutex

	ListHistoriesFunc       func(ctx context.Context) ([]models.History, error)
	CreateHistoryFunc       func(ctx context.Context, name string) (models.History, error)
	ShowHistoryContentsFunc func(ctx context.Context, historyID string) ([]models.Dataset, error)
	UploadFileFunc          func(ctx context.Context, r io.Reader, filename, historyID, fileType string) (models.Dataset, error)
	RunToolFunc             func(ctx context.Context, historyID, toolID string, inputs map[string]any) (models.ToolRun, error)
	ShowJobFunc             func(ctx context.Context, jobID string) (models.Job, error)
	DownloadDatasetFunc     func(ctx context.Context, datasetID string) ([]byte, error)

	RunToolCalls []RunToolCall
	ShowJobCalls map[string]int
}

// RunToolCall records one RunTool invocation.
type RunToolCall struct {
	HistoryID string
	ToolID    string
	Inputs    map[string]any
}

func (c *Client) ListHistories(ctx context.Context) ([]models.History, error) {
	if c.ListHistoriesFunc != nil {
		return c.ListHistoriesFunc(ctx)
	}
	return nil, nil
}

func (c *Client) CreateHistory(ctx context.Context, name string) (models.History, error) {
	if c.CreateHistoryFunc != nil {
		return c.CreateHistoryFunc(ctx, name)
	}
	return models.History{ID: "hist-new", Name: name}, nil
}

func (c *Client) ShowHistoryContents(ctx context.Context, historyID string) ([]models.Dataset, error) {
	if c.ShowHistoryContentsFunc != nil {
		return c.ShowHistoryContentsFunc(ctx, historyID)
	}
	return nil, nil
}

func (c *Client) UploadFile(ctx context.Context, r io.Reader, filename, historyID, fileType string) (models.Dataset, error) {
	if c.UploadFileFunc != nil {
		return c.UploadFileFunc(ctx, r, filename, historyID, fileType)
	}
	return models.Dataset{ID: "ds-uploaded", Name: filename, FileExt: fileType}, nil
}

func (c *Client) RunTool(ctx context.Context, historyID, toolID string, inputs map[string]any) (models.ToolRun, error) {
	c.mu.Lock()
	c.RunToolCalls = append(c.RunToolCalls, RunToolCall{HistoryID: historyID, ToolID: toolID, Inputs: inputs})
	n := len(c.RunToolCalls)
	c.mu.Unlock()

	if c.RunToolFunc != nil {
		return c.RunToolFunc(ctx, historyID, toolID, inputs)
	}
	return models.ToolRun{Jobs: []models.Job{{ID: fmt.Sprintf("job-%d", n), State: "queued"}}}, nil
}

func (c *Client) ShowJob(ctx context.Context, jobID string) (models.Job, error) {
	c.mu.Lock()
	if c.ShowJobCalls == nil {
		c.ShowJobCalls = make(map[string]int)
	}
	c.ShowJobCalls[jobID]++
	c.mu.Unlock()

	if c.ShowJobFunc != nil {
		return c.ShowJobFunc(ctx, jobID)
	}
	return models.Job{ID: jobID, State: models.JobStateOK}, nil
}

func (c *Client) DownloadDataset(ctx context.Context, datasetID string) ([]byte, error) {
	if c.DownloadDatasetFunc != nil {
		return c.DownloadDatasetFunc(ctx, datasetID)
	}
	return []byte("<html></html>"), nil
}
