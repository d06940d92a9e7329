package galaxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/seqlabs/genoportal/internal/observability"
	"github.com/seqlabs/genoportal/pkg/models"
)

// Sentinel errors for compute-service failures.
var (
	ErrGalaxyUnreachable = errors.New("galaxy unreachable")
	ErrGalaxyAPI         = errors.New("galaxy api error")
	ErrGalaxyTimeout     = errors.New("galaxy timeout")
)

// Client is the call surface over the remote compute service. Every call
// either returns a value or fails; there are no retries at this layer, and
// upload/run calls mutate remote state even if the local process later dies.
type Client interface {
	ListHistories(ctx context.Context) ([]models.History, error)
	CreateHistory(ctx context.Context, name string) (models.History, error)
	ShowHistoryContents(ctx context.Context, historyID string) ([]models.Dataset, error)
	UploadFile(ctx context.Context, r io.Reader, filename, historyID, fileType string) (models.Dataset, error)
	RunTool(ctx context.Context, historyID, toolID string, inputs map[string]any) (models.ToolRun, error)
	ShowJob(ctx context.Context, jobID string) (models.Job, error)
	DownloadDataset(ctx context.Context, datasetID string) ([]byte, error)
}

// HTTPClient implements Client against the Galaxy HTTP API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient creates a Galaxy client. callsPerSecond paces outbound
// requests; zero or negative disables pacing.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, callsPerSecond float64) *HTTPClient {
	limit := rate.Inf
	if callsPerSecond > 0 {
		limit = rate.Limit(callsPerSecond)
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *HTTPClient) ListHistories(ctx context.Context) ([]models.History, error) {
	var histories []models.History
	if err := c.getJSON(ctx, "list_histories", "/api/histories", nil, &histories); err != nil {
		return nil, err
	}
	return histories, nil
}

func (c *HTTPClient) CreateHistory(ctx context.Context, name string) (models.History, error) {
	var history models.History
	err := c.postJSON(ctx, "create_history", "/api/histories", map[string]any{"name": name}, &history)
	return history, err
}

func (c *HTTPClient) ShowHistoryContents(ctx context.Context, historyID string) ([]models.Dataset, error) {
	path := fmt.Sprintf("/api/histories/%s/contents", url.PathEscape(historyID))
	var datasets []models.Dataset
	if err := c.getJSON(ctx, "show_history_contents", path, nil, &datasets); err != nil {
		return nil, err
	}
	return datasets, nil
}

// uploadResponse is the tool-style response the upload endpoint returns; the
// created dataset is the first entry of outputs.
type uploadResponse struct {
	Outputs []models.Dataset `json:"outputs"`
}

func (c *HTTPClient) UploadFile(ctx context.Context, r io.Reader, filename, historyID, fileType string) (models.Dataset, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("history_id", historyID); err != nil {
		return models.Dataset{}, fmt.Errorf("building upload form: %w", err)
	}
	if err := mw.WriteField("file_type", fileType); err != nil {
		return models.Dataset{}, fmt.Errorf("building upload form: %w", err)
	}
	part, err := mw.CreateFormFile("files_0|file_data", filename)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return models.Dataset{}, fmt.Errorf("copying upload payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return models.Dataset{}, fmt.Errorf("closing upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/tools/fetch", &body)
	if err != nil {
		return models.Dataset{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp uploadResponse
	if err := c.do("upload_file", req, &resp); err != nil {
		return models.Dataset{}, err
	}
	if len(resp.Outputs) == 0 {
		return models.Dataset{}, fmt.Errorf("%w: upload produced no dataset", ErrGalaxyAPI)
	}
	return resp.Outputs[0], nil
}

func (c *HTTPClient) RunTool(ctx context.Context, historyID, toolID string, inputs map[string]any) (models.ToolRun, error) {
	payload := map[string]any{
		"history_id": historyID,
		"tool_id":    toolID,
		"inputs":     inputs,
	}

	var run models.ToolRun
	if err := c.postJSON(ctx, "run_tool", "/api/tools", payload, &run); err != nil {
		return models.ToolRun{}, err
	}
	return run, nil
}

func (c *HTTPClient) ShowJob(ctx context.Context, jobID string) (models.Job, error) {
	path := fmt.Sprintf("/api/jobs/%s", url.PathEscape(jobID))
	var job models.Job
	err := c.getJSON(ctx, "show_job", path, nil, &job)
	return job, err
}

func (c *HTTPClient) DownloadDataset(ctx context.Context, datasetID string) ([]byte, error) {
	path := fmt.Sprintf("/api/datasets/%s/display", url.PathEscape(datasetID))
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.send("download_dataset", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading dataset content: %w", err)
	}
	return data, nil
}

// --- request plumbing ---

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	return req, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, op, path string, params url.Values, out any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(op, req, out)
}

func (c *HTTPClient) postJSON(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *HTTPClient) do(op string, req *http.Request, out any) error {
	resp, err := c.send(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding galaxy response: %w", err)
	}
	return nil
}

// send waits for the pacing limiter, issues the request, and normalizes
// transport and API failures into sentinel errors.
func (c *HTTPClient) send(op string, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGalaxyTimeout, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.GalaxyRequests.WithLabelValues(op, "error").Inc()
		return nil, classifyError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		observability.GalaxyRequests.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("%w: status %d: %s", ErrGalaxyAPI, resp.StatusCode, bytes.TrimSpace(msg))
	}

	observability.GalaxyRequests.WithLabelValues(op, "ok").Inc()
	return resp, nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrGalaxyTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrGalaxyTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrGalaxyUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrGalaxyUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
