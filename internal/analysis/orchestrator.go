package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seqlabs/genoportal/internal/galaxy"
	"github.com/seqlabs/genoportal/pkg/models"
)

// Tool ids on the remote toolshed.
const (
	fastqcToolID  = "toolshed.g2.bx.psu.edu/repos/devteam/fastqc/fastqc/0.72+galaxy1"
	bowtie2ToolID = "toolshed.g2.bx.psu.edu/repos/devteam/bowtie2/bowtie2/2.5.0+galaxy0"

	defaultReferenceGenome = "hg19"
)

// JobResult is the normalized outcome of one tool invocation: the remote job
// it produced, its terminal state, and its outputs. A failed invocation or
// wait is captured in Err with the other fields best-effort; the entry stays
// in the list so the caller can still account for it.
type JobResult struct {
	JobID   string
	State   string
	Outputs []models.OutputRef
	Err     error
}

// Orchestrator invokes remote tools and normalizes their job outcomes. Any
// tool that follows the dataset-in, jobs-and-outputs-out shape can feed the
// classifier and ledger pipeline through it.
type Orchestrator struct {
	client galaxy.Client
	wait   galaxy.WaitOptions
}

func NewOrchestrator(client galaxy.Client, wait galaxy.WaitOptions) *Orchestrator {
	return &Orchestrator{client: client, wait: wait}
}

// RunFastQC invokes FastQC once per provided dataset. An empty datasetR2
// means single-end: one invocation, one job.
func (o *Orchestrator) RunFastQC(ctx context.Context, historyID, datasetR1, datasetR2 string) ([]JobResult, error) {
	datasets := []string{datasetR1}
	if datasetR2 != "" {
		datasets = append(datasets, datasetR2)
	}

	results := make([]JobResult, 0, len(datasets))
	for _, datasetID := range datasets {
		inputs := map[string]any{
			"input_file": map[string]any{"src": "hda", "id": datasetID},
		}
		results = append(results, o.invoke(ctx, historyID, fastqcToolID, inputs))
	}

	return o.collect(ctx, results)
}

// RunBowtie2 aligns one dataset against a reference genome. It goes through
// the same invoke/await/collect pipeline as FastQC so its outputs land in the
// ledger as real results.
func (o *Orchestrator) RunBowtie2(ctx context.Context, historyID, datasetID, referenceGenome string) ([]JobResult, error) {
	if referenceGenome == "" {
		referenceGenome = defaultReferenceGenome
	}

	inputs := map[string]any{
		"input_1":          map[string]any{"src": "hda", "id": datasetID},
		"reference_genome": referenceGenome,
		"analysis_type":    "default",
	}

	return o.collect(ctx, []JobResult{o.invoke(ctx, historyID, bowtie2ToolID, inputs)})
}

// invoke schedules one tool run and returns its first job. An invocation
// failure is carried in the JobResult, not returned, so one bad input does
// not abort the sibling runs.
func (o *Orchestrator) invoke(ctx context.Context, historyID, toolID string, inputs map[string]any) JobResult {
	run, err := o.client.RunTool(ctx, historyID, toolID, inputs)
	if err != nil {
		return JobResult{Err: fmt.Errorf("running tool %s: %w", toolID, err)}
	}
	if len(run.Jobs) == 0 {
		return JobResult{Err: fmt.Errorf("%w: tool %s scheduled no job", galaxy.ErrGalaxyAPI, toolID)}
	}
	return JobResult{JobID: run.Jobs[0].ID}
}

// collect awaits every scheduled job sequentially in invocation order, then
// fetches each job's output list, including jobs whose terminal state was
// error. What an outputless or failed job means is the classifier's and the
// coordinator's call.
func (o *Orchestrator) collect(ctx context.Context, results []JobResult) ([]JobResult, error) {
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		state, err := galaxy.AwaitCompletion(ctx, o.client, results[i].JobID, o.wait)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			results[i].Err = err
			continue
		}
		results[i].State = state
		if state == models.JobStateError {
			slog.Warn("remote job finished with error", "job_id", results[i].JobID)
		}
	}

	for i := range results {
		if results[i].Err != nil {
			continue
		}
		job, err := o.client.ShowJob(ctx, results[i].JobID)
		if err != nil {
			results[i].Err = fmt.Errorf("fetching outputs for job %s: %w", results[i].JobID, err)
			continue
		}
		results[i].Outputs = job.Outputs
	}

	return results, nil
}
