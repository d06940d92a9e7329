package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Job states owned by the compute service. Exactly ok and error are terminal;
// anything else (new, queued, running, paused, ...) means still in flight.
const (
	JobStateOK    = "ok"
	JobStateError = "error"
)

// History is a remote container grouping a user's datasets and job outputs.
// This system only references it by id.
type History struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	UpdateTime string `json:"update_time"`
}

// Dataset is a named, typed data object inside a History, produced by an
// upload or by a tool job.
type Dataset struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	FileExt string `json:"file_ext"`
	State   string `json:"state"`
	Visible bool   `json:"visible"`
	Deleted bool   `json:"deleted"`
}

// Available reports whether the dataset can be fed into a tool.
func (d Dataset) Available() bool {
	return d.State == JobStateOK && d.Visible && !d.Deleted
}

// IsFastq reports whether the dataset looks like FASTQ input, by name suffix
// or by the service's file-extension tag.
func (d Dataset) IsFastq() bool {
	name := strings.ToLower(d.Name)
	if strings.HasSuffix(name, ".fastq") || strings.HasSuffix(name, ".fq") || strings.HasSuffix(name, ".fastq.gz") {
		return true
	}
	return d.FileExt == "fastqsanger" || d.FileExt == "fastq"
}

// OutputRef is one named output of a remote job.
type OutputRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	FileExt string `json:"file_ext"`
}

// Job is the remote view of one tool execution. Outputs keep the order the
// service emitted them in; the output classifier is order-dependent.
type Job struct {
	ID      string      `json:"id"`
	State   string      `json:"state"`
	Outputs []OutputRef `json:"outputs"`
}

// Terminal reports whether the job reached a state after which no further
// change is expected.
func (j Job) Terminal() bool {
	return j.State == JobStateOK || j.State == JobStateError
}

// UnmarshalJSON accepts outputs either as an array or as the service's
// role-name-keyed object, preserving emission order in both cases.
func (j *Job) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      string          `json:"id"`
		State   string          `json:"state"`
		Outputs json.RawMessage `json:"outputs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	outputs, err := DecodeOutputs(raw.Outputs)
	if err != nil {
		return err
	}
	j.ID = raw.ID
	j.State = raw.State
	j.Outputs = outputs
	return nil
}

// ToolRun is the response of a run-tool call: the jobs it scheduled plus the
// output datasets it pre-announced.
type ToolRun struct {
	Jobs    []Job       `json:"jobs"`
	Outputs []OutputRef `json:"outputs"`
}

func (t *ToolRun) UnmarshalJSON(data []byte) error {
	var raw struct {
		Jobs    []Job           `json:"jobs"`
		Outputs json.RawMessage `json:"outputs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	outputs, err := DecodeOutputs(raw.Outputs)
	if err != nil {
		return err
	}
	t.Jobs = raw.Jobs
	t.Outputs = outputs
	return nil
}

// DecodeOutputs decodes an outputs payload. The service emits either a JSON
// array or an object mapping role names to references; for objects the key
// order carries through to the slice so first-match classification stays
// deterministic.
func DecodeOutputs(data []byte) ([]OutputRef, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var outputs []OutputRef
		if err := json.Unmarshal(trimmed, &outputs); err != nil {
			return nil, fmt.Errorf("decoding outputs array: %w", err)
		}
		return outputs, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decoding outputs object: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decoding outputs: unexpected token %v", tok)
	}

	var outputs []OutputRef
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding outputs object: %w", err)
		}
		role, _ := tok.(string)

		var out OutputRef
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("decoding outputs object: %w", err)
		}
		// The role name is often the only name the object form carries.
		if out.Name == "" {
			out.Name = role
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
