package analysis

import (
	"strings"

	"github.com/seqlabs/genoportal/pkg/models"
)

// Classified is the single output selected for persistence from one job.
type Classified struct {
	GalaxyOutputID string
	OutputType     string
}

// ClassifyOutputs scans outputs in their given order and picks the one worth
// persisting: the first HTML-typed or report-named output wins and is tagged
// html; otherwise the first output is kept tagged unknown. An empty list
// yields nothing. First match, at most one selection per job, deterministic
// for a fixed ordering.
//
// The name-substring heuristic matches how FastQC titles its report dataset;
// it lives behind this narrow function so a stricter content-type check can
// replace it without touching callers.
func ClassifyOutputs(outputs []models.OutputRef) (Classified, bool) {
	if len(outputs) == 0 {
		return Classified{}, false
	}

	for _, out := range outputs {
		if isHTMLReport(out) {
			return Classified{GalaxyOutputID: out.ID, OutputType: models.OutputTypeHTML}, true
		}
	}

	return Classified{GalaxyOutputID: outputs[0].ID, OutputType: models.OutputTypeUnknown}, true
}

func isHTMLReport(out models.OutputRef) bool {
	if out.FileExt == "html" || out.FileExt == "html_file" {
		return true
	}
	name := strings.ToLower(out.Name)
	return strings.Contains(name, "webpage") || strings.Contains(name, "fastqc")
}
