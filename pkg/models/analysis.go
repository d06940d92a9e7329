package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis statuses. The vocabulary comes from the portal's history view and
// is written once by the coordinator when the attempt settles; it is never
// recomputed from child results.
const (
	StatusCompleted = "completado"
	StatusError     = "error"
	StatusPending   = "pendiente"
	StatusWarning   = "advertencia"
	StatusUploaded  = "subido"
)

// Result output types assigned by the output classifier.
const (
	OutputTypeHTML    = "html"
	OutputTypeUnknown = "unknown"
)

// Analysis records one orchestration attempt against the compute service.
// Every attempt gets its own row; duplicates are expected.
type Analysis struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	UserID    uuid.UUID `db:"user_id"    json:"user_id"`
	ToolName  string    `db:"tool_name"  json:"tool_name"`
	InputFile string    `db:"input_file" json:"input_file"`
	Status    string    `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Result is one persisted remote-output reference. It never exists without
// its parent Analysis.
type Result struct {
	ID             uuid.UUID `db:"id"               json:"id"`
	AnalysisID     uuid.UUID `db:"analisis_id"      json:"analisis_id"`
	GalaxyOutputID string    `db:"galaxy_output_id" json:"galaxy_output_id"`
	OutputType     string    `db:"output_type"      json:"output_type"`
	CreatedAt      time.Time `db:"created_at"       json:"created_at"`
}

// AnalysisWithResults embeds the results of an analysis for the joined
// history view. Only analyses with at least one result appear there.
type AnalysisWithResults struct {
	Analysis
	Results []Result `json:"resultados"`
}
