// Package report presents probe output: a buffering sink that assembles
// the final result tree, and a streaming sink that frames each event as
// one line of JSON for progressive rendering.
package report

import "github.com/forgelab/dataprobe/internal/core/domain"

// Event type tags, one per sink callback.
const (
	EventDatasetStart = "dataset_start"
	EventConnector    = "connector"
	EventSnapshot     = "snapshot"
	EventInitError    = "init_error"
	EventStepError    = "step_error"
	EventSkipped      = "skipped"
	EventDatasetEnd   = "dataset_end"
	EventError        = "error"
	EventComplete     = "complete"
)

type datasetStartEvent struct {
	Type          string `json:"type"`
	DatasetName   string `json:"datasetName"`
	DatasetTarget string `json:"datasetTarget"`
	DatasetPath   string `json:"datasetPath"`
}

type connectorEvent struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// snapshotEvent flattens the step snapshot fields next to the type tag.
type snapshotEvent struct {
	Type string `json:"type"`
	*domain.StepSnapshot
}

type initErrorEvent struct {
	Type           string `json:"type"`
	ErrorMessage   string `json:"errorMessage"`
	ErrorTraceback string `json:"errorTraceback"`
}

type stepErrorEvent struct {
	Type           string `json:"type"`
	StepLabel      string `json:"stepLabel"`
	StepIndex      int    `json:"stepIndex"`
	ErrorMessage   string `json:"errorMessage"`
	ErrorTraceback string `json:"errorTraceback"`
}

type skippedEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type datasetEndEvent struct {
	Type        string `json:"type"`
	DatasetPath string `json:"datasetPath"`
}

type errorEvent struct {
	Type           string `json:"type"`
	ErrorMessage   string `json:"errorMessage"`
	ErrorTraceback string `json:"errorTraceback"`
}

type completeEvent struct {
	Type            string `json:"type"`
	ExecutionTimeMs int64  `json:"executionTimeMs"`
}
