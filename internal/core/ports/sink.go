package ports

import "github.com/forgelab/dataprobe/internal/core/domain"

// Sink receives probe output as it is produced. The prober is
// presentation-agnostic: one sink buffers into a final result tree,
// another writes framed events immediately for progressive rendering.
// Calls arrive strictly sequentially, innermost wrapped node first.
type Sink interface {
	// NodeStart opens a pipeline node's block.
	NodeStart(name, target, path string)
	// Connector marks that the preceding node's output feeds the next one.
	Connector(label string)
	// Snapshot records an entry's state after one step.
	Snapshot(snap *domain.StepSnapshot)
	// InitError records that constructing the node's instance failed.
	InitError(msg, traceback string)
	// StepError records that a stage failed; no further stages ran.
	StepError(label string, index int, msg, traceback string)
	// Skipped records that the node was not attempted because its inner
	// pipeline failed.
	Skipped(reason string)
	// NodeEnd closes the current node's block.
	NodeEnd(path string)
	// Error records a top-level fatal failure outside any node.
	Error(msg, traceback string)
	// Complete closes the probe with its wall-clock elapsed time.
	Complete(elapsedMs int64)
}
