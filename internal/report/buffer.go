package report

import (
	"github.com/forgelab/dataprobe/internal/core/domain"
	"github.com/forgelab/dataprobe/internal/core/ports"
)

// BufferSink assembles probe events into a final ProbeResult tree.
// Events arrive strictly sequentially with the innermost wrapped node's
// block first, so a completed subtree is simply held until the next
// NodeStart claims it as its inner result.
type BufferSink struct {
	current *domain.ProbeResult
	pending *domain.ProbeResult

	errMsg    string
	errTrace  string
	elapsedMs int64
}

// NewBufferSink returns an empty buffering sink.
func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (b *BufferSink) NodeStart(name, target, path string) {
	b.current = &domain.ProbeResult{
		DatasetName:   name,
		DatasetTarget: target,
		DatasetPath:   path,
		InnerResult:   b.pending,
	}
	b.pending = nil
}

// Connector is structural information the result tree already carries.
func (b *BufferSink) Connector(string) {}

func (b *BufferSink) Snapshot(snap *domain.StepSnapshot) {
	if b.current != nil {
		b.current.Snapshots = append(b.current.Snapshots, *snap)
	}
}

func (b *BufferSink) InitError(msg, traceback string) {
	if b.current == nil {
		return
	}
	b.current.Snapshots = append(b.current.Snapshots, domain.StepSnapshot{
		StepLabel:      b.current.DatasetName,
		StepIndex:      0,
		ErrorMessage:   msg,
		ErrorTraceback: traceback,
	})
}

func (b *BufferSink) StepError(label string, index int, msg, traceback string) {
	if b.current == nil {
		return
	}
	b.current.Snapshots = append(b.current.Snapshots, domain.StepSnapshot{
		StepLabel:      label,
		StepIndex:      index,
		ErrorMessage:   msg,
		ErrorTraceback: traceback,
	})
}

func (b *BufferSink) Skipped(reason string) {
	if b.current != nil {
		b.current.Skipped = true
		b.current.SkipReason = reason
	}
}

func (b *BufferSink) NodeEnd(string) {
	if b.current != nil {
		b.pending = b.current
		b.current = nil
	}
}

func (b *BufferSink) Error(msg, traceback string) {
	b.errMsg = msg
	b.errTrace = traceback
}

func (b *BufferSink) Complete(elapsedMs int64) {
	b.elapsedMs = elapsedMs
}

// Result returns the assembled tree, or nil if no node completed.
func (b *BufferSink) Result() *domain.ProbeResult {
	return b.pending
}

// FatalError returns the recorded top-level failure, if any.
func (b *BufferSink) FatalError() (msg, traceback string) {
	return b.errMsg, b.errTrace
}

// ElapsedMs returns the recorded wall-clock probe duration.
func (b *BufferSink) ElapsedMs() int64 {
	return b.elapsedMs
}

var _ ports.Sink = (*BufferSink)(nil)
