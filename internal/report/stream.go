package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/forgelab/dataprobe/internal/core/domain"
	"github.com/forgelab/dataprobe/internal/core/ports"
)

// flusher is the subset of http.Flusher the stream sink cares about.
type flusher interface {
	Flush()
}

// StreamSink writes each probe event as one line of JSON, flushed
// immediately so an embedding UI can render progress live. An optional
// marker string prefixes every line for demultiplexing probe events from
// other output on the same stream.
type StreamSink struct {
	mu     sync.Mutex
	w      io.Writer
	marker string
	logger *slog.Logger
}

// NewStreamSink returns a sink writing line-delimited JSON to w.
func NewStreamSink(w io.Writer, marker string) *StreamSink {
	return &StreamSink{w: w, marker: marker, logger: slog.Default()}
}

func (s *StreamSink) NodeStart(name, target, path string) {
	s.emit(datasetStartEvent{Type: EventDatasetStart, DatasetName: name, DatasetTarget: target, DatasetPath: path})
}

func (s *StreamSink) Connector(label string) {
	s.emit(connectorEvent{Type: EventConnector, Label: label})
}

func (s *StreamSink) Snapshot(snap *domain.StepSnapshot) {
	s.emit(snapshotEvent{Type: EventSnapshot, StepSnapshot: snap})
}

func (s *StreamSink) InitError(msg, traceback string) {
	s.emit(initErrorEvent{Type: EventInitError, ErrorMessage: msg, ErrorTraceback: traceback})
}

func (s *StreamSink) StepError(label string, index int, msg, traceback string) {
	s.emit(stepErrorEvent{Type: EventStepError, StepLabel: label, StepIndex: index, ErrorMessage: msg, ErrorTraceback: traceback})
}

func (s *StreamSink) Skipped(reason string) {
	s.emit(skippedEvent{Type: EventSkipped, Reason: reason})
}

func (s *StreamSink) NodeEnd(path string) {
	s.emit(datasetEndEvent{Type: EventDatasetEnd, DatasetPath: path})
}

func (s *StreamSink) Error(msg, traceback string) {
	s.emit(errorEvent{Type: EventError, ErrorMessage: msg, ErrorTraceback: traceback})
}

func (s *StreamSink) Complete(elapsedMs int64) {
	s.emit(completeEvent{Type: EventComplete, ExecutionTimeMs: elapsedMs})
}

func (s *StreamSink) emit(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal probe event", slog.String("error", err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "%s%s\n", s.marker, data); err != nil {
		s.logger.Error("write probe event", slog.String("error", err.Error()))
		return
	}
	if f, ok := s.w.(flusher); ok {
		f.Flush()
	}
}

var _ ports.Sink = (*StreamSink)(nil)
