package domain

// Descriptor is the bounded, serializable summary of one runtime value.
// Optional fields are pointers so absent statistics serialize as null,
// matching the report contract consumed by renderers.
type Descriptor struct {
	Key       string       `json:"key"`
	TypeName  string       `json:"typeName"`
	Shape     *string      `json:"shape"`
	DType     *string      `json:"dtype"`
	MinValue  *string      `json:"minValue"`
	MaxValue  *string      `json:"maxValue"`
	MeanValue *string      `json:"meanValue"`
	StdValue  *string      `json:"stdValue"`
	Preview   *string      `json:"preview"`
	SizeBytes *int64       `json:"sizeBytes"`
	Children  []Descriptor `json:"children"`
}

// StepSnapshot captures an entry's state after one pipeline step, or the
// error that ended the step sequence.
type StepSnapshot struct {
	StepLabel      string       `json:"stepLabel"`
	StepIndex      int          `json:"stepIndex"`
	Fields         []Descriptor `json:"fields"`
	IsBatched      bool         `json:"isBatched"`
	ErrorMessage   string       `json:"errorMessage,omitempty"`
	ErrorTraceback string       `json:"errorTraceback,omitempty"`
}

// Failed reports whether this snapshot records an error instead of state.
func (s *StepSnapshot) Failed() bool {
	return s.ErrorMessage != "" || s.ErrorTraceback != ""
}

// ProbeResult is one node's probe outcome, mirroring the wrapped-pipeline
// structure through InnerResult. A skipped node has no snapshots: it was
// never instantiated because its inner pipeline failed.
type ProbeResult struct {
	DatasetName   string         `json:"datasetName"`
	DatasetTarget string         `json:"datasetTarget"`
	DatasetPath   string         `json:"datasetPath"`
	Skipped       bool           `json:"skipped"`
	SkipReason    string         `json:"skipReason,omitempty"`
	Snapshots     []StepSnapshot `json:"snapshots"`
	InnerResult   *ProbeResult   `json:"innerResult"`
}

// Failed reports whether this node's own probe ended in an error or was
// skipped due to an inner failure.
func (r *ProbeResult) Failed() bool {
	if r.Skipped {
		return true
	}
	for i := range r.Snapshots {
		if r.Snapshots[i].Failed() {
			return true
		}
	}
	return false
}
