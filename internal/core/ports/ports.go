// Package ports defines the narrow capability interfaces the probing
// engine depends on. Concrete pipeline sources and transform stages live
// behind these interfaces; the engine never inspects their types beyond
// a display name.
package ports

import "github.com/forgelab/dataprobe/internal/core/domain"

// Instance is a live pipeline-source object built from a configuration
// node. Nodes are plain decoded maps (see internal/tree).
type Instance interface {
	// Name is the display name used as the label of the raw snapshot.
	Name() string
	// FetchFirst produces the pipeline's first record, without applying
	// any transform stage.
	FetchFirst() (domain.Entry, error)
}

// Stage is one transform step: it maps an entry to a new entry or fails.
type Stage interface {
	Name() string
	Apply(domain.Entry) (domain.Entry, error)
}

// CacheToggler is implemented by instances whose fetch path may write
// cached artifacts. The prober switches caching off before fetching.
type CacheToggler interface {
	DisableCaching()
}

// StageProvider exposes the stage list a live instance would apply on
// its own. Used when the configuration carries no stage sequence.
type StageProvider interface {
	Stages() []Stage
}

// ObjectResolver turns one pipeline node into a live instance. The full
// document root is passed along for cross-reference resolution.
type ObjectResolver interface {
	Construct(node, root map[string]any) (Instance, error)
}

// ReferenceResolver resolves a deferred stage-sequence reference (a
// dotted path recorded during extraction) to concrete stages.
type ReferenceResolver interface {
	Resolve(path string) ([]Stage, error)
}
