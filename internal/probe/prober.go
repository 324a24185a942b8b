// Package probe implements the recursive prober: it discovers wrapped
// pipeline nodes depth-first, instantiates each node with side effects
// stripped, drives one record through its stage sequence, and reports
// every step through a sink.
package probe

import (
	"log/slog"
	"strings"

	"github.com/forgelab/dataprobe/internal/core/domain"
	"github.com/forgelab/dataprobe/internal/core/ports"
	"github.com/forgelab/dataprobe/internal/snapshot"
	"github.com/forgelab/dataprobe/internal/stage"
	"github.com/forgelab/dataprobe/internal/tree"
)

// Prober walks a pipeline configuration and probes each node exactly
// once. It is single-threaded by design: strip/restore mutates the
// shared document, and each stage depends on the previous stage's
// output, so nothing here may interleave.
type Prober struct {
	resolver ports.ObjectResolver
	refs     ports.ReferenceResolver
	snap     *snapshot.Snapshotter
	logger   *slog.Logger
}

// New returns a prober using the given collaborators.
func New(resolver ports.ObjectResolver, refs ports.ReferenceResolver, snap *snapshot.Snapshotter, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{resolver: resolver, refs: refs, snap: snap, logger: logger}
}

// Probe probes the pipeline rooted at node, reporting through sink.
// It returns true if the node or any wrapped inner node failed.
//
// Inner wrapped nodes are probed first; if any of them failed, the outer
// node is reported as skipped without being instantiated, since no data
// could ever have reached it.
func (p *Prober) Probe(root, node tree.Node, path string, sink ports.Sink) bool {
	target := tree.Target(node)
	name := displayName(target)

	// Wrapped inner node first. Only the first pipeline-node param (in
	// sorted key order) counts as the wrapped source; deeper wrapping is
	// expressed through recursion.
	innerFailed := false
	params := tree.Params(node)
	for _, k := range tree.ParamKeys(node) {
		child, ok := tree.AsPipelineNode(params[k])
		if !ok {
			continue
		}
		innerFailed = p.Probe(root, child, path+".params."+k, sink)
		if !innerFailed {
			sink.Connector("Wrapped by " + name)
		}
		break
	}

	sink.NodeStart(name, target, path)
	defer sink.NodeEnd(path)

	if innerFailed {
		p.logger.Warn("skipping node, inner pipeline failed", slog.String("path", path))
		sink.Skipped("inner dataset pipeline failed")
		return true
	}

	// Extraction must precede stripping: stripping detaches the
	// transforms field the sequence is read from.
	seq, err := stage.Extract(node)
	if err != nil {
		p.initError(sink, path, err)
		return true
	}

	inst, err := p.construct(node, root)
	if err != nil {
		p.initError(sink, path, err)
		return true
	}

	if t, ok := inst.(ports.CacheToggler); ok {
		t.DisableCaching()
	}

	stages, err := p.resolveStages(seq, inst)
	if err != nil {
		p.initError(sink, path, err)
		return true
	}

	entry, err := inst.FetchFirst()
	if err != nil {
		p.initError(sink, path, err)
		return true
	}
	sink.Snapshot(p.snap.Entry(entry, inst.Name(), 0))

	// Fail fast: the first failing stage ends the sequence for this node.
	for i, st := range stages {
		next, err := st.Apply(entry)
		if err != nil {
			p.logger.Warn("stage failed",
				slog.String("path", path),
				slog.String("stage", st.Name()),
				slog.Int("index", i+1),
				slog.String("error", err.Error()))
			sink.StepError(st.Name(), i+1, err.Error(), domain.Traceback(err))
			return true
		}
		entry = next
		sink.Snapshot(p.snap.Entry(entry, st.Name(), i+1))
	}

	return false
}

// construct instantiates the node with side effects stripped, restoring
// the document before returning on every path.
func (p *Prober) construct(node tree.Node, root tree.Node) (ports.Instance, error) {
	token := tree.StripSideEffects(node)
	defer token.Restore()
	return p.resolver.Construct(node, root)
}

// resolveStages turns the extracted sequence into live stages: a
// deferred reference through the reference resolver, an inline list
// through the factory registry, else whatever the live instance itself
// exposes.
func (p *Prober) resolveStages(seq stage.Sequence, inst ports.Instance) ([]ports.Stage, error) {
	switch {
	case seq.Ref != "":
		return p.refs.Resolve(seq.Ref)
	case len(seq.Raw) > 0:
		return stage.CreateAll(seq.Raw)
	default:
		if sp, ok := inst.(ports.StageProvider); ok {
			return sp.Stages(), nil
		}
		return nil, nil
	}
}

func (p *Prober) initError(sink ports.Sink, path string, err error) {
	p.logger.Warn("node instantiation failed",
		slog.String("path", path),
		slog.String("error", err.Error()))
	sink.InitError(err.Error(), domain.Traceback(err))
}

// displayName is the short name of a dotted target identifier.
func displayName(target string) string {
	if i := strings.LastIndex(target, "."); i >= 0 {
		return target[i+1:]
	}
	return target
}
