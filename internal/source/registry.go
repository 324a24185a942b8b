// Package source provides the pipeline-source side of the probe: a
// factory registry of source implementations, the object resolver that
// turns configuration nodes into live instances, and the resolver for
// deferred stage-sequence references.
package source

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/forgelab/dataprobe/internal/core/ports"
	"github.com/forgelab/dataprobe/internal/tree"
)

// Env is handed to source factories: access to the full document for
// cross-references, the resolver for nested pipeline params, and the
// search roots for relative file references.
type Env struct {
	Root        tree.Node
	Resolver    ports.ObjectResolver
	SearchRoots []string
}

// ResolvePath returns the first existing file under the search roots for
// a relative path, or the path unchanged.
func (e Env) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	for _, root := range e.SearchRoots {
		candidate := filepath.Join(root, p)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return p
}

// Factory builds one live source instance from its params.
type Factory func(params map[string]any, env Env) (ports.Instance, error)

var (
	factoryMu  sync.RWMutex
	factoryMap = make(map[string]Factory)
)

// RegisterFactory registers a source factory for a target identifier.
// Panics if the target is empty or already registered.
func RegisterFactory(target string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if target == "" {
		panic("source factory target cannot be empty")
	}
	if f == nil {
		panic("source factory for " + target + " cannot be nil")
	}
	if _, exists := factoryMap[target]; exists {
		panic("source factory " + target + " already registered")
	}
	factoryMap[target] = f
}

func getFactory(target string) (Factory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	f, ok := factoryMap[target]
	return f, ok
}

// ListTargets returns all registered source targets, sorted.
func ListTargets() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	targets := make([]string, 0, len(factoryMap))
	for t := range factoryMap {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// IsRegistered reports whether a source target has a factory.
func IsRegistered(target string) bool {
	_, ok := getFactory(target)
	return ok
}

// ClearFactories removes all registered factories (for testing only).
func ClearFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factoryMap = make(map[string]Factory)
}

// Resolver implements ports.ObjectResolver over the factory registry.
type Resolver struct {
	searchRoots []string
}

// NewResolver returns a resolver using the given search roots for
// relative file references in source params.
func NewResolver(searchRoots []string) *Resolver {
	return &Resolver{searchRoots: searchRoots}
}

// Construct builds the live instance for one pipeline node.
func (r *Resolver) Construct(node, root map[string]any) (ports.Instance, error) {
	target := tree.Target(node)
	if target == "" {
		return nil, errors.New("node has no target")
	}
	f, ok := getFactory(target)
	if !ok {
		return nil, errors.Newf("unknown source target: %s (registered: %v)", target, ListTargets())
	}
	inst, err := f(tree.Params(node), Env{Root: root, Resolver: r, SearchRoots: r.searchRoots})
	if err != nil {
		return nil, errors.Wrapf(err, "construct %s", target)
	}
	return inst, nil
}

var _ ports.ObjectResolver = (*Resolver)(nil)
