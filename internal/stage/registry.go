package stage

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/forgelab/dataprobe/internal/core/ports"
)

// Factory builds one stage from its construction parameters.
type Factory func(params map[string]any) (ports.Stage, error)

// Factory registry: global registration of stage factories keyed by
// target identifier. Registration is explicit (wired from cmd or tests)
// rather than via init() side effects.
var (
	factoryMu  sync.RWMutex
	factoryMap = make(map[string]Factory)
)

// RegisterFactory registers a stage factory for a target identifier.
// Panics if the target is empty or already registered.
func RegisterFactory(target string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if target == "" {
		panic("stage factory target cannot be empty")
	}
	if f == nil {
		panic("stage factory for " + target + " cannot be nil")
	}
	if _, exists := factoryMap[target]; exists {
		panic("stage factory " + target + " already registered")
	}
	factoryMap[target] = f
}

// Create builds one stage from an inline config via its registered factory.
func Create(cfg Config) (ports.Stage, error) {
	factoryMu.RLock()
	f, ok := factoryMap[cfg.Target]
	factoryMu.RUnlock()
	if !ok {
		return nil, errors.Newf("unknown stage target: %s (registered: %v)", cfg.Target, ListTargets())
	}
	s, err := f(cfg.Params)
	if err != nil {
		return nil, errors.Wrapf(err, "build stage %s", cfg.Target)
	}
	return s, nil
}

// CreateAll builds every stage of an inline sequence, in order.
func CreateAll(cfgs []Config) ([]ports.Stage, error) {
	stages := make([]ports.Stage, 0, len(cfgs))
	for _, cfg := range cfgs {
		s, err := Create(cfg)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, nil
}

// ListTargets returns all registered stage targets, sorted.
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

// IsRegistered reports whether a stage target has a factory.
func IsRegistered(target string) bool {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	_, ok := factoryMap[target]
	return ok
}

// ClearFactories removes all registered factories (for testing only).
func ClearFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factoryMap = make(map[string]Factory)
}
