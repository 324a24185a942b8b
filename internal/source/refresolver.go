package source

import (
	"github.com/cockroachdb/errors"

	"github.com/forgelab/dataprobe/internal/core/ports"
	"github.com/forgelab/dataprobe/internal/stage"
	"github.com/forgelab/dataprobe/internal/tree"
)

// RefResolver resolves deferred %{...} stage-sequence references against
// the full configuration document. Resolution happens lazily, at apply
// time, after the referring node's own transforms field was detached.
type RefResolver struct {
	root tree.Node
}

// NewRefResolver returns a resolver bound to one document.
func NewRefResolver(root tree.Node) *RefResolver {
	return &RefResolver{root: root}
}

// Resolve locates the referenced list of stage configs and builds each
// stage through the factory registry, preserving order.
func (r *RefResolver) Resolve(path string) ([]ports.Stage, error) {
	v, err := tree.LocateValue(r.root, path)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]any)
	if !ok {
		return nil, errors.Newf("reference %%{%s}: expected a stage list, got %T", path, v)
	}
	cfgs := make([]stage.Config, 0, len(list))
	for i, item := range list {
		cfg, err := stage.ConfigFromNode(item)
		if err != nil {
			return nil, errors.Wrapf(err, "reference %%{%s}[%d]", path, i)
		}
		cfgs = append(cfgs, cfg)
	}
	return stage.CreateAll(cfgs)
}

var _ ports.ReferenceResolver = (*RefResolver)(nil)
