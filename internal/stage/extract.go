// Package stage extracts, registers, and builds transform stages for
// pipeline nodes.
package stage

import (
	"regexp"

	"github.com/cockroachdb/errors"

	"github.com/forgelab/dataprobe/internal/tree"
)

// Sequence is the stage list configured on one pipeline node. At most
// one of Ref and Raw is set: Ref defers resolution of a symbolic
// reference to apply time, Raw holds inline stage configs to be built
// individually through the factory registry.
type Sequence struct {
	Ref string
	Raw []Config
}

// Empty reports whether the node configured no stages at all.
func (s Sequence) Empty() bool {
	return s.Ref == "" && len(s.Raw) == 0
}

// Config is one inline stage configuration: a target identifier plus
// construction parameters.
type Config struct {
	Target string
	Params map[string]any
}

// refPattern matches the %{dotted.path} reference marker syntax.
var refPattern = regexp.MustCompile(`^%\{([^}]+)\}$`)

// Extract determines a node's stage sequence from the transforms field
// on the node itself or inside its params. It must run before
// StripSideEffects, which detaches the field.
func Extract(node tree.Node) (Sequence, error) {
	raw, ok := node[tree.TransformsKey]
	if !ok {
		if params := tree.Params(node); params != nil {
			raw, ok = params[tree.TransformsKey]
		}
	}
	if !ok || raw == nil {
		return Sequence{}, nil
	}

	if s, isStr := raw.(string); isStr {
		m := refPattern.FindStringSubmatch(s)
		if m == nil {
			return Sequence{}, errors.Newf("transforms: %q is not a %%{path} reference", s)
		}
		return Sequence{Ref: m[1]}, nil
	}

	list, isList := raw.([]any)
	if !isList {
		return Sequence{}, errors.Newf("transforms: expected a list or reference, got %T", raw)
	}
	seq := Sequence{Raw: make([]Config, 0, len(list))}
	for i, item := range list {
		cfg, err := ConfigFromNode(item)
		if err != nil {
			return Sequence{}, errors.Wrapf(err, "transforms[%d]", i)
		}
		seq.Raw = append(seq.Raw, cfg)
	}
	return seq, nil
}

// ConfigFromNode converts one decoded stage entry into a Config.
func ConfigFromNode(v any) (Config, error) {
	n, ok := v.(map[string]any)
	if !ok {
		return Config{}, errors.Newf("expected a stage config mapping, got %T", v)
	}
	target := tree.Target(n)
	if target == "" {
		return Config{}, errors.New("stage config has no target")
	}
	return Config{Target: target, Params: tree.Params(n)}, nil
}
