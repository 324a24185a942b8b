// Package tree navigates and reversibly edits hierarchical pipeline
// configuration documents. A document is a plain decoded map; a node
// holding a "target" identifier is instantiable into a live pipeline
// object and may nest further pipeline nodes under its "params".
package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Node is a mutable configuration subtree. The document is owned by the
// caller; any edit made during a probe must be undone before returning.
type Node = map[string]any

// Well-known node keys.
const (
	TargetKey     = "target"
	ParamsKey     = "params"
	TransformsKey = "transforms"
	RecacheKey    = "recache"
	CacheDirKey   = "cache_dir"
	RootKey       = "root"
)

// PathNotFoundError reports a dotted path whose segment does not resolve.
// It is the only probe error that is fatal to the whole run.
type PathNotFoundError struct {
	Path    string
	Segment string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path %q not found: missing segment %q", e.Path, e.Segment)
}

// Locate resolves a dot-separated path by successive key lookup and
// returns the node it names.
func Locate(root Node, path string) (Node, error) {
	v, err := LocateValue(root, path)
	if err != nil {
		return nil, err
	}
	n, ok := v.(map[string]any)
	if !ok {
		return nil, &PathNotFoundError{Path: path, Segment: lastSegment(path)}
	}
	return n, nil
}

// LocateValue resolves a dot-separated path to an arbitrary value, for
// paths naming non-node leaves such as stage-sequence lists.
func LocateValue(root Node, path string) (any, error) {
	var cur any = root
	for _, seg := range strings.Split(path, ".") {
		n, ok := cur.(map[string]any)
		if !ok {
			return nil, &PathNotFoundError{Path: path, Segment: seg}
		}
		cur, ok = n[seg]
		if !ok {
			return nil, &PathNotFoundError{Path: path, Segment: seg}
		}
	}
	return cur, nil
}

// AsPipelineNode reports whether a value is a pipeline node: a mapping
// carrying a target identifier.
func AsPipelineNode(v any) (Node, bool) {
	n, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	if t, ok := n[TargetKey].(string); !ok || t == "" {
		return nil, false
	}
	return n, true
}

// Target returns the node's target identifier, or "".
func Target(n Node) string {
	t, _ := n[TargetKey].(string)
	return t
}

// Params returns the node's params mapping, or nil.
func Params(n Node) Node {
	p, _ := n[ParamsKey].(map[string]any)
	return p
}

// ParamKeys returns the params keys in sorted order, giving wrapped-node
// discovery a deterministic iteration order.
func ParamKeys(n Node) []string {
	params := Params(n)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
