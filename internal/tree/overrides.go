package tree

// ApplyOverrides rewrites "root" params whose current value matches an
// override key, descending into nested pipeline nodes. The node is
// mutated in place; an empty override mapping is a no-op. Unlike the
// strip/restore edits, overrides are requested by the caller and stay.
func ApplyOverrides(n Node, overrides map[string]string) {
	if len(overrides) == 0 {
		return
	}
	params := Params(n)
	if params == nil {
		return
	}
	if cur, ok := params[RootKey].(string); ok {
		if repl, ok := overrides[cur]; ok {
			params[RootKey] = repl
		}
	}
	for _, k := range ParamKeys(n) {
		if child, ok := AsPipelineNode(params[k]); ok {
			ApplyOverrides(child, overrides)
		}
	}
}
