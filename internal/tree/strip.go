package tree

// UndoToken captures the exact params mutations made by StripSideEffects
// so Restore can reverse them field for field. Restore must run on every
// exit path, including failed instantiation: the document belongs to the
// caller and must never be left in a stripped state.
type UndoToken struct {
	ops []undoOp
}

type undoOp struct {
	params  Node
	key     string
	prior   any
	existed bool
}

// StripSideEffects neutralizes destructive-on-construct options within
// the node's own params: forced-recache flags are switched off, cache
// directory pointers are detached, and the stage-sequence field is
// removed so instantiation does not implicitly apply any stage.
//
// Nested pipeline nodes are not touched here; each is stripped
// independently by the prober immediately before its own instantiation.
// The stage sequence must be extracted before stripping, since stripping
// destroys the field's original value.
func StripSideEffects(n Node) *UndoToken {
	t := &UndoToken{}
	params := Params(n)
	if params == nil {
		return t
	}
	if _, ok := params[RecacheKey]; ok {
		t.set(params, RecacheKey, false)
	}
	if _, ok := params[CacheDirKey]; ok {
		t.remove(params, CacheDirKey)
	}
	if _, ok := params[TransformsKey]; ok {
		t.remove(params, TransformsKey)
	}
	return t
}

// Restore reverses the captured mutations in reverse order.
func (t *UndoToken) Restore() {
	for i := len(t.ops) - 1; i >= 0; i-- {
		op := t.ops[i]
		if op.existed {
			op.params[op.key] = op.prior
		} else {
			delete(op.params, op.key)
		}
	}
	t.ops = nil
}

func (t *UndoToken) set(params Node, key string, v any) {
	prior, existed := params[key]
	t.ops = append(t.ops, undoOp{params: params, key: key, prior: prior, existed: existed})
	params[key] = v
}

func (t *UndoToken) remove(params Node, key string) {
	prior, existed := params[key]
	if !existed {
		return
	}
	t.ops = append(t.ops, undoOp{params: params, key: key, prior: prior, existed: true})
	delete(params, key)
}
