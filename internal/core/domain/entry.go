package domain

import "sort"

// Entry is one record flowing through a pipeline: a key-addressable
// mapping of field names to runtime values. Stages consume an Entry and
// produce a new one rather than mutating in place.
type Entry struct {
	Fields  map[string]Value
	Batched bool
}

// NewEntry returns an empty entry.
func NewEntry() Entry {
	return Entry{Fields: make(map[string]Value)}
}

// Keys returns the field names in sorted order, for deterministic
// snapshots and tests.
func (e Entry) Keys() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy with an independent field map, so a stage
// can add or replace fields without touching its input.
func (e Entry) Clone() Entry {
	out := Entry{Fields: make(map[string]Value, len(e.Fields)), Batched: e.Batched}
	for k, v := range e.Fields {
		out.Fields[k] = v
	}
	return out
}
