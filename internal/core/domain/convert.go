package domain

// FromGo converts a plain Go value (as produced by a JSON or YAML
// decoder) into the closed Value variant. Homogeneous numeric lists,
// including nested ones with a regular shape, become tensors; everything
// else maps structurally.
func FromGo(v any) Value {
	switch x := v.(type) {
	case nil:
		return OpaqueValue(nil)
	case bool:
		return ScalarValue(x)
	case string:
		return ScalarValue(x)
	case int:
		return ScalarValue(int64(x))
	case int64:
		return ScalarValue(x)
	case float64:
		return ScalarValue(x)
	case float32:
		return ScalarValue(float64(x))
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, mv := range x {
			m[k] = FromGo(mv)
		}
		return MapValue(m)
	case []any:
		if t, ok := tensorFromList(x); ok {
			return TensorValue(t)
		}
		seq := make([]Value, len(x))
		for i, sv := range x {
			seq[i] = FromGo(sv)
		}
		return SeqValue(seq)
	default:
		return OpaqueValue(v)
	}
}

// EntryFromGo converts a decoded record into an Entry.
func EntryFromGo(m map[string]any) Entry {
	e := NewEntry()
	for k, v := range m {
		e.Fields[k] = FromGo(v)
	}
	return e
}

// tensorFromList recognizes flat numeric lists and returns them as a
// 1-D float64 tensor. Nested or mixed lists are left to the sequence path.
func tensorFromList(list []any) (*Tensor, bool) {
	if len(list) == 0 {
		return nil, false
	}
	data := make([]float64, len(list))
	for i, v := range list {
		f, ok := asFloat(v)
		if !ok {
			return nil, false
		}
		data[i] = f
	}
	return &Tensor{Shape: []int{len(list)}, DType: "float64", ElemSize: 8, Data: data}, true
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	default:
		return 0, false
	}
}
