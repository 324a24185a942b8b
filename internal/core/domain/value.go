// Package domain defines the core data model for pipeline probing:
// runtime values flowing through a pipeline, the entries they compose,
// and the bounded descriptors a probe reports.
package domain

import "fmt"

// Kind is the closed set of runtime value shapes a probe can describe.
// The snapshotter dispatches on Kind instead of open-ended reflection.
type Kind string

const (
	// KindNumericArray is a dense numeric array with a shape and dtype.
	KindNumericArray Kind = "array"
	// KindMapping is a string-keyed mapping of values.
	KindMapping Kind = "mapping"
	// KindSequence is an ordered, possibly heterogeneous list of values.
	KindSequence Kind = "sequence"
	// KindScalar is a text, numeric, or boolean scalar.
	KindScalar Kind = "scalar"
	// KindOpaque is anything the closed variant cannot express.
	KindOpaque Kind = "opaque"
)

// Tensor is the numeric array payload of a KindNumericArray value.
// Data holds a float-cast, row-major view of the elements; DType and
// ElemSize describe the original element type for size accounting.
type Tensor struct {
	Shape    []int
	DType    string
	ElemSize int
	Data     []float64
}

// Len returns the element count implied by the shape.
func (t *Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	if len(t.Shape) == 0 {
		return len(t.Data)
	}
	return n
}

// SizeBytes estimates the in-memory payload size.
func (t *Tensor) SizeBytes() int64 {
	return int64(t.Len()) * int64(t.ElemSize)
}

// Value is one runtime value inside an Entry. Exactly one payload field
// is set, selected by Kind. TypeName carries the qualified runtime type
// name of the producing object; constructors fill in a default.
type Value struct {
	Kind     Kind
	TypeName string

	Tensor *Tensor          // KindNumericArray
	Map    map[string]Value // KindMapping
	Seq    []Value          // KindSequence
	Scalar any              // KindScalar: string, bool, int64, or float64
	Opaque any              // KindOpaque
}

// TensorValue wraps a numeric array.
func TensorValue(t *Tensor) Value {
	return Value{Kind: KindNumericArray, TypeName: "domain.Tensor", Tensor: t}
}

// MapValue wraps a string-keyed mapping.
func MapValue(m map[string]Value) Value {
	return Value{Kind: KindMapping, TypeName: "map[string]domain.Value", Map: m}
}

// SeqValue wraps an ordered sequence.
func SeqValue(s []Value) Value {
	return Value{Kind: KindSequence, TypeName: "[]domain.Value", Seq: s}
}

// ScalarValue wraps a text, numeric, or boolean scalar.
func ScalarValue(v any) Value {
	return Value{Kind: KindScalar, TypeName: fmt.Sprintf("%T", v), Scalar: v}
}

// OpaqueValue wraps a value outside the closed variant.
func OpaqueValue(v any) Value {
	return Value{Kind: KindOpaque, TypeName: fmt.Sprintf("%T", v), Opaque: v}
}
