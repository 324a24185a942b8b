package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGo_NumericListBecomesTensor(t *testing.T) {
	v := FromGo([]any{1, 2.5, 3})
	require.Equal(t, KindNumericArray, v.Kind)
	require.NotNil(t, v.Tensor)
	assert.Equal(t, []int{3}, v.Tensor.Shape)
	assert.Equal(t, []float64{1, 2.5, 3}, v.Tensor.Data)
	assert.Equal(t, "float64", v.Tensor.DType)
}

func TestFromGo_MixedListBecomesSequence(t *testing.T) {
	v := FromGo([]any{1, "two", 3})
	require.Equal(t, KindSequence, v.Kind)
	require.Len(t, v.Seq, 3)
	assert.Equal(t, KindScalar, v.Seq[1].Kind)
}

func TestFromGo_EmptyListIsSequence(t *testing.T) {
	v := FromGo([]any{})
	assert.Equal(t, KindSequence, v.Kind)
	assert.Empty(t, v.Seq)
}

func TestFromGo_Mapping(t *testing.T) {
	v := FromGo(map[string]any{"a": 1, "b": "x"})
	require.Equal(t, KindMapping, v.Kind)
	assert.Equal(t, KindScalar, v.Map["a"].Kind)
	assert.Equal(t, KindScalar, v.Map["b"].Kind)
}

func TestFromGo_Opaque(t *testing.T) {
	v := FromGo(struct{ X int }{1})
	assert.Equal(t, KindOpaque, v.Kind)
}

func TestEntryFromGo(t *testing.T) {
	e := EntryFromGo(map[string]any{"pixels": []any{0, 128, 255}, "label": 3})
	assert.Equal(t, []string{"label", "pixels"}, e.Keys())
	assert.Equal(t, KindNumericArray, e.Fields["pixels"].Kind)
	assert.False(t, e.Batched)
}

func TestEntryClone_Independent(t *testing.T) {
	e := EntryFromGo(map[string]any{"a": 1})
	c := e.Clone()
	c.Fields["b"] = ScalarValue(2)
	assert.NotContains(t, e.Fields, "b")
}

func TestTensor_LenAndSize(t *testing.T) {
	tr := &Tensor{Shape: []int{2, 3}, DType: "float32", ElemSize: 4, Data: make([]float64, 6)}
	assert.Equal(t, 6, tr.Len())
	assert.Equal(t, int64(24), tr.SizeBytes())
}
