package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelab/dataprobe/internal/core/domain"
)

func entryWithTensor(key string, data ...float64) domain.Entry {
	e := domain.NewEntry()
	e.Fields[key] = domain.TensorValue(&domain.Tensor{
		Shape:    []int{len(data)},
		DType:    "float64",
		ElemSize: 8,
		Data:     data,
	})
	return e
}

func TestNormalize(t *testing.T) {
	RegisterBuiltins()

	s, err := Create(Config{Target: "stage.normalize"})
	require.NoError(t, err)
	assert.Equal(t, "Normalize", s.Name())

	out, err := s.Apply(entryWithTensor("x", 0, 5, 10))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, out.Fields["x"].Tensor.Data)
}

func TestNormalize_InputUntouched(t *testing.T) {
	RegisterBuiltins()

	in := entryWithTensor("x", 0, 10)
	s, _ := Create(Config{Target: "stage.normalize"})

	_, err := s.Apply(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10}, in.Fields["x"].Tensor.Data)
}

func TestNormalize_MissingFieldFails(t *testing.T) {
	RegisterBuiltins()

	s, err := Create(Config{Target: "stage.normalize", Params: map[string]any{"field": "y"}})
	require.NoError(t, err)

	_, err = s.Apply(entryWithTensor("x", 1, 2))
	assert.Error(t, err)
}

func TestToTensor(t *testing.T) {
	RegisterBuiltins()

	s, err := Create(Config{Target: "stage.totensor"})
	require.NoError(t, err)
	assert.Equal(t, "ToTensor", s.Name())

	e := entryWithTensor("x", 1, 2, 3)
	e.Fields["n"] = domain.ScalarValue(int64(7))

	out, err := s.Apply(e)
	require.NoError(t, err)
	assert.Equal(t, "float32", out.Fields["x"].Tensor.DType)
	assert.Equal(t, 4, out.Fields["x"].Tensor.ElemSize)
	require.Equal(t, domain.KindNumericArray, out.Fields["n"].Kind)
	assert.Equal(t, []float64{7}, out.Fields["n"].Tensor.Data)
}

func TestToTensor_UnknownDType(t *testing.T) {
	RegisterBuiltins()

	_, err := Create(Config{Target: "stage.totensor", Params: map[string]any{"dtype": "complex128"}})
	assert.Error(t, err)
}

func TestRename(t *testing.T) {
	RegisterBuiltins()

	s, err := Create(Config{Target: "stage.rename", Params: map[string]any{"from": "x", "to": "y"}})
	require.NoError(t, err)

	out, err := s.Apply(entryWithTensor("x", 1))
	require.NoError(t, err)
	_, hasOld := out.Fields["x"]
	assert.False(t, hasOld)
	assert.Contains(t, out.Fields, "y")

	_, err = s.Apply(entryWithTensor("z", 1))
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	RegisterBuiltins()

	s, err := Create(Config{Target: "stage.select", Params: map[string]any{"fields": []any{"x"}}})
	require.NoError(t, err)

	e := entryWithTensor("x", 1)
	e.Fields["drop"] = domain.ScalarValue("gone")

	out, err := s.Apply(e)
	require.NoError(t, err)
	assert.Len(t, out.Fields, 1)
	assert.Contains(t, out.Fields, "x")
}

func TestBatch(t *testing.T) {
	RegisterBuiltins()

	s, err := Create(Config{Target: "stage.batch"})
	require.NoError(t, err)

	out, err := s.Apply(entryWithTensor("x", 1, 2, 3))
	require.NoError(t, err)
	assert.True(t, out.Batched)
	assert.Equal(t, []int{1, 3}, out.Fields["x"].Tensor.Shape)
}

func TestCreate_UnknownTarget(t *testing.T) {
	RegisterBuiltins()

	_, err := Create(Config{Target: "stage.bogus"})
	assert.Error(t, err)
}
