package stage

import (
	"github.com/cockroachdb/errors"

	"github.com/forgelab/dataprobe/internal/core/domain"
	"github.com/forgelab/dataprobe/internal/core/ports"
)

// RegisterBuiltins registers the built-in transform stages. Call once
// from main or test setup.
func RegisterBuiltins() {
	if IsRegistered("stage.normalize") {
		return
	}
	RegisterFactory("stage.normalize", newNormalize)
	RegisterFactory("stage.totensor", newToTensor)
	RegisterFactory("stage.rename", newRename)
	RegisterFactory("stage.select", newSelect)
	RegisterFactory("stage.batch", newBatch)
}

// normalizeStage rescales tensor fields to the [0, 1] range.
type normalizeStage struct {
	field string // empty = every tensor field
}

func newNormalize(params map[string]any) (ports.Stage, error) {
	field, _ := params["field"].(string)
	return &normalizeStage{field: field}, nil
}

func (s *normalizeStage) Name() string { return "Normalize" }

func (s *normalizeStage) Apply(e domain.Entry) (domain.Entry, error) {
	out := e.Clone()
	touched := false
	for k, v := range e.Fields {
		if s.field != "" && k != s.field {
			continue
		}
		if v.Kind != domain.KindNumericArray || v.Tensor == nil {
			continue
		}
		out.Fields[k] = domain.TensorValue(normalizeTensor(v.Tensor))
		touched = true
	}
	if s.field != "" && !touched {
		return domain.Entry{}, errors.Newf("normalize: field %q is not a numeric array", s.field)
	}
	return out, nil
}

func normalizeTensor(t *domain.Tensor) *domain.Tensor {
	data := make([]float64, len(t.Data))
	if len(t.Data) > 0 {
		lo, hi := t.Data[0], t.Data[0]
		for _, x := range t.Data {
			if x < lo {
				lo = x
			}
			if x > hi {
				hi = x
			}
		}
		if hi > lo {
			for i, x := range t.Data {
				data[i] = (x - lo) / (hi - lo)
			}
		}
	}
	return &domain.Tensor{Shape: append([]int(nil), t.Shape...), DType: "float64", ElemSize: 8, Data: data}
}

// toTensorStage converts numeric sequences and scalars into tensors of
// the configured dtype.
type toTensorStage struct {
	dtype string
}

func newToTensor(params map[string]any) (ports.Stage, error) {
	dtype, _ := params["dtype"].(string)
	if dtype == "" {
		dtype = "float32"
	}
	if dtypeSize(dtype) == 0 {
		return nil, errors.Newf("totensor: unknown dtype %q", dtype)
	}
	return &toTensorStage{dtype: dtype}, nil
}

func (s *toTensorStage) Name() string { return "ToTensor" }

func (s *toTensorStage) Apply(e domain.Entry) (domain.Entry, error) {
	out := e.Clone()
	for k, v := range e.Fields {
		switch v.Kind {
		case domain.KindNumericArray:
			t := v.Tensor
			out.Fields[k] = domain.TensorValue(&domain.Tensor{
				Shape:    append([]int(nil), t.Shape...),
				DType:    s.dtype,
				ElemSize: dtypeSize(s.dtype),
				Data:     append([]float64(nil), t.Data...),
			})
		case domain.KindScalar:
			if f, ok := scalarFloat(v.Scalar); ok {
				out.Fields[k] = domain.TensorValue(&domain.Tensor{
					Shape:    []int{1},
					DType:    s.dtype,
					ElemSize: dtypeSize(s.dtype),
					Data:     []float64{f},
				})
			}
		}
	}
	return out, nil
}

// renameStage moves one field to a new name. Fails if the source field
// is absent.
type renameStage struct {
	from, to string
}

func newRename(params map[string]any) (ports.Stage, error) {
	from, _ := params["from"].(string)
	to, _ := params["to"].(string)
	if from == "" || to == "" {
		return nil, errors.New("rename: params from and to are required")
	}
	return &renameStage{from: from, to: to}, nil
}

func (s *renameStage) Name() string { return "Rename" }

func (s *renameStage) Apply(e domain.Entry) (domain.Entry, error) {
	v, ok := e.Fields[s.from]
	if !ok {
		return domain.Entry{}, errors.Newf("rename: entry has no field %q", s.from)
	}
	out := e.Clone()
	delete(out.Fields, s.from)
	out.Fields[s.to] = v
	return out, nil
}

// selectStage keeps only the named fields.
type selectStage struct {
	fields []string
}

func newSelect(params map[string]any) (ports.Stage, error) {
	raw, _ := params["fields"].([]any)
	if len(raw) == 0 {
		return nil, errors.New("select: params fields is required")
	}
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		name, ok := f.(string)
		if !ok {
			return nil, errors.Newf("select: field name must be a string, got %T", f)
		}
		fields = append(fields, name)
	}
	return &selectStage{fields: fields}, nil
}

func (s *selectStage) Name() string { return "Select" }

func (s *selectStage) Apply(e domain.Entry) (domain.Entry, error) {
	out := domain.NewEntry()
	out.Batched = e.Batched
	for _, f := range s.fields {
		if v, ok := e.Fields[f]; ok {
			out.Fields[f] = v
		}
	}
	return out, nil
}

// batchStage prefixes a leading batch dimension of 1 to every tensor
// field and marks the entry as batched.
type batchStage struct{}

func newBatch(map[string]any) (ports.Stage, error) {
	return &batchStage{}, nil
}

func (s *batchStage) Name() string { return "Batch" }

func (s *batchStage) Apply(e domain.Entry) (domain.Entry, error) {
	out := e.Clone()
	for k, v := range e.Fields {
		if v.Kind != domain.KindNumericArray || v.Tensor == nil {
			continue
		}
		t := v.Tensor
		out.Fields[k] = domain.TensorValue(&domain.Tensor{
			Shape:    append([]int{1}, t.Shape...),
			DType:    t.DType,
			ElemSize: t.ElemSize,
			Data:     append([]float64(nil), t.Data...),
		})
	}
	out.Batched = true
	return out, nil
}

func dtypeSize(dtype string) int {
	switch dtype {
	case "float64", "int64":
		return 8
	case "float32", "int32":
		return 4
	case "int16":
		return 2
	case "int8", "uint8", "bool":
		return 1
	default:
		return 0
	}
}

func scalarFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
