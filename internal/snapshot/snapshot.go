// Package snapshot summarizes arbitrary runtime values into bounded,
// serializable descriptors. Summarization is pure and never fails: a
// statistic that cannot be computed is simply left absent.
package snapshot

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/forgelab/dataprobe/internal/core/domain"
)

// Caps bound descriptor size and recursion on adversarially large
// structures. They are configuration, not magic numbers at call sites.
type Caps struct {
	// MaxDepth is the number of container levels summarized below a
	// top-level entry field.
	MaxDepth int
	// MaxChildren is the per-container breadth cap. Sequences beyond it
	// are truncated with a "more" sentinel child; mappings beyond it get
	// no children at all.
	MaxChildren int
	// PreviewElems is how many flattened array elements a preview shows.
	PreviewElems int
	// MaxOpaqueLen truncates the generic rendering of opaque values.
	MaxOpaqueLen int
}

// DefaultCaps returns the standard bounds.
func DefaultCaps() Caps {
	return Caps{MaxDepth: 2, MaxChildren: 200, PreviewElems: 8, MaxOpaqueLen: 100}
}

// Snapshotter builds descriptors and step snapshots under fixed caps.
type Snapshotter struct {
	caps Caps
}

// New returns a snapshotter with the given caps.
func New(caps Caps) *Snapshotter {
	return &Snapshotter{caps: caps}
}

// Entry captures the state of an entry's fields at one pipeline step.
// Fields are summarized in sorted key order.
func (s *Snapshotter) Entry(e domain.Entry, label string, index int) *domain.StepSnapshot {
	keys := e.Keys()
	fields := make([]domain.Descriptor, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, s.Value(e.Fields[k], k))
	}
	return &domain.StepSnapshot{
		StepLabel: label,
		StepIndex: index,
		Fields:    fields,
		IsBatched: e.Batched,
	}
}

// Value summarizes one value. It never panics: an unexpected failure
// degrades to a bare descriptor with only the key and type name.
func (s *Snapshotter) Value(v domain.Value, key string) (d domain.Descriptor) {
	defer func() {
		if r := recover(); r != nil {
			d = domain.Descriptor{Key: key, TypeName: v.TypeName}
		}
	}()
	return s.value(v, key, s.caps.MaxDepth)
}

func (s *Snapshotter) value(v domain.Value, key string, depth int) domain.Descriptor {
	d := domain.Descriptor{Key: key, TypeName: v.TypeName}

	switch v.Kind {
	case domain.KindNumericArray:
		s.describeTensor(&d, v.Tensor)

	case domain.KindMapping:
		d.Preview = strp(fmt.Sprintf("map(%d keys)", len(v.Map)))
		if total := tensorBytes(mapValues(v.Map)); total > 0 {
			d.SizeBytes = &total
		}
		if depth > 0 && len(v.Map) <= s.caps.MaxChildren {
			for _, k := range sortedKeys(v.Map) {
				d.Children = append(d.Children, s.value(v.Map[k], k, depth-1))
			}
		}

	case domain.KindSequence:
		d.Preview = strp(fmt.Sprintf("%s(len=%d)", v.TypeName, len(v.Seq)))
		if total := tensorBytes(v.Seq); total > 0 {
			d.SizeBytes = &total
		}
		s.describeTensorSeq(&d, v.Seq)
		if depth > 0 {
			limit := len(v.Seq)
			if limit > s.caps.MaxChildren {
				limit = s.caps.MaxChildren
			}
			for i := 0; i < limit; i++ {
				d.Children = append(d.Children, s.value(v.Seq[i], fmt.Sprintf("[%d]", i), depth-1))
			}
			if len(v.Seq) > limit {
				d.Children = append(d.Children, domain.Descriptor{
					Key: fmt.Sprintf("... %d more", len(v.Seq)-limit),
				})
			}
		}

	case domain.KindScalar:
		d.Preview = strp(scalarPreview(v.Scalar))

	default:
		d.Preview = strp(truncate(fmt.Sprintf("%v", v.Opaque), s.caps.MaxOpaqueLen))
	}

	return d
}

func (s *Snapshotter) describeTensor(d *domain.Descriptor, t *domain.Tensor) {
	if t == nil {
		return
	}
	d.Shape = strp(shapeString(t.Shape))
	d.DType = strp(t.DType)
	size := t.SizeBytes()
	d.SizeBytes = &size
	if len(t.Data) > 0 {
		setStats(d, t.Data)
	}
	d.Preview = strp(previewString(t.Data, s.caps.PreviewElems))
}

// describeTensorSeq adds aggregate stats for homogeneous tensor
// sequences, with the element count prefixed to the shape.
func (s *Snapshotter) describeTensorSeq(d *domain.Descriptor, seq []domain.Value) {
	if len(seq) == 0 {
		return
	}
	for _, v := range seq {
		if v.Kind != domain.KindNumericArray || v.Tensor == nil {
			return
		}
	}
	first := seq[0].Tensor
	d.Shape = strp(fmt.Sprintf("[%dx%s]", len(seq), shapeString(first.Shape)))
	var all []float64
	for _, v := range seq {
		all = append(all, v.Tensor.Data...)
	}
	if len(all) > 0 {
		setStats(d, all)
	}
}

func setStats(d *domain.Descriptor, data []float64) {
	min, max := data[0], data[0]
	var sum float64
	for _, x := range data {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
		sum += x
	}
	mean := sum / float64(len(data))
	var sq float64
	for _, x := range data {
		sq += (x - mean) * (x - mean)
	}
	std := math.Sqrt(sq / float64(len(data)))

	d.MinValue = strp(formatStat(min))
	d.MaxValue = strp(formatStat(max))
	d.MeanValue = strp(formatStat(mean))
	d.StdValue = strp(formatStat(std))
}

func formatStat(x float64) string {
	return fmt.Sprintf("%.6g", x)
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func previewString(data []float64, n int) string {
	if len(data) < n {
		n = len(data)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = strconv.FormatFloat(data[i], 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func scalarPreview(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}

func tensorBytes(values []domain.Value) int64 {
	var total int64
	for _, v := range values {
		if v.Kind == domain.KindNumericArray && v.Tensor != nil {
			total += v.Tensor.SizeBytes()
		}
	}
	return total
}

func mapValues(m map[string]domain.Value) []domain.Value {
	out := make([]domain.Value, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func sortedKeys(m map[string]domain.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func strp(s string) *string {
	return &s
}
