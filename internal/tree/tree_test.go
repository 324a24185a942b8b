package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() Node {
	return Node{
		"data": map[string]any{
			"train": map[string]any{
				"target": "source.cached",
				"params": map[string]any{
					"root":      "/old/path",
					"recache":   true,
					"cache_dir": "/tmp/cache",
					"transforms": []any{
						map[string]any{"target": "stage.normalize"},
					},
					"source": map[string]any{
						"target": "source.jsonl",
						"params": map[string]any{
							"root": "/old/path",
						},
					},
				},
			},
		},
	}
}

func TestLocate(t *testing.T) {
	doc := sampleDoc()

	node, err := Locate(doc, "data.train")
	require.NoError(t, err)
	assert.Equal(t, "source.cached", Target(node))

	inner, err := Locate(doc, "data.train.params.source")
	require.NoError(t, err)
	assert.Equal(t, "source.jsonl", Target(inner))
}

func TestLocate_PathNotFound(t *testing.T) {
	doc := sampleDoc()

	_, err := Locate(doc, "data.test")
	require.Error(t, err)

	var notFound *PathNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "data.test", notFound.Path)
	assert.Equal(t, "test", notFound.Segment)
}

func TestLocate_ScalarSegment(t *testing.T) {
	doc := sampleDoc()

	// Descending through a scalar value fails rather than panics.
	_, err := Locate(doc, "data.train.params.root.deeper")
	var notFound *PathNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestAsPipelineNode(t *testing.T) {
	_, ok := AsPipelineNode(map[string]any{"target": "source.jsonl"})
	assert.True(t, ok)

	_, ok = AsPipelineNode(map[string]any{"params": map[string]any{}})
	assert.False(t, ok)

	_, ok = AsPipelineNode("not a node")
	assert.False(t, ok)

	_, ok = AsPipelineNode(map[string]any{"target": ""})
	assert.False(t, ok)
}

func TestApplyOverrides(t *testing.T) {
	doc := sampleDoc()
	node, err := Locate(doc, "data.train")
	require.NoError(t, err)

	ApplyOverrides(node, map[string]string{"/old/path": "/new/path"})

	assert.Equal(t, "/new/path", Params(node)["root"])

	// Nested pipeline nodes are rewritten too.
	inner, err := Locate(doc, "data.train.params.source")
	require.NoError(t, err)
	assert.Equal(t, "/new/path", Params(inner)["root"])
}

func TestApplyOverrides_NoMatch(t *testing.T) {
	doc := sampleDoc()
	node, _ := Locate(doc, "data.train")

	ApplyOverrides(node, map[string]string{"/other/path": "/new/path"})
	assert.Equal(t, "/old/path", Params(node)["root"])

	// Empty mapping is a no-op.
	want := sampleDoc()
	ApplyOverrides(node, nil)
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document changed by empty overrides (-want +got):\n%s", diff)
	}
}

func TestStripSideEffects(t *testing.T) {
	doc := sampleDoc()
	node, _ := Locate(doc, "data.train")

	token := StripSideEffects(node)
	params := Params(node)

	assert.Equal(t, false, params["recache"])
	_, hasCacheDir := params["cache_dir"]
	assert.False(t, hasCacheDir)
	_, hasTransforms := params["transforms"]
	assert.False(t, hasTransforms)

	// Nested pipeline nodes are stripped independently, not here.
	inner, _ := Locate(doc, "data.train.params.source")
	assert.Equal(t, "/old/path", Params(inner)["root"])

	token.Restore()
}

func TestStripRestore_RoundTrip(t *testing.T) {
	doc := sampleDoc()
	want := sampleDoc()
	node, _ := Locate(doc, "data.train")

	token := StripSideEffects(node)
	token.Restore()

	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("restore did not reverse strip (-want +got):\n%s", diff)
	}
}

func TestStripRestore_NoParams(t *testing.T) {
	node := Node{"target": "source.jsonl"}
	token := StripSideEffects(node)
	token.Restore()

	if diff := cmp.Diff(Node{"target": "source.jsonl"}, node); diff != "" {
		t.Errorf("node changed (-want +got):\n%s", diff)
	}
}

func TestRestore_Idempotent(t *testing.T) {
	doc := sampleDoc()
	want := sampleDoc()
	node, _ := Locate(doc, "data.train")

	token := StripSideEffects(node)
	token.Restore()
	token.Restore()

	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("second restore corrupted document (-want +got):\n%s", diff)
	}
}

func TestParamKeys_Sorted(t *testing.T) {
	node := Node{
		"target": "x",
		"params": map[string]any{"b": 1, "a": 2, "c": 3},
	}
	assert.Equal(t, []string{"a", "b", "c"}, ParamKeys(node))
}
