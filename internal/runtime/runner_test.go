package runtime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelab/dataprobe/internal/config"
	"github.com/forgelab/dataprobe/internal/report"
	"github.com/forgelab/dataprobe/internal/source"
	"github.com/forgelab/dataprobe/internal/stage"
)

func TestMain(m *testing.M) {
	source.RegisterBuiltins()
	stage.RegisterBuiltins()
	os.Exit(m.Run())
}

const simpleDoc = `
data:
  simple:
    target: source.inline
    params:
      records:
        - pixels: [0.0, 128.0, 255.0]
          label: 3
      transforms:
        - target: stage.normalize
        - target: stage.batch
`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunReport(t *testing.T) {
	req := &config.Request{
		ConfigPath:  writeDoc(t, simpleDoc),
		DatasetPath: "data.simple",
	}

	resp := New().RunReport(context.Background(), req)

	require.True(t, resp.Success, "unexpected failure: %s", resp.ErrorMessage)
	assert.NotEmpty(t, resp.ProbeID)
	assert.Empty(t, resp.ErrorMessage)

	result := resp.Result
	require.NotNil(t, result)
	assert.Equal(t, "inline", result.DatasetName)
	assert.Equal(t, "source.inline", result.DatasetTarget)
	assert.Equal(t, "data.simple", result.DatasetPath)
	assert.False(t, result.Failed())

	require.Len(t, result.Snapshots, 3)
	assert.Equal(t, "InlineSource", result.Snapshots[0].StepLabel)
	assert.Equal(t, "Normalize", result.Snapshots[1].StepLabel)
	assert.Equal(t, "Batch", result.Snapshots[2].StepLabel)
	assert.True(t, result.Snapshots[2].IsBatched)
}

func TestRun_UnknownDatasetPathIsFatal(t *testing.T) {
	req := &config.Request{
		ConfigPath:  writeDoc(t, simpleDoc),
		DatasetPath: "data.missing",
	}

	resp := New().RunReport(context.Background(), req)

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Result)
	assert.Contains(t, resp.ErrorMessage, "data.missing")
	assert.NotEmpty(t, resp.ErrorTraceback)
}

func TestRun_UnreadableDocumentIsFatal(t *testing.T) {
	req := &config.Request{
		ConfigPath:  filepath.Join(t.TempDir(), "absent.yaml"),
		DatasetPath: "data.simple",
	}

	resp := New().RunReport(context.Background(), req)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.ErrorMessage)
}

func TestRun_InvalidRequestIsFatal(t *testing.T) {
	resp := New().RunReport(context.Background(), &config.Request{})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.ErrorMessage, "config_path")
}

func TestRun_PathOverrideApplied(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "records.jsonl")
	require.NoError(t, os.WriteFile(data, []byte(`{"label": 7}`+"\n"), 0o644))

	doc := `
data:
  files:
    target: source.jsonl
    params:
      root: /nonexistent/records.jsonl
`
	req := &config.Request{
		ConfigPath:    writeDoc(t, doc),
		DatasetPath:   "data.files",
		PathOverrides: map[string]string{"/nonexistent/records.jsonl": data},
	}

	resp := New().RunReport(context.Background(), req)

	require.True(t, resp.Success, "unexpected failure: %s", resp.ErrorMessage)
	require.NotNil(t, resp.Result)
	assert.False(t, resp.Result.Failed(), "override should point the source at the real file")
	require.Len(t, resp.Result.Snapshots, 1)
	assert.Equal(t, "JSONLSource", resp.Result.Snapshots[0].StepLabel)
}

func TestRun_NodeFailureIsStillSuccess(t *testing.T) {
	doc := `
data:
  broken:
    target: source.inline
    params: {}
`
	req := &config.Request{
		ConfigPath:  writeDoc(t, doc),
		DatasetPath: "data.broken",
	}

	resp := New().RunReport(context.Background(), req)

	// Node-level init errors are data in the result, not fatal failures.
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.True(t, resp.Result.Failed())
	require.Len(t, resp.Result.Snapshots, 1)
	assert.Contains(t, resp.Result.Snapshots[0].ErrorMessage, "records is required")
}

func TestRun_StreamSinkEmitsEvents(t *testing.T) {
	req := &config.Request{
		ConfigPath:  writeDoc(t, simpleDoc),
		DatasetPath: "data.simple",
	}

	var buf bytes.Buffer
	resp := New().Run(context.Background(), req, report.NewStreamSink(&buf, ""))
	require.True(t, resp.Success)
	assert.Nil(t, resp.Result, "streaming mode carries results in the events, not the response")

	var types []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var ev struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		types = append(types, ev.Type)
	}
	require.NoError(t, sc.Err())

	assert.Equal(t, []string{
		report.EventDatasetStart,
		report.EventSnapshot,
		report.EventSnapshot,
		report.EventSnapshot,
		report.EventDatasetEnd,
		report.EventComplete,
	}, types)
}

func TestRun_WrappedPipeline(t *testing.T) {
	doc := `
data:
  cached:
    target: source.cached
    params:
      source:
        target: source.inline
        params:
          records:
            - label: 1
`
	req := &config.Request{
		ConfigPath:  writeDoc(t, doc),
		DatasetPath: "data.cached",
	}

	resp := New().RunReport(context.Background(), req)

	require.True(t, resp.Success, "unexpected failure: %s", resp.ErrorMessage)
	result := resp.Result
	require.NotNil(t, result)
	assert.Equal(t, "cached", result.DatasetName)
	require.NotNil(t, result.InnerResult)
	assert.Equal(t, "inline", result.InnerResult.DatasetName)
	assert.Equal(t, "data.cached.params.source", result.InnerResult.DatasetPath)
	assert.False(t, result.Failed())
	assert.False(t, result.InnerResult.Failed())
}
