package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgelab/dataprobe/internal/report"
	"github.com/forgelab/dataprobe/internal/runtime"
	"github.com/forgelab/dataprobe/internal/source"
	"github.com/forgelab/dataprobe/internal/stage"
)

func TestMain(m *testing.M) {
	source.RegisterBuiltins()
	stage.RegisterBuiltins()
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := New(":0", runtime.New(), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func writePipeline(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	doc := `
data:
  simple:
    target: source.inline
    params:
      records:
        - label: 1
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestProbe_BadBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/probe", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProbe_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/probe", "application/json", strings.NewReader(`{"configPath": "/tmp/x.yaml"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProbe_StreamsEvents(t *testing.T) {
	ts := newTestServer(t)
	body := `{"configPath": ` + jsonQuote(writePipeline(t)) + `, "datasetPath": "data.simple"}`

	resp, err := http.Post(ts.URL+"/probe", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	var types []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		var ev struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		types = append(types, ev.Type)
	}
	require.NoError(t, sc.Err())

	require.NotEmpty(t, types)
	assert.Equal(t, report.EventDatasetStart, types[0])
	assert.Equal(t, report.EventComplete, types[len(types)-1])
	assert.Contains(t, types, report.EventSnapshot)
}

func TestProbe_FatalErrorStreamsErrorEvent(t *testing.T) {
	ts := newTestServer(t)
	body := `{"configPath": "/nonexistent/pipeline.yaml", "datasetPath": "data.simple"}`

	resp, err := http.Post(ts.URL+"/probe", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	// The stream was already open, so the failure arrives as events.
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var types []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		var ev struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		types = append(types, ev.Type)
	}
	require.Equal(t, []string{report.EventError, report.EventComplete}, types)
}

// jsonQuote JSON-quotes a string for inline request bodies.
func jsonQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
