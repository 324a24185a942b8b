package source

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/forgelab/dataprobe/internal/core/domain"
	"github.com/forgelab/dataprobe/internal/core/ports"
	"github.com/forgelab/dataprobe/internal/tree"
)

// RegisterBuiltins registers the built-in pipeline sources. Call once
// from main or test setup.
func RegisterBuiltins() {
	if IsRegistered("source.inline") {
		return
	}
	RegisterFactory("source.inline", newInline)
	RegisterFactory("source.jsonl", newJSONL)
	RegisterFactory("source.cached", newCached)
}

// inlineSource serves records straight from its params, mainly for
// examples and tests.
type inlineSource struct {
	records []map[string]any
}

func newInline(params map[string]any, _ Env) (ports.Instance, error) {
	raw, _ := params["records"].([]any)
	if len(raw) == 0 {
		return nil, errors.New("inline source: params records is required")
	}
	records := make([]map[string]any, 0, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, errors.Newf("inline source: records[%d] is not a mapping", i)
		}
		records = append(records, m)
	}
	return &inlineSource{records: records}, nil
}

func (s *inlineSource) Name() string { return "InlineSource" }

func (s *inlineSource) FetchFirst() (domain.Entry, error) {
	return domain.EntryFromGo(s.records[0]), nil
}

// jsonlSource reads records from a line-delimited JSON file named by the
// root param, resolved against the request's search roots.
type jsonlSource struct {
	path string
}

func newJSONL(params map[string]any, env Env) (ports.Instance, error) {
	root, _ := params[tree.RootKey].(string)
	if root == "" {
		return nil, errors.New("jsonl source: params root is required")
	}
	return &jsonlSource{path: env.ResolvePath(root)}, nil
}

func (s *jsonlSource) Name() string { return "JSONLSource" }

func (s *jsonlSource) FetchFirst() (domain.Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return domain.Entry{}, errors.Wrap(err, "jsonl source")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return domain.Entry{}, errors.Wrap(err, "jsonl source")
		}
		return domain.Entry{}, errors.Newf("jsonl source: %s is empty", s.path)
	}
	var record map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
		return domain.Entry{}, errors.Wrapf(err, "jsonl source: %s line 1", s.path)
	}
	return domain.EntryFromGo(record), nil
}

// cachedSource wraps an inner pipeline node and caches fetched records
// under cache_dir. Constructing it with recache set wipes the cache
// directory, which is exactly the destructive behavior the prober strips
// before instantiation.
type cachedSource struct {
	inner    ports.Instance
	cacheDir string
	enabled  bool
}

func newCached(params map[string]any, env Env) (ports.Instance, error) {
	innerNode, ok := tree.AsPipelineNode(params["source"])
	if !ok {
		return nil, errors.New("cached source: params source must be a pipeline node")
	}
	cacheDir, _ := params[tree.CacheDirKey].(string)
	if recache, _ := params[tree.RecacheKey].(bool); recache && cacheDir != "" {
		if err := os.RemoveAll(cacheDir); err != nil {
			return nil, errors.Wrap(err, "cached source: recache")
		}
	}
	inner, err := env.Resolver.Construct(innerNode, env.Root)
	if err != nil {
		return nil, errors.Wrap(err, "cached source: inner")
	}
	return &cachedSource{inner: inner, cacheDir: cacheDir, enabled: cacheDir != ""}, nil
}

func (s *cachedSource) Name() string { return "CachedSource" }

// DisableCaching turns off cache writes; the prober calls this before
// fetching so a probe leaves no artifacts behind.
func (s *cachedSource) DisableCaching() {
	s.enabled = false
	if t, ok := s.inner.(ports.CacheToggler); ok {
		t.DisableCaching()
	}
}

func (s *cachedSource) FetchFirst() (domain.Entry, error) {
	entry, err := s.inner.FetchFirst()
	if err != nil {
		return domain.Entry{}, err
	}
	if s.enabled {
		if err := s.writeCache(entry); err != nil {
			return domain.Entry{}, errors.Wrap(err, "cached source: write")
		}
	}
	return entry, nil
}

func (s *cachedSource) writeCache(entry domain.Entry) error {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(entry.Keys())
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.cacheDir, "entry-0.json"), data, 0o644)
}

var (
	_ ports.Instance     = (*cachedSource)(nil)
	_ ports.CacheToggler = (*cachedSource)(nil)
)
