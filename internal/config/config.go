// Package config loads probe requests and pipeline configuration
// documents.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Request describes one probe: which document to load, which node to
// probe, optional root-path overrides, and extra search roots for
// relative file references inside source params.
type Request struct {
	ConfigPath    string            `koanf:"config_path" json:"configPath"`
	DatasetPath   string            `koanf:"dataset_path" json:"datasetPath"`
	PathOverrides map[string]string `koanf:"path_overrides" json:"pathOverrides"`
	ProjectPaths  []string          `koanf:"project_paths" json:"projectPaths"`
}

// Validate checks the required request fields.
func (r *Request) Validate() error {
	if r.ConfigPath == "" {
		return errors.New("request: config_path is required")
	}
	if r.DatasetPath == "" {
		return errors.New("request: dataset_path is required")
	}
	return nil
}

// LoadRequest reads a request file (YAML or JSON), then applies
// DATAPROBE_-prefixed environment overrides.
func LoadRequest(path string) (*Request, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "load request %s", path)
	}

	// Environment variables override file values.
	if err := k.Load(env.Provider("DATAPROBE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "DATAPROBE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var req Request
	if err := k.Unmarshal("", &req); err != nil {
		return nil, errors.Wrapf(err, "parse request %s", path)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
