package config

import (
	"os"
	"regexp"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"

	"github.com/forgelab/dataprobe/internal/tree"
)

// refQuotePattern finds bare %{...} reference values so they can be
// quoted before parsing; a leading % is not a valid plain YAML scalar.
var refQuotePattern = regexp.MustCompile(`(?m)(:[ \t]+)(%\{[^}]+\})[ \t]*$`)

// LoadDocument reads and parses a pipeline configuration document,
// preserving the %{...} stage-sequence reference syntax as strings.
func LoadDocument(path string) (tree.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read document %s", path)
	}
	return ParseDocument(data)
}

// ParseDocument parses document bytes into a config tree.
func ParseDocument(data []byte) (tree.Node, error) {
	quoted := refQuotePattern.ReplaceAll(data, []byte(`$1"$2"`))
	doc, err := yaml.Parser().Unmarshal(quoted)
	if err != nil {
		return nil, errors.Wrap(err, "parse document")
	}
	return doc, nil
}
