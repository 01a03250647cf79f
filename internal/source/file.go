package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the layout of configs/sources.yaml.
type File struct {
	Sources []Definition `yaml:"sources"`
}

// Load reads definitions from path. An empty path or a missing file yields the
// builtin boards.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(Builtin())
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewCatalog(Builtin())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	return Parse(data)
}

// Parse builds a catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("%w: sources file lists no sources", ErrInvalidDefinition)
	}
	return NewCatalog(f.Sources)
}
