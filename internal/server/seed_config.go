package server

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/grafodb/grafo/pkg/core"
)

// SeedConfig is the top-level structure of the seed file: an initial set of
// nodes and edges applied at startup.
type SeedConfig struct {
	Seed SeedSection `yaml:"seed"`
}

// SeedSection lists the graph content to pre-load.
type SeedSection struct {
	Nodes []core.NodeID `yaml:"nodes"`
	Edges []SeedEdge    `yaml:"edges"`
}

// SeedEdge is one directed edge in the seed file.
type SeedEdge struct {
	Source core.NodeID `yaml:"source"`
	Target core.NodeID `yaml:"target"`
}

// LoadSeedConfig reads and parses the YAML seed file from the given path.
// It uses strict mode (KnownFields) to prevent silent errors due to typos,
// and expands ${ENV_VAR} references before decoding.
func LoadSeedConfig(path string) (*SeedConfig, error) {
	if path == "" {
		return &SeedConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read seed file '%s': %w", path, err)
	}

	expandedData := os.ExpandEnv(string(data))

	var config SeedConfig
	decoder := yaml.NewDecoder(strings.NewReader(expandedData))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML syntax error in '%s': %w", path, err)
	}

	return &config, nil
}
