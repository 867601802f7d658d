package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SolverConfig represents the configuration for an external solver.
type SolverConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of solvers.yaml
type ConfigFile struct {
	Solvers []SolverConfig `yaml:"solvers" json:"solvers"`
}

// LoadSolvers reads a configuration file (YAML or JSON) and returns a map of solver names to configs.
// A missing file yields an empty map.
func LoadSolvers(path string) (map[string]SolverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]SolverConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read solvers config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	solvers := make(map[string]SolverConfig)
	for _, s := range cfg.Solvers {
		if s.Name == "" || s.Command == "" {
			continue
		}
		solvers[s.Name] = s
	}
	return solvers, nil
}
